// Package stops holds the immutable stop catalog: the mapping from upstream
// stop point refs (NSR quay ids) to named, optionally geolocated stops. The
// catalog is built once at startup and shared read-only with every journey
// construction, so no locking is required.
package stops

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/gzip"
	"github.com/spkg/bom"
	"github.com/tidwall/rtree"

	"forsinka.transitdata.no/internal/utils"
)

// Ref is the upstream feed identifier for a platform or quay.
type Ref string

// Stop is a resolved stop: a human-readable name and, when the source data
// has them, WGS84 coordinates.
type Stop struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// Row is one record of the tabular stop source.
type Row struct {
	Name         string   `csv:"name"`
	StopPointRef string   `csv:"stop_point_ref"`
	Lat          *float64 `csv:"lat"`
	Lon          *float64 `csv:"lon"`
}

// Catalog maps stop refs to stops. Immutable after construction.
type Catalog struct {
	byRef   map[Ref]Stop
	spatial rtree.RTreeG[Stop]
}

// NewCatalog builds a catalog from stop rows. Rows without a name are
// excluded; rows with coordinates are additionally indexed spatially.
func NewCatalog(rows []Row) *Catalog {
	catalog := &Catalog{
		byRef: make(map[Ref]Stop, len(rows)),
	}
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		stop := Stop{Name: row.Name, Lat: row.Lat, Lon: row.Lon}
		catalog.byRef[Ref(row.StopPointRef)] = stop
		if stop.Lat != nil && stop.Lon != nil {
			point := [2]float64{*stop.Lon, *stop.Lat}
			catalog.spatial.Insert(point, point, stop)
		}
	}
	return catalog
}

// Resolve looks up a stop by its upstream ref. Absence is not an error.
func (c *Catalog) Resolve(ref Ref) (Stop, bool) {
	stop, ok := c.byRef[ref]
	return stop, ok
}

// Names returns the distinct stop names in the catalog, sorted.
func (c *Catalog) Names() []string {
	seen := make(map[string]struct{}, len(c.byRef))
	for _, stop := range c.byRef {
		seen[stop.Name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of resolvable refs.
func (c *Catalog) Len() int {
	return len(c.byRef)
}

// Near returns the stops within radius meters of (lat, lon), closest first.
// Multiple quays sharing a name collapse to the nearest one.
func (c *Catalog) Near(lat, lon, radius float64) []Stop {
	bounds := utils.CalculateBounds(lat, lon, radius)

	type candidate struct {
		stop     Stop
		distance float64
	}
	nearestByName := make(map[string]candidate)
	c.spatial.Search(
		[2]float64{bounds.MinLon, bounds.MinLat},
		[2]float64{bounds.MaxLon, bounds.MaxLat},
		func(min, max [2]float64, stop Stop) bool {
			d := utils.Distance(lat, lon, *stop.Lat, *stop.Lon)
			if d > radius {
				return true
			}
			if existing, ok := nearestByName[stop.Name]; !ok || d < existing.distance {
				nearestByName[stop.Name] = candidate{stop: stop, distance: d}
			}
			return true
		},
	)

	candidates := make([]candidate, 0, len(nearestByName))
	for _, cand := range nearestByName {
		candidates = append(candidates, cand)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	result := make([]Stop, len(candidates))
	for i, cand := range candidates {
		result[i] = cand.stop
	}
	return result
}

// LoadCSV reads a stop catalog from a CSV file with columns
// name,stop_point_ref,lat,lon. A ".gz" suffix selects gzip decompression.
func LoadCSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stops file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stops file: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return ReadCSV(reader)
}

// ReadCSV parses stop rows from CSV data and builds a catalog.
func ReadCSV(reader io.Reader) (*Catalog, error) {
	// The lazy reader survives sloppy quoting; the BOM reader strips a
	// unicode BOM if present.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		return gocsv.LazyCSVReader(bom.NewReader(in))
	})

	var rows []Row
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return nil, fmt.Errorf("parsing stops CSV: %w", err)
	}
	return NewCatalog(rows), nil
}
