package journey

import (
	"sort"
	"time"

	"forsinka.transitdata.no/internal/siri"
	"forsinka.transitdata.no/internal/stops"
)

// Index is a mutable collection of journeys keyed by id. One index is built
// per fetch cycle and merged into the long-lived shared index; journeys are
// always replaced wholesale, never patched field by field.
type Index struct {
	journeys map[ID]*Journey
}

// NewIndex builds an index from one raw feed snapshot. Entries are processed
// in ascending RecordedAtTime order so a later record for the same id
// deterministically overwrites an earlier one within the batch. Entries that
// fail the data-quality bar are dropped silently.
func NewIndex(catalog *stops.Catalog, entries []siri.EstimatedVehicleJourney) *Index {
	sorted := make([]siri.EstimatedVehicleJourney, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAtTime.Before(sorted[j].RecordedAtTime)
	})

	journeys := make(map[ID]*Journey, len(sorted))
	for _, entry := range sorted {
		if journey, ok := Build(catalog, entry); ok {
			journeys[journey.ID] = journey
		}
	}
	return &Index{journeys: journeys}
}

// NewEmptyIndex returns an index with no journeys.
func NewEmptyIndex() *Index {
	return &Index{journeys: make(map[ID]*Journey)}
}

// ByStop returns the journeys that will still visit the named stop.
// No ordering guarantee.
func (idx *Index) ByStop(stopName string) []*Journey {
	var result []*Journey
	for _, journey := range idx.journeys {
		if journey.WillVisit(stopName) {
			result = append(result, journey)
		}
	}
	return result
}

// ByMode returns the journeys whose data source is one of the given codes.
func (idx *Index) ByMode(dataSources ...string) []*Journey {
	wanted := make(map[string]struct{}, len(dataSources))
	for _, source := range dataSources {
		wanted[source] = struct{}{}
	}
	var result []*Journey
	for _, journey := range idx.journeys {
		if _, ok := wanted[journey.DataSource]; ok {
			result = append(result, journey)
		}
	}
	return result
}

// Get returns the journey with the given id, if tracked.
func (idx *Index) Get(id ID) (*Journey, bool) {
	journey, ok := idx.journeys[id]
	return journey, ok
}

// MergeFrom inserts every journey of other into idx, overwriting on id
// collision. Last writer wins.
func (idx *Index) MergeFrom(other *Index) {
	for id, journey := range other.journeys {
		idx.journeys[id] = journey
	}
}

// Expire removes every journey whose LastUpdate is at or before cutoff and
// returns the number removed.
func (idx *Index) Expire(cutoff time.Time) int {
	removed := 0
	for id, journey := range idx.journeys {
		if !journey.LastUpdate.After(cutoff) {
			delete(idx.journeys, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked journeys.
func (idx *Index) Len() int {
	return len(idx.journeys)
}

// Clone returns a shallow copy that can be mutated without affecting idx.
// Journeys are immutable once built, so sharing them is safe.
func (idx *Index) Clone() *Index {
	journeys := make(map[ID]*Journey, len(idx.journeys))
	for id, journey := range idx.journeys {
		journeys[id] = journey
	}
	return &Index{journeys: journeys}
}
