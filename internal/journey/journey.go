// Package journey contains the in-memory journey state engine: building
// validated journeys from raw SIRI-ET entries, the queryable index keyed by
// journey id, and the single-writer refresh loop that keeps the shared index
// current.
package journey

import (
	"time"

	"forsinka.transitdata.no/internal/stops"
)

// StuckSlack is how far past the planned travel time a vehicle may run before
// we flag it as possibly stuck. The upstream feed sometimes stops updating
// vehicles mid-leg; this margin separates "late" from "gone quiet".
const StuckSlack = 8 * time.Minute

// ID identifies one vehicle run.
type ID string

// Journey is the validated, immutable-once-built state of one vehicle run.
type Journey struct {
	// LastUpdate is the source record's timestamp, used for expiry ordering.
	LastUpdate time.Time
	ID         ID
	DataSource string
	LineRef    string
	Cancelled  bool
	// Finished is true when no estimated calls remain.
	Finished    bool
	Origin      stops.Stop
	Destination stops.Stop
	// PrevStop is the most recently passed stop.
	PrevStop stops.Stop
	// NextStop is the next stop ahead, nil on the last leg.
	NextStop            *stops.Stop
	PrevStopPlannedTime time.Time
	PrevStopActualTime  time.Time
	NextStopPlannedTime *time.Time
	// ToVisit holds the names of stops still ahead on non-cancelled calls,
	// for stop-based lookup.
	ToVisit map[string]struct{}
}

// DelaySeconds is the recorded delay at the previous stop in whole seconds.
// Negative when the vehicle ran early.
func (j *Journey) DelaySeconds() int {
	return int(j.PrevStopActualTime.Sub(j.PrevStopPlannedTime) / time.Second)
}

// PossiblyStuck reports whether the vehicle is overdue at its next stop:
// now is past the previous stop's planned time plus the planned travel time
// to the next stop plus StuckSlack. Always false on the last leg.
func (j *Journey) PossiblyStuck(now time.Time) bool {
	if j.NextStopPlannedTime == nil {
		return false
	}
	plannedTravel := j.NextStopPlannedTime.Sub(j.PrevStopPlannedTime)
	cutoff := j.PrevStopPlannedTime.Add(plannedTravel + StuckSlack)
	return now.After(cutoff)
}

// WillVisit reports whether the journey still has the named stop ahead.
func (j *Journey) WillVisit(stopName string) bool {
	_, ok := j.ToVisit[stopName]
	return ok
}
