package journey

import (
	"time"

	"forsinka.transitdata.no/internal/siri"
	"forsinka.transitdata.no/internal/stops"
)

// idCandidates are the journey identity sources, in priority order. The feed
// carries either DatedVehicleJourneyRef or FramedVehicleJourneyRef, and some
// producers only fill BlockRef.
var idCandidates = []func(*siri.EstimatedVehicleJourney) (string, bool){
	func(entry *siri.EstimatedVehicleJourney) (string, bool) {
		if entry.DatedVehicleJourneyRef != nil {
			return entry.DatedVehicleJourneyRef.Value, true
		}
		return "", false
	},
	func(entry *siri.EstimatedVehicleJourney) (string, bool) {
		if entry.FramedVehicleJourneyRef != nil {
			return entry.FramedVehicleJourneyRef.DatedVehicleJourneyRef, true
		}
		return "", false
	},
	func(entry *siri.EstimatedVehicleJourney) (string, bool) {
		if entry.BlockRef != nil {
			return entry.BlockRef.Value, true
		}
		return "", false
	},
}

// resolveID evaluates the identity candidates in order and returns the first
// present one. Entries with no identity at all cannot be tracked.
func resolveID(entry *siri.EstimatedVehicleJourney) (ID, bool) {
	for _, candidate := range idCandidates {
		if value, ok := candidate(entry); ok && value != "" {
			return ID(value), true
		}
	}
	return "", false
}

// firstPresent returns the first non-nil timestamp of the candidates.
func firstPresent(candidates ...*time.Time) (time.Time, bool) {
	for _, t := range candidates {
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

// resolveWithFallback looks the ref up in the catalog and falls back to the
// name embedded in the call payload. The fallback stop has no coordinates.
func resolveWithFallback(catalog *stops.Catalog, ref siri.StringValue, names []siri.StringValue) (stops.Stop, bool) {
	if stop, ok := catalog.Resolve(stops.Ref(ref.Value)); ok {
		return stop, true
	}
	if len(names) > 0 && names[0].Value != "" {
		return stops.Stop{Name: names[0].Value}, true
	}
	return stops.Stop{}, false
}

// Build derives a Journey from one raw feed entry. The second return value is
// false when the entry does not meet the data-quality bar: no identity, no
// recorded call, no usable times at the last recorded call, or an unresolvable
// required stop. Such entries are dropped, not errors.
func Build(catalog *stops.Catalog, entry siri.EstimatedVehicleJourney) (*Journey, bool) {
	id, ok := resolveID(&entry)
	if !ok {
		return nil, false
	}

	// A journey with no recorded calls hasn't started yet; skip it.
	if entry.RecordedCalls == nil || len(entry.RecordedCalls.RecordedCall) == 0 {
		return nil, false
	}
	recorded := entry.RecordedCalls.RecordedCall

	var estimated []siri.EstimatedCall
	if entry.EstimatedCalls != nil {
		estimated = entry.EstimatedCalls.EstimatedCall
	}

	prev := recorded[0]
	for _, call := range recorded[1:] {
		if call.Order > prev.Order {
			prev = call
		}
	}
	prevPlanned, ok := firstPresent(prev.AimedArrivalTime, prev.AimedDepartureTime)
	if !ok {
		return nil, false
	}
	prevActual, ok := firstPresent(
		prev.ActualArrivalTime, prev.ActualDepartureTime,
		prev.ExpectedArrivalTime, prev.ExpectedDepartureTime)
	if !ok {
		return nil, false
	}
	prevStop, ok := resolveWithFallback(catalog, prev.StopPointRef, prev.StopPointName)
	if !ok {
		return nil, false
	}

	var nextStop *stops.Stop
	var nextPlanned *time.Time
	if len(estimated) > 0 {
		next := estimated[0]
		for _, call := range estimated[1:] {
			if call.Order < next.Order {
				next = call
			}
		}
		if stop, ok := resolveWithFallback(catalog, next.StopPointRef, next.StopPointName); ok {
			// A next stop without a planned time is treated as no next stop
			// rather than dropping the journey.
			if planned, ok := firstPresent(next.AimedArrivalTime, next.AimedDepartureTime); ok {
				nextStop = &stop
				nextPlanned = &planned
			}
		}
	}

	// Unknown origin or destination drops the whole journey. No embedded-name
	// fallback here: journeys to stops outside the catalog are the noise this
	// filter exists for.
	first := recorded[0]
	for _, call := range recorded[1:] {
		if call.Order < first.Order {
			first = call
		}
	}
	origin, ok := catalog.Resolve(stops.Ref(first.StopPointRef.Value))
	if !ok {
		return nil, false
	}

	lastRef := recorded[len(recorded)-1].StopPointRef.Value
	if len(estimated) > 0 {
		lastRef = estimated[len(estimated)-1].StopPointRef.Value
	}
	destination, ok := catalog.Resolve(stops.Ref(lastRef))
	if !ok {
		return nil, false
	}

	// Calls with unresolvable stops are skipped here, not fatal.
	toVisit := make(map[string]struct{}, len(estimated))
	for _, call := range estimated {
		if call.Cancellation != nil && *call.Cancellation {
			continue
		}
		if stop, ok := catalog.Resolve(stops.Ref(call.StopPointRef.Value)); ok {
			toVisit[stop.Name] = struct{}{}
		}
	}

	cancelled := entry.Cancellation != nil && *entry.Cancellation

	return &Journey{
		LastUpdate:          entry.RecordedAtTime,
		ID:                  id,
		DataSource:          entry.DataSource,
		LineRef:             entry.LineRef.Value,
		Cancelled:           cancelled,
		Finished:            len(estimated) == 0,
		Origin:              origin,
		Destination:         destination,
		PrevStop:            prevStop,
		NextStop:            nextStop,
		PrevStopPlannedTime: prevPlanned,
		PrevStopActualTime:  prevActual,
		NextStopPlannedTime: nextPlanned,
		ToVisit:             toVisit,
	}, true
}
