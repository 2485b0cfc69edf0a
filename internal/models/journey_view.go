// Package models holds the JSON response shapes served by the REST API.
package models

import (
	"sort"
	"time"

	"forsinka.transitdata.no/internal/journey"
)

// JourneyDelay is the response shape for stop lookups: the recorded delay of
// one journey that will still visit the requested stop.
type JourneyDelay struct {
	VehicleJourneyID     string     `json:"vehicle_journey_id"`
	LineRef              string     `json:"line_ref"`
	LastStopName         string     `json:"last_stop_name"`
	AimedLastStopTime    time.Time  `json:"aimed_last_stop_time"`
	ActualLastStopTime   time.Time  `json:"actual_last_stop_time"`
	RecordedDelaySeconds int        `json:"recorded_delay_seconds"`
	NextStopName         *string    `json:"next_stop_name"`
	AimedNextStopTime    *time.Time `json:"aimed_next_stop_time"`
}

// NewJourneyDelay converts a tracked journey into its stop-lookup view.
func NewJourneyDelay(j *journey.Journey) JourneyDelay {
	view := JourneyDelay{
		VehicleJourneyID:     string(j.ID),
		LineRef:              j.LineRef,
		LastStopName:         j.PrevStop.Name,
		AimedLastStopTime:    j.PrevStopPlannedTime,
		ActualLastStopTime:   j.PrevStopActualTime,
		RecordedDelaySeconds: j.DelaySeconds(),
		AimedNextStopTime:    j.NextStopPlannedTime,
	}
	if j.NextStop != nil {
		view.NextStopName = &j.NextStop.Name
	}
	return view
}

// TrainJourney is the response shape for the train overview.
type TrainJourney struct {
	VehicleJourneyID string     `json:"vehicle_journey_id"`
	LineRef          string     `json:"line_ref"`
	Cancellation     bool       `json:"cancellation"`
	DataSource       string     `json:"data_source"`
	StopName         string     `json:"stop_name"`
	NextStopName     *string    `json:"next_stop_name"`
	AimedTime        time.Time  `json:"aimed_time"`
	ActualTime       time.Time  `json:"actual_time"`
	DelaySeconds     int        `json:"delay_seconds"`
	NextStopTime     *time.Time `json:"next_stop_time"`
	// Departed is always true: only journeys with a recorded call are
	// tracked. The field stays for consumers of the older API.
	Departed      bool `json:"departed"`
	PossiblyStuck bool `json:"possibly_stuck"`
}

// NewTrainJourney converts a tracked journey into its overview row. The
// possibly-stuck flag is evaluated against now.
func NewTrainJourney(j *journey.Journey, now time.Time) TrainJourney {
	view := TrainJourney{
		VehicleJourneyID: string(j.ID),
		LineRef:          j.LineRef,
		Cancellation:     j.Cancelled,
		DataSource:       j.DataSource,
		StopName:         j.PrevStop.Name,
		AimedTime:        j.PrevStopPlannedTime,
		ActualTime:       j.PrevStopActualTime,
		DelaySeconds:     j.DelaySeconds(),
		NextStopTime:     j.NextStopPlannedTime,
		Departed:         true,
		PossiblyStuck:    j.PossiblyStuck(now),
	}
	if j.NextStop != nil {
		view.NextStopName = &j.NextStop.Name
	}
	return view
}

// SortTrainJourneys orders rows worst-first: stuck journeys before running
// ones, then by descending delay.
func SortTrainJourneys(rows []TrainJourney) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PossiblyStuck != rows[j].PossiblyStuck {
			return rows[i].PossiblyStuck
		}
		return rows[i].DelaySeconds > rows[j].DelaySeconds
	})
}
