// Package siri models the subset of the Entur SIRI-ET REST feed that the
// journey engine consumes, and fetches it. Entur serves SIRI-ET as JSON with
// PascalCase object keys; single-value wrappers use a lowercase "value" key.
package siri

import "time"

// Response is the top-level SIRI-ET document.
type Response struct {
	Siri Siri `json:"Siri"`
}

type Siri struct {
	ServiceDelivery ServiceDelivery `json:"ServiceDelivery"`
	Version         string          `json:"version"`
}

type ServiceDelivery struct {
	EstimatedTimetableDelivery []EstimatedTimetableDelivery `json:"EstimatedTimetableDelivery"`
	ProducerRef                StringValue                  `json:"ProducerRef"`
	ResponseTimestamp          time.Time                    `json:"ResponseTimestamp"`
}

type EstimatedTimetableDelivery struct {
	Version                      string                         `json:"version"`
	ResponseTimestamp            time.Time                      `json:"ResponseTimestamp"`
	EstimatedJourneyVersionFrame []EstimatedJourneyVersionFrame `json:"EstimatedJourneyVersionFrame"`
}

type EstimatedJourneyVersionFrame struct {
	EstimatedVehicleJourney []EstimatedVehicleJourney `json:"EstimatedVehicleJourney"`
	RecordedAtTime          time.Time                 `json:"RecordedAtTime"`
}

// EstimatedVehicleJourney is one vehicle run. Past stops are in
// RecordedCalls, future stops in EstimatedCalls. The journey identity comes
// from DatedVehicleJourneyRef, FramedVehicleJourneyRef, or BlockRef,
// whichever is present first.
type EstimatedVehicleJourney struct {
	// BlockRef is the last-resort journey identifier candidate.
	BlockRef *StringValue `json:"BlockRef"`
	// Cancellation is true when the journey is cancelled in its entirety.
	Cancellation *bool `json:"Cancellation"`
	// DataSource is the operator code: ATB, RUT, VYG, BNR, ...
	DataSource string `json:"DataSource"`
	// DatedVehicleJourneyRef is present in the feed _or_ FramedVehicleJourneyRef
	// is, not both.
	DatedVehicleJourneyRef  *StringValue             `json:"DatedVehicleJourneyRef"`
	EstimatedCalls          *EstimatedCalls          `json:"EstimatedCalls"`
	ExtraJourney            *bool                    `json:"ExtraJourney"`
	FramedVehicleJourneyRef *FramedVehicleJourneyRef `json:"FramedVehicleJourneyRef"`
	IsCompleteStopSequence  *bool                    `json:"IsCompleteStopSequence"`
	LineRef                 StringValue              `json:"LineRef"`
	Monitored               *bool                    `json:"Monitored"`
	OperatorRef             *StringValue             `json:"OperatorRef"`
	RecordedAtTime          time.Time                `json:"RecordedAtTime"`
	RecordedCalls           *RecordedCalls           `json:"RecordedCalls"`
	VehicleMode             []string                 `json:"VehicleMode"`
	VehicleRef              *StringValue             `json:"VehicleRef"`
}

type FramedVehicleJourneyRef struct {
	DataFrameRef           DataFrameRef `json:"DataFrameRef"`
	DatedVehicleJourneyRef string       `json:"DatedVehicleJourneyRef"`
}

type DataFrameRef struct {
	Value string `json:"value"`
}

type RecordedCalls struct {
	RecordedCall []RecordedCall `json:"RecordedCall"`
}

// RecordedCall is a stop visit in the past, with actual times recorded.
type RecordedCall struct {
	ActualArrivalTime     *time.Time    `json:"ActualArrivalTime"`
	ActualDepartureTime   *time.Time    `json:"ActualDepartureTime"`
	AimedArrivalTime      *time.Time    `json:"AimedArrivalTime"`
	AimedDepartureTime    *time.Time    `json:"AimedDepartureTime"`
	Cancellation          *bool         `json:"Cancellation"`
	ExpectedArrivalTime   *time.Time    `json:"ExpectedArrivalTime"`
	ExpectedDepartureTime *time.Time    `json:"ExpectedDepartureTime"`
	Order                 uint16        `json:"Order"`
	StopPointName         []StringValue `json:"StopPointName"`
	StopPointRef          StringValue   `json:"StopPointRef"`
}

type EstimatedCalls struct {
	EstimatedCall []EstimatedCall `json:"EstimatedCall"`
}

// EstimatedCall is a stop visit still ahead, with predicted times only.
type EstimatedCall struct {
	AimedArrivalTime      *time.Time `json:"AimedArrivalTime"`
	AimedDepartureTime    *time.Time `json:"AimedDepartureTime"`
	ArrivalStatus         *string    `json:"ArrivalStatus"`
	// Cancellation covers this particular call, not necessarily the journey.
	Cancellation          *bool         `json:"Cancellation"`
	DepartureStatus       *string       `json:"DepartureStatus"`
	ExpectedArrivalTime   *time.Time    `json:"ExpectedArrivalTime"`
	ExpectedDepartureTime *time.Time    `json:"ExpectedDepartureTime"`
	Order                 uint16        `json:"Order"`
	RequestStop           *bool         `json:"RequestStop"`
	StopPointName         []StringValue `json:"StopPointName"`
	StopPointRef          StringValue   `json:"StopPointRef"`
}

// StringValue is SIRI's single-value wrapper object.
type StringValue struct {
	Value string `json:"value"`
}

// Journeys flattens every estimated vehicle journey out of the delivery
// frames, in document order.
func (r *Response) Journeys() []EstimatedVehicleJourney {
	var journeys []EstimatedVehicleJourney
	for _, delivery := range r.Siri.ServiceDelivery.EstimatedTimetableDelivery {
		for _, frame := range delivery.EstimatedJourneyVersionFrame {
			journeys = append(journeys, frame.EstimatedVehicleJourney...)
		}
	}
	return journeys
}
