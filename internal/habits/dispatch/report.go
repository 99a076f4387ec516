package dispatch

import (
	"time"

	"github.com/aussiebroadwan/habits/pkg/idx"
)

// Outcome classifies what a tick did with one pending notification.
type Outcome string

const (
	OutcomeDelivered          Outcome = "delivered"
	OutcomeSkippedNoHandle    Outcome = "skipped_no_handle"
	OutcomeSkippedNoTransport Outcome = "skipped_no_transport"
	OutcomeFailed             Outcome = "failed"
	OutcomeExpired            Outcome = "expired"
)

// Result is the per-notification outcome of a tick. Only delivered results
// have been marked sent.
type Result struct {
	NotificationID int64
	UserID         int64
	Outcome        Outcome
	Err            error
}

// Report summarises one tick.
type Report struct {
	TickID    idx.ID
	StartedAt time.Time
	Duration  time.Duration

	// Disabled is set when notifications were switched off and the tick did
	// nothing.
	Disabled bool

	// Err is set when the pending list could not be read.
	Err error

	// Attempts counts calls made to the transport.
	Attempts int

	Results   []Result
	Delivered int
	Skipped   int
	Failed    int
	Expired   int
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Outcome {
	case OutcomeDelivered:
		r.Delivered++
	case OutcomeSkippedNoHandle, OutcomeSkippedNoTransport:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	case OutcomeExpired:
		r.Expired++
	}
}
