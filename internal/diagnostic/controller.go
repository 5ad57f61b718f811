// Package diagnostic drives one scan submission at a time through the remote
// inference call. The controller is a small state machine; a second submit
// while one is in flight is rejected synchronously rather than queued, so a
// double-press can never bill the same scan twice.
package diagnostic

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrsinham/pancrascan/internal/records"
	"github.com/mrsinham/pancrascan/internal/submission"
)

// Phase is the controller's current position in the submission lifecycle.
// Succeeded and Failed are terminal per attempt only; the next Submit moves
// back through Submitting.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "Submitting"
	case PhaseSucceeded:
		return "Succeeded"
	case PhaseFailed:
		return "Failed"
	default:
		return "Idle"
	}
}

// ErrAlreadyInFlight rejects a submit while another submission is pending.
var ErrAlreadyInFlight = errors.New("a submission is already in flight")

// ErrAnalysis marks a failed analysis. Transport errors and service errors
// are indistinguishable at this layer.
var ErrAnalysis = errors.New("scan analysis failed")

// AnalyzeFunc performs the remote inference call for one request.
type AnalyzeFunc func(ctx context.Context, req submission.Request) (records.Record, error)

// Outcome is the completion of one submission attempt, tagged with its
// issuance number so stale attempts cannot overwrite newer state.
type Outcome struct {
	seq    int
	Record records.Record
	Err    error
}

// Controller owns the submission state machine. It is built for a
// single-threaded event loop: Submit, Apply and Cancel run on the loop and
// only the returned thunk blocks elsewhere.
type Controller struct {
	phase  Phase
	seq    int
	result records.Record
	err    error
}

// NewController creates an idle controller.
func NewController() *Controller {
	return &Controller{}
}

// Submit starts a submission attempt and returns the thunk that performs the
// remote call; hand its outcome back to Apply. If an attempt is already in
// flight the call is a no-op and returns ErrAlreadyInFlight.
func (c *Controller) Submit(ctx context.Context, req submission.Request, analyze AnalyzeFunc) (func() Outcome, error) {
	if c.phase == PhaseSubmitting {
		return nil, ErrAlreadyInFlight
	}

	c.seq++
	seq := c.seq
	c.phase = PhaseSubmitting
	c.result = records.Record{}
	c.err = nil

	return func() Outcome {
		rec, err := analyze(ctx, req)
		if err != nil {
			return Outcome{seq: seq, Err: fmt.Errorf("%w: %v", ErrAnalysis, err)}
		}
		return Outcome{seq: seq, Record: rec}
	}, nil
}

// Apply is the single authoritative sink for attempt results. It reports
// whether the outcome was accepted: outcomes from a cancelled or superseded
// attempt are dropped without touching state.
func (c *Controller) Apply(o Outcome) bool {
	if o.seq != c.seq || c.phase != PhaseSubmitting {
		return false
	}
	if o.Err != nil {
		c.phase = PhaseFailed
		c.err = o.Err
		return true
	}
	c.phase = PhaseSucceeded
	c.result = o.Record
	return true
}

// Cancel abandons the in-flight attempt, if any. The remote call is not
// aborted; its eventual outcome is simply ignored.
func (c *Controller) Cancel() {
	if c.phase != PhaseSubmitting {
		return
	}
	c.seq++
	c.phase = PhaseIdle
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Result returns the record of the last succeeded attempt. Only meaningful
// while Phase is PhaseSucceeded.
func (c *Controller) Result() records.Record { return c.result }

// Err returns the failure of the last attempt. Only meaningful while Phase
// is PhaseFailed.
func (c *Controller) Err() error { return c.err }
