package poller

import (
	"errors"
	"time"

	"github.com/rickgao/active-strike/internal/api"
	"github.com/rickgao/active-strike/internal/writer"
)

// Poller states.
const (
	StateUnauthenticated = "unauthenticated"
	StatePolling         = "polling"
)

// Cycle outcomes.
const (
	OutcomeWritten          = "written"
	OutcomeNothingToWrite   = "nothing_to_write"
	OutcomeNotAuthenticated = "not_authenticated"
	OutcomeSessionExpired   = "session_expired"
	OutcomeUnexpected       = "unexpected_response"
	OutcomeCaptureExhausted = "capture_exhausted"
	OutcomeError            = "error"
)

// Status is a snapshot of the loop for health reporting.
type Status struct {
	State          string    `json:"state"`
	Cycles         int64     `json:"cycles"`
	LastCycleID    string    `json:"last_cycle_id,omitempty"`
	LastCycleAt    time.Time `json:"last_cycle_at,omitzero"`
	LastOutcome    string    `json:"last_outcome,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	LastSuccessAt  time.Time `json:"last_success_at,omitzero"`
	RowsWritten    int64     `json:"rows_written"`
	Reauths        int64     `json:"reauths"`
	ReauthFailures int       `json:"reauth_failures"`
}

// Status returns a copy of the current status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) setState(state string) {
	p.mu.Lock()
	p.status.State = state
	p.mu.Unlock()
}

func (p *Poller) recordCycle(cycleID string, start time.Time, res writer.WriteResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.Cycles++
	p.status.LastCycleID = cycleID
	p.status.LastCycleAt = start
	p.status.LastOutcome = outcome(res, err)
	p.status.LastError = ""
	if err != nil {
		p.status.LastError = err.Error()
		return
	}

	p.status.LastSuccessAt = start
	if res.Written {
		p.status.RowsWritten += int64(res.Selected)
	}
}

func outcome(res writer.WriteResult, err error) string {
	var unexpected *api.UnexpectedResponseError
	switch {
	case err == nil && res.Written:
		return OutcomeWritten
	case err == nil:
		return OutcomeNothingToWrite
	case errors.Is(err, ErrNotAuthenticated):
		return OutcomeNotAuthenticated
	case errors.Is(err, ErrCaptureExhausted):
		return OutcomeCaptureExhausted
	case errors.Is(err, api.ErrSessionExpired):
		return OutcomeSessionExpired
	case errors.As(err, &unexpected):
		return OutcomeUnexpected
	default:
		return OutcomeError
	}
}
