package docintel

import (
	"fmt"
	"time"

	"github.com/gardar/furiocr/pkg/ocr"
)

// State is a stage in the life of an analyze job
type State int

const (
	StateSubmitted State = iota
	StatePolling
	StateSucceeded
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

// Service statuses reported by the analyze operation
const (
	StatusNotStarted = "notStarted"
	StatusRunning    = "running"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Poller is the state machine driving the wait for an analyze job:
//
//	submitted -> polling -> succeeded | failed | timed_out
//
// Observe feeds it the status of each poll; Wait advances the clock between
// polls. It performs no I/O itself.
type Poller struct {
	state    State
	interval time.Duration
	maxWait  time.Duration
	elapsed  time.Duration
	polls    int
}

// NewPoller returns a poller in the submitted state
func NewPoller(interval, maxWait time.Duration) *Poller {
	return &Poller{state: StateSubmitted, interval: interval, maxWait: maxWait}
}

// State returns the current state
func (p *Poller) State() State { return p.state }

// Elapsed returns the total time waited so far
func (p *Poller) Elapsed() time.Duration { return p.elapsed }

// Polls returns how many statuses have been observed
func (p *Poller) Polls() int { return p.polls }

// Observe records the status returned by one poll and returns the new state.
// Unknown statuses keep the job polling.
func (p *Poller) Observe(status string) State {
	if p.state.Terminal() {
		return p.state
	}
	p.polls++
	switch status {
	case StatusSucceeded:
		p.state = StateSucceeded
	case StatusFailed, StatusCanceled:
		p.state = StateFailed
	default:
		p.state = StatePolling
	}
	return p.state
}

// Next returns how long to wait before the next poll. When another interval
// would exceed the maximum wait the poller moves to timed_out and ok is false.
func (p *Poller) Next() (wait time.Duration, ok bool) {
	if p.state.Terminal() {
		return 0, false
	}
	if p.elapsed+p.interval > p.maxWait {
		p.state = StateTimedOut
		return 0, false
	}
	return p.interval, true
}

// Waited records that d has passed between polls
func (p *Poller) Waited(d time.Duration) {
	p.elapsed += d
}

// Err returns the error matching a terminal failure state, nil otherwise
func (p *Poller) Err() error {
	switch p.state {
	case StateFailed:
		return fmt.Errorf("%w after %d polls", ocr.ErrAnalysisFailed, p.polls)
	case StateTimedOut:
		return fmt.Errorf("%w after %s (%d polls)", ocr.ErrAnalysisTimeout, p.elapsed, p.polls)
	default:
		return nil
	}
}
