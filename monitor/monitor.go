// Package monitor is the alerting collaborator the dispatcher reports
// unexpected backend failures to.
package monitor

// Event is one dispatch failure report. Only unexpected failures reach
// the monitor: validation errors and not-connected outcomes are
// user-actionable and never alert.
type Event struct {
	Service  string
	Action   string
	Category string
	Message  string
}

// Monitor receives failure events from the dispatcher. Implementations
// must be safe for concurrent use and must not block dispatch: heavy
// work belongs behind a channel or a metrics library.
type Monitor interface {
	ReportError(ev Event)
}

// Nop is a Monitor that discards every event.
type Nop struct{}

// ReportError does nothing.
func (Nop) ReportError(Event) {}
