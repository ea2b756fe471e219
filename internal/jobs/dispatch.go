package jobs

import (
	"context"
	"fmt"
)

// Dispatcher routes jobs to a handler per type.
type Dispatcher struct {
	handlers map[JobType]JobHandler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[JobType]JobHandler)}
}

// Handle registers h for jobs of type t.
func (d *Dispatcher) Handle(t JobType, h JobHandler) *Dispatcher {
	d.handlers[t] = h
	return d
}

// Dispatch is a JobHandler that calls the handler registered for job.Type.
func (d *Dispatcher) Dispatch(ctx context.Context, job *Job) error {
	h, ok := d.handlers[job.Type]
	if !ok {
		return fmt.Errorf("Dispatch: no handler for job type %q", job.Type)
	}
	return h(ctx, job)
}
