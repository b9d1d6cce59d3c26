// Package fsm holds small helpers around github.com/looplab/fsm.
package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts a callback returning an error to fsm.Callback.
// A returned error is stored on the event and cancels the transition when
// used in a before_ callback.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Cancel(err)
		}
	}
}

// Fire triggers event on machine. Firing an event that leads back into the
// current state is not an error.
func Fire(ctx context.Context, machine *fsm.FSM, event string) error {
	err := machine.Event(ctx, event)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
