// Package notify delivers pin events to external systems after the planner
// has committed them.
package notify

import (
	"context"
	"errors"

	"studycal/internal/model"
)

// Notifier receives committed pin events.
type Notifier interface {
	Notify(ctx context.Context, ev model.PinEvent) error
}

// Multi fans an event out to every notifier. All notifiers are called even
// when one fails; the failures are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev model.PinEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, model.PinEvent) error { return nil }
