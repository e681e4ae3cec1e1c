package alert

import "context"

// Alerter notifies the operator about background failures.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// Nop discards alerts. It is used when no operator channel is configured.
type Nop struct{}

func (Nop) Alert(context.Context, string) error { return nil }
