package push

import "context"

// Dispatcher delivers one title/body/data payload to a set of device tokens.
// Delivery-level failures are handled by the implementation; only setup
// errors (a payload that cannot be sent at all) are returned.
type Dispatcher interface {
	Dispatch(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}
