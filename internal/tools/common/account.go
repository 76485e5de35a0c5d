package common

import (
	"context"
	"sync"
)

type accountKey struct{}

// accountSlot is filled by the handler once it knows which account the
// call runs against, and read by the instrumentation wrapper afterwards.
type accountSlot struct {
	mu      sync.Mutex
	account string
}

// WithAccountSlot returns a context that can carry the account of the
// current tool call.
func WithAccountSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, accountKey{}, &accountSlot{})
}

// SetAccount records the account of the current tool call. It is a no-op
// when ctx has no slot.
func SetAccount(ctx context.Context, account string) {
	if slot, ok := ctx.Value(accountKey{}).(*accountSlot); ok {
		slot.mu.Lock()
		slot.account = account
		slot.mu.Unlock()
	}
}

// AccountFromContext returns the account recorded by SetAccount, or "".
func AccountFromContext(ctx context.Context) string {
	slot, ok := ctx.Value(accountKey{}).(*accountSlot)
	if !ok {
		return ""
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.account
}
