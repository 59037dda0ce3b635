package session

import "context"

type holderContextKey struct{}

// ContextWithHolder stores the holder in context.
func ContextWithHolder(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, holderContextKey{}, h)
}

// FromContext extracts the holder from context.
func FromContext(ctx context.Context) *Holder {
	h, _ := ctx.Value(holderContextKey{}).(*Holder)
	return h
}
