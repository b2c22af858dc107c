package service

import (
	"context"
	"strings"
)

type ownerKey struct{}

// WithOwner returns a context acting on behalf of owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, strings.TrimSpace(owner))
}

// OwnerFrom returns the acting owner, if one is set.
func OwnerFrom(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

func requireOwner(ctx context.Context) (string, error) {
	owner, ok := OwnerFrom(ctx)
	if !ok {
		return "", ErrUnauthorized
	}
	return owner, nil
}
