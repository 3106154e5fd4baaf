// Package membership defines the membership provider contract consumed
// by the cycle, ledger and wallet services.
package membership

import (
	"context"

	"ajopot/internal/models"
	"ajopot/internal/storage"
)

// Provider answers role and identity questions about group members.
// This abstraction keeps the money-movement services independent of how
// membership is managed.
type Provider interface {
	// IsMember reports whether uid belongs to the group.
	IsMember(ctx context.Context, groupID, uid string) (bool, error)

	// IsOwner reports whether uid owns the group.
	IsOwner(ctx context.Context, groupID, uid string) (bool, error)

	// ResolveUser returns the user's profile, or a NotFound error.
	ResolveUser(ctx context.Context, uid string) (*models.User, error)
}

// StoreProvider implements Provider over the persistent store.
type StoreProvider struct {
	store storage.Store
}

var _ Provider = (*StoreProvider)(nil)

// NewStoreProvider creates a store-backed membership provider.
func NewStoreProvider(store storage.Store) *StoreProvider {
	return &StoreProvider{store: store}
}

// IsMember reports whether uid belongs to the group.
func (p *StoreProvider) IsMember(ctx context.Context, groupID, uid string) (bool, error) {
	return p.store.IsGroupMember(ctx, groupID, uid)
}

// IsOwner reports whether uid owns the group.
func (p *StoreProvider) IsOwner(ctx context.Context, groupID, uid string) (bool, error) {
	group, err := p.store.GetGroup(ctx, groupID)
	if err != nil {
		return false, err
	}
	return group.OwnerID == uid, nil
}

// ResolveUser returns the user's profile, or a NotFound error.
func (p *StoreProvider) ResolveUser(ctx context.Context, uid string) (*models.User, error) {
	return p.store.GetUserByID(ctx, uid)
}
