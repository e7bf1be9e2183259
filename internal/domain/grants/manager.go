package grants

import (
	"context"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

// SelfPrincipal is the grantee entry recording that the ledger itself may
// feed a handle back into homomorphic computation.
const SelfPrincipal = "ledger:self"

type Manager struct {
	repo Repository
}

func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo}
}

func (m *Manager) GrantSelfAccess(ctx context.Context, handle fhe.Handle) error {
	if err := m.repo.EnsureHandle(ctx, handle); err != nil {
		return err
	}
	return m.repo.AddGrantee(ctx, handle, SelfPrincipal)
}

func (m *Manager) GrantAccess(ctx context.Context, handle fhe.Handle, principal string) error {
	if err := m.repo.EnsureHandle(ctx, handle); err != nil {
		return err
	}
	return m.repo.AddGrantee(ctx, handle, principal)
}

func (m *Manager) GrantPublicDisclosure(ctx context.Context, handle fhe.Handle) error {
	if err := m.repo.EnsureHandle(ctx, handle); err != nil {
		return err
	}
	return m.repo.SetPublic(ctx, handle)
}

// IsDisclosable reports whether the given principal may request disclosure
// of the handle: either the handle is publicly disclosable or the principal
// is in its grantee set. An unknown handle is a programming error upstream
// and surfaces as ErrUnknownHandle.
func (m *Manager) IsDisclosable(ctx context.Context, handle fhe.Handle, principal string) (bool, error) {
	grant, err := m.repo.Get(ctx, handle)
	if err != nil {
		return false, err
	}
	if grant.Public {
		return true, nil
	}
	for _, g := range grant.Grantees {
		if g == principal {
			return true, nil
		}
	}
	return false, nil
}
