package grants

import (
	"context"
	"errors"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

var ErrUnknownHandle = errors.New("unknown_handle")

// Entity is the per-handle grant record. Grants are additive: the public
// flag and the grantee set only ever grow.
type Entity struct {
	Handle    fhe.Handle
	Public    bool
	Grantees  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	// EnsureHandle creates the grant row if absent. Idempotent.
	EnsureHandle(ctx context.Context, handle fhe.Handle) error
	// AddGrantee adds a principal to the grantee set. Idempotent.
	AddGrantee(ctx context.Context, handle fhe.Handle, principal string) error
	// SetPublic marks the handle publicly disclosable. Idempotent, monotonic.
	SetPublic(ctx context.Context, handle fhe.Handle) error
	Get(ctx context.Context, handle fhe.Handle) (*Entity, error)
}
