package identity

import (
	"context"
	"time"

	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	Update(ctx context.Context, a *Admin) error
	GetById(ctx context.Context, id ulid.ULID) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}

type CitizenRepository interface {
	Create(ctx context.Context, c *Citizen) error
	Update(ctx context.Context, c *Citizen) error
	Delete(ctx context.Context, id ulid.ULID) error
	GetById(ctx context.Context, id ulid.ULID) (*Citizen, error)
	GetByEmail(ctx context.Context, email string) (*Citizen, error)
	List(ctx context.Context, search string, pagination *pkg.PaginationParams) ([]*Citizen, int64, error)
}

type TokenRepository interface {
	Create(ctx context.Context, t *AuthToken) error
	GetById(ctx context.Context, id ulid.ULID) (*AuthToken, error)
	Touch(ctx context.Context, id ulid.ULID, at time.Time) error
	DeleteByOwner(ctx context.Context, ownerId ulid.ULID, kind Role) error
}

// TokenSigner transforma um AuthToken persistido em bearer token.
type TokenSigner interface {
	Sign(token *AuthToken) (string, error)
}
