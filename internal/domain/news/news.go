package news

import (
	"context"
	"time"

	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Post struct {
	Id          ulid.ULID
	AuthorId    ulid.ULID
	AuthorName  string
	Title       string
	Content     string
	ImagePath   string
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreatePost struct {
	Title       string
	Content     string
	PublishedAt *time.Time
}

type UpdatePost struct {
	Title       *string
	Content     *string
	PublishedAt *time.Time
}

type Repository interface {
	Create(ctx context.Context, p *Post) error
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id ulid.ULID) error
	GetById(ctx context.Context, id ulid.ULID) (*Post, error)
	List(ctx context.Context, search string, pagination *pkg.PaginationParams) ([]*Post, int64, error)
}
