package contracts

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type NewsCreateRequest struct {
	Title       string     `form:"title" binding:"required,max=255"`
	Content     string     `form:"content" binding:"required"`
	PublishedAt *time.Time `form:"published_at" time_format:"2006-01-02"`
}

type NewsUpdateRequest struct {
	Title       *string    `form:"title" binding:"omitempty,min=1,max=255"`
	Content     *string    `form:"content" binding:"omitempty,min=1"`
	PublishedAt *time.Time `form:"published_at" time_format:"2006-01-02"`
}

type NewsResponse struct {
	Id          ulid.ULID `json:"id"`
	AuthorId    ulid.ULID `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
