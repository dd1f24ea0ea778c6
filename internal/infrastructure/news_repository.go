package infrastructure

import (
	"context"
	"errors"
	"strings"
	"time"

	"Ecotrack/internal/domain/news"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

type NewsRepository struct {
	DB *gorm.DB
}

type newsDB struct {
	Id          string `gorm:"type:varchar(26);primaryKey"`
	AuthorId    string `gorm:"type:varchar(26);index;not null"`
	Title       string `gorm:"not null"`
	Content     string `gorm:"type:text;not null"`
	ImagePath   string
	PublishedAt time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (newsDB) TableName() string { return "berita" }

// newsRow é a leitura com o nome do autor vindo de admins.
type newsRow struct {
	newsDB
	AuthorName string
}

func toDomainPost(row *newsRow) (*news.Post, error) {
	id, err := pkg.ParseULID(row.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	author, err := pkg.ParseULID(row.AuthorId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &news.Post{
		Id:          id,
		AuthorId:    author,
		AuthorName:  row.AuthorName,
		Title:       row.Title,
		Content:     row.Content,
		ImagePath:   row.ImagePath,
		PublishedAt: row.PublishedAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func toDBPost(p *news.Post) *newsDB {
	return &newsDB{
		Id:          p.Id.String(),
		AuthorId:    p.AuthorId.String(),
		Title:       p.Title,
		Content:     p.Content,
		ImagePath:   p.ImagePath,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *NewsRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Table("berita").
		Select("berita.*, admins.name AS author_name").
		Joins("LEFT JOIN admins ON admins.id = berita.author_id")
}

func (r *NewsRepository) Create(ctx context.Context, p *news.Post) error {
	if err := r.DB.WithContext(ctx).Create(toDBPost(p)).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *NewsRepository) Update(ctx context.Context, p *news.Post) error {
	result := r.DB.WithContext(ctx).Table("berita").Where("id = ?", p.Id.String()).Updates(map[string]interface{}{
		"title":        p.Title,
		"content":      p.Content,
		"image_path":   p.ImagePath,
		"published_at": p.PublishedAt,
		"updated_at":   p.UpdatedAt,
	})
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrNewsNotFound
	}
	return nil
}

func (r *NewsRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result := r.DB.WithContext(ctx).Where("id = ?", id.String()).Delete(&newsDB{})
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrNewsNotFound
	}
	return nil
}

func (r *NewsRepository) GetById(ctx context.Context, id ulid.ULID) (*news.Post, error) {
	var row newsRow
	if err := r.withAuthor(ctx).Where("berita.id = ?", id.String()).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrNewsNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainPost(&row)
}

func (r *NewsRepository) List(ctx context.Context, search string, pagination *pkg.PaginationParams) ([]*news.Post, int64, error) {
	query := r.withAuthor(ctx)
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(berita.title) LIKE ? OR LOWER(berita.content) LIKE ?", like, like)
	}

	out, total, err := pkg.Paginate[news.Post, newsRow](query, pagination, "berita.published_at DESC, berita.created_at DESC", toDomainPost)
	if err != nil {
		if _, ok := appErrors.AsAppError(err); ok {
			return nil, 0, err
		}
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return out, total, nil
}
