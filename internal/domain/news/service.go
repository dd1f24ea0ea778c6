package news

import (
	"context"
	"strings"

	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/logger"
	"Ecotrack/internal/pkg"
	"Ecotrack/internal/storage"

	"github.com/oklog/ulid/v2"
)

const imageDir = "berita"

type Service struct {
	Repository Repository
	Assets     storage.AssetStore
}

func NewService(repo Repository, assets storage.AssetStore) *Service {
	return &Service{Repository: repo, Assets: assets}
}

func (s *Service) List(ctx context.Context, search string, pagination *pkg.PaginationParams) ([]*Post, int64, error) {
	return s.Repository.List(ctx, strings.TrimSpace(search), pagination)
}

func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Post, error) {
	return s.Repository.GetById(ctx, id)
}

func (s *Service) Create(ctx context.Context, authorID ulid.ULID, in CreatePost, image *storage.File) (*Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, appErrors.NewValidationError("title", "título é obrigatório")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, appErrors.NewValidationError("content", "conteúdo é obrigatório")
	}

	now := pkg.SetTimestamps()
	post := &Post{
		Id:          pkg.GenerateULIDObject(),
		AuthorId:    authorID,
		Title:       title,
		Content:     in.Content,
		PublishedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.PublishedAt != nil {
		post.PublishedAt = *in.PublishedAt
	}

	if image != nil {
		path, err := s.storeImage(ctx, *image)
		if err != nil {
			return nil, err
		}
		post.ImagePath = path
	}

	if err := s.Repository.Create(ctx, post); err != nil {
		if post.ImagePath != "" {
			s.discard(ctx, post.ImagePath)
		}
		return nil, err
	}
	return s.Repository.GetById(ctx, post.Id)
}

// Update substitui a imagem quando uma nova é enviada; a antiga é apagada antes do envio.
func (s *Service) Update(ctx context.Context, id ulid.ULID, in UpdatePost, image *storage.File) (*Post, error) {
	post, err := s.Repository.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, appErrors.NewValidationError("title", "título é obrigatório")
		}
		post.Title = title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, appErrors.NewValidationError("content", "conteúdo é obrigatório")
		}
		post.Content = *in.Content
	}
	if in.PublishedAt != nil {
		post.PublishedAt = *in.PublishedAt
	}

	if image != nil {
		if err := storage.ValidateImage(image); err != nil {
			return nil, appErrors.NewValidationError("image", err.Error())
		}
		if post.ImagePath != "" {
			if err := s.Assets.Delete(ctx, post.ImagePath); err != nil {
				return nil, appErrors.ErrInternalServer.WithError(err)
			}
			post.ImagePath = ""
		}
		path, err := s.storeImage(ctx, *image)
		if err != nil {
			return nil, err
		}
		post.ImagePath = path
	}

	post.UpdatedAt = pkg.SetTimestamps()
	if err := s.Repository.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	post, err := s.Repository.GetById(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repository.Delete(ctx, id); err != nil {
		return err
	}
	if post.ImagePath != "" {
		if err := s.Assets.Delete(ctx, post.ImagePath); err != nil {
			return appErrors.ErrInternalServer.WithError(err)
		}
	}
	return nil
}

func (s *Service) storeImage(ctx context.Context, image storage.File) (string, error) {
	if err := storage.ValidateImage(&image); err != nil {
		return "", appErrors.NewValidationError("image", err.Error())
	}
	path, err := s.Assets.Save(ctx, imageDir, image)
	if err != nil {
		return "", appErrors.ErrInternalServer.WithError(err)
	}
	return path, nil
}

func (s *Service) discard(ctx context.Context, path string) {
	if err := s.Assets.Delete(ctx, path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Falha ao remover imagem órfã")
	}
}
