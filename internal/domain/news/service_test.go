package news_test

import (
	"context"
	"strings"
	"testing"

	"Ecotrack/internal/domain/news"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"
	"Ecotrack/internal/storage"

	"github.com/oklog/ulid/v2"
)

type fakeNewsRepository struct {
	posts    map[ulid.ULID]*news.Post
	deleteFn func(ctx context.Context, id ulid.ULID) error
}

func (f *fakeNewsRepository) Create(ctx context.Context, p *news.Post) error {
	cp := *p
	f.posts[p.Id] = &cp
	return nil
}

func (f *fakeNewsRepository) Update(ctx context.Context, p *news.Post) error {
	cp := *p
	f.posts[p.Id] = &cp
	return nil
}

func (f *fakeNewsRepository) Delete(ctx context.Context, id ulid.ULID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeNewsRepository) GetById(ctx context.Context, id ulid.ULID) (*news.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, appErrors.ErrNewsNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeNewsRepository) List(ctx context.Context, search string, pagination *pkg.PaginationParams) ([]*news.Post, int64, error) {
	return nil, 0, nil
}

type memoryAssets struct {
	files map[string]bool
	order []string
}

func (m *memoryAssets) Save(ctx context.Context, dir string, file storage.File) (string, error) {
	key := dir + "/" + file.Name
	m.files[key] = true
	m.order = append(m.order, "save:"+key)
	return key, nil
}

func (m *memoryAssets) Delete(ctx context.Context, path string) error {
	delete(m.files, path)
	m.order = append(m.order, "delete:"+path)
	return nil
}

func (m *memoryAssets) URL(path string) string { return "/storage/" + path }

func image(name string) *storage.File {
	body := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	return &storage.File{Name: name, ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func newService() (*news.Service, *fakeNewsRepository, *memoryAssets) {
	repo := &fakeNewsRepository{posts: make(map[ulid.ULID]*news.Post)}
	assets := &memoryAssets{files: make(map[string]bool)}
	return news.NewService(repo, assets), repo, assets
}

func TestDeleteRemovesImage(t *testing.T) {
	t.Parallel()

	svc, repo, assets := newService()
	post, err := svc.Create(context.Background(), pkg.GenerateULIDObject(), news.CreatePost{Title: "Hutan", Content: "Isi"}, image("a.png"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !assets.files["berita/a.png"] {
		t.Fatalf("expected image to be stored")
	}

	if err := svc.Delete(context.Background(), post.Id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if assets.files["berita/a.png"] {
		t.Fatalf("expected image to be removed with the post")
	}
	if _, ok := repo.posts[post.Id]; ok {
		t.Fatalf("expected post to be removed")
	}
}

func TestUpdateReplacesImageWithoutOrphans(t *testing.T) {
	t.Parallel()

	svc, _, assets := newService()
	post, err := svc.Create(context.Background(), pkg.GenerateULIDObject(), news.CreatePost{Title: "Hutan", Content: "Isi"}, image("old.png"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	title := "Hutan Lestari"
	updated, err := svc.Update(context.Background(), post.Id, news.UpdatePost{Title: &title}, image("new.png"))
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.ImagePath != "berita/new.png" || updated.Title != title {
		t.Fatalf("unexpected post %+v", updated)
	}
	if assets.files["berita/old.png"] || !assets.files["berita/new.png"] {
		t.Fatalf("unexpected stored files %v", assets.files)
	}
	last := assets.order[len(assets.order)-2:]
	if last[0] != "delete:berita/old.png" || last[1] != "save:berita/new.png" {
		t.Fatalf("old image must be deleted before the new one is stored, got %v", assets.order)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc, _, assets := newService()

	tests := []struct {
		name  string
		in    news.CreatePost
		image *storage.File
	}{
		{name: "missing title", in: news.CreatePost{Content: "x"}},
		{name: "missing content", in: news.CreatePost{Title: "x"}},
		{name: "invalid image", in: news.CreatePost{Title: "x", Content: "y"}, image: &storage.File{Name: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), pkg.GenerateULIDObject(), tt.in, tt.image)
			if !appErrors.HasCode(err, "VALIDATION_ERROR") {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(assets.files) != 0 {
		t.Fatalf("no asset should be stored on validation failure")
	}
}
