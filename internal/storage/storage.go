package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"Ecotrack/config"

	"github.com/google/uuid"
)

// File é um upload recebido pela API, ainda não persistido.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AssetStore guarda arquivos públicos (imagens de notícias, fotos de perfil).
// O banco armazena apenas o caminho relativo devolvido por Save.
type AssetStore interface {
	Save(ctx context.Context, dir string, file File) (string, error)
	Delete(ctx context.Context, assetPath string) error
	URL(assetPath string) string
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

const (
	MaxImageSize = 2 << 20
	sniffLen     = 512
)

// ValidateImage confere tamanho e tipo do upload antes de qualquer escrita.
// O tipo declarado precisa bater com o detectado nos primeiros bytes do arquivo;
// os bytes lidos voltam para Body.
func ValidateImage(f *File) error {
	if f.Size > MaxImageSize {
		return fmt.Errorf("arquivo excede o limite de %d bytes", MaxImageSize)
	}
	if _, ok := allowedImageTypes[f.ContentType]; !ok {
		return fmt.Errorf("tipo de arquivo não suportado: %s", f.ContentType)
	}
	if f.Body == nil {
		return errors.New("arquivo vazio")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f.Body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("ler arquivo: %w", err)
	}
	head = head[:n]
	if detected := http.DetectContentType(head); detected != f.ContentType {
		return fmt.Errorf("conteúdo do arquivo (%s) não corresponde a %s", detected, f.ContentType)
	}
	f.Body = io.MultiReader(bytes.NewReader(head), f.Body)
	return nil
}

// objectKey deriva a extensão do tipo do arquivo, nunca do nome enviado pelo cliente.
func objectKey(dir string, f File) (string, error) {
	ext, ok := allowedImageTypes[f.ContentType]
	if !ok {
		return "", fmt.Errorf("tipo de arquivo não suportado: %s", f.ContentType)
	}
	return path.Join(strings.Trim(dir, "/"), uuid.NewString()+ext), nil
}

func New(ctx context.Context, cfg *config.Config) (AssetStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3Store(ctx, cfg.Storage)
	default:
		return NewLocalStore(cfg.Storage.LocalDir, cfg.App.PublicBaseURL+cfg.Storage.PublicPath)
	}
}
