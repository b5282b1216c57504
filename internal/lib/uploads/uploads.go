// Package uploads сохраняет файлы, загруженные при регистрации
// медицинских работников: фото профиля и лицензию.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Store хранилище загруженных файлов.
type Store interface {
	// Save сохраняет содержимое в каталоге dir и возвращает путь, который пишется в профиль.
	Save(ctx context.Context, dir, filename string, r io.Reader) (string, error)
	// Remove удаляет ранее сохраненный файл.
	Remove(ctx context.Context, name string) error
}

// objectName строит уникальное имя, сохраняя расширение исходного файла.
func objectName(dir, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return path.Join(dir, uuid.NewString()+ext)
}

// FileStore хранит файлы на локальном диске под корневым каталогом.
type FileStore struct {
	root string
}

// NewFileStore создает FileStore с корнем root.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	const op = "uploads.FileStore.Save"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	name := objectName(dir, filename)
	full := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return name, nil
}

func (s *FileStore) Remove(_ context.Context, name string) error {
	const op = "uploads.FileStore.Remove"
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// BucketStore хранит файлы в бакете Google Cloud Storage.
type BucketStore struct {
	bucket *storage.BucketHandle
	name   string
}

// NewBucketStore создает клиент GCS. Учетные данные берутся из GOOGLE_APPLICATION_CREDENTIALS.
func NewBucketStore(ctx context.Context, bucket string) (*BucketStore, error) {
	const op = "uploads.NewBucketStore"
	clt, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &BucketStore{bucket: clt.Bucket(bucket), name: bucket}, nil
}

func (s *BucketStore) Save(ctx context.Context, dir, filename string, r io.Reader) (string, error) {
	const op = "uploads.BucketStore.Save"
	name := objectName(dir, filename)

	writer := s.bucket.Object(name).NewWriter(ctx)
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.name, name), nil
}

func (s *BucketStore) Remove(ctx context.Context, name string) error {
	const op = "uploads.BucketStore.Remove"
	name = strings.TrimPrefix(name, "gs://"+s.name+"/")
	err := s.bucket.Object(name).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
