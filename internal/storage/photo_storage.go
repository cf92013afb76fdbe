package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

// filetype смотрит не дальше первых 261 байт.
const sniffLen = 261

var ErrUnsupportedImage = apperror.New(apperror.ErrCodeValidation, "допускаются только изображения JPEG, PNG, WebP или GIF")

var imageMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// StoredFile сохранённая фотография. Path относителен корня и пригоден для URL /media/<Path>.
type StoredFile struct {
	Path     string
	MimeType string
	Size     int64
}

// PhotoStorage хранит фото объявлений на диске: <root>/<product_id>/<uuid>.<ext>.
type PhotoStorage struct {
	root     string
	maxBytes int64
}

func NewPhotoStorage(root string, maxUploadMB int64) (*PhotoStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: каталог %s: %w", root, err)
	}
	return &PhotoStorage{root: root, maxBytes: maxUploadMB << 20}, nil
}

// DetectImage определяет тип по сигнатуре, расширение имени файла не учитывается.
func DetectImage(header []byte) (mime, ext string, err error) {
	kind, err := filetype.Match(header)
	if err != nil || !imageMIME[kind.MIME.Value] {
		return "", "", ErrUnsupportedImage
	}
	return kind.MIME.Value, kind.Extension, nil
}

// SaveImage пишет файл во временный и переименовывает только после всех проверок,
// так что недописанные или отклонённые загрузки не видны через /media.
func (s *PhotoStorage) SaveImage(ctx context.Context, productID uuid.UUID, r io.Reader) (_ *StoredFile, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(r, sniffLen)
	header, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("storage: чтение файла: %w", err)
	}
	mime, ext, err := DetectImage(header)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, productID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: каталог объявления: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("storage: временный файл: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	written, err := io.Copy(tmp, io.LimitReader(br, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("storage: запись файла: %w", err)
	}
	if written > s.maxBytes {
		return nil, apperror.Validation("размер файла превышает лимит %d МБ", s.maxBytes>>20)
	}
	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("storage: закрытие файла: %w", err)
	}

	name := uuid.NewString() + "." + ext
	if err = os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return nil, fmt.Errorf("storage: переименование файла: %w", err)
	}

	return &StoredFile{
		Path:     path.Join(productID.String(), name),
		MimeType: mime,
		Size:     written,
	}, nil
}

// Delete удаляет файл. Отсутствующий файл не ошибка, пути вне корня не затрагиваются.
func (s *PhotoStorage) Delete(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+relPath)))
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: удаление файла: %w", err)
	}
	return nil
}
