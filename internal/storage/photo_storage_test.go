package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

// pngHeader минимальная сигнатура PNG.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

func TestDetectImage(t *testing.T) {
	mime, ext, err := DetectImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "png", ext)

	_, _, err = DetectImage([]byte("%PDF-1.4 not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestPhotoStorage_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewPhotoStorage(root, 1)
	require.NoError(t, err)

	productID := uuid.New()
	stored, err := s.SaveImage(context.Background(), productID, bytes.NewReader(append(pngHeader, make([]byte, 512)...)))
	require.NoError(t, err)

	assert.Equal(t, "image/png", stored.MimeType)
	assert.Equal(t, int64(len(pngHeader)+512), stored.Size)
	_, err = os.Stat(filepath.Join(root, stored.Path))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), stored.Path))
	_, err = os.Stat(filepath.Join(root, stored.Path))
	assert.True(t, os.IsNotExist(err))
}

func TestPhotoStorage_RejectsOversizedFile(t *testing.T) {
	s, err := NewPhotoStorage(t.TempDir(), 1)
	require.NoError(t, err)

	payload := append(append([]byte{}, pngHeader...), make([]byte, 2*1024*1024)...)
	_, err = s.SaveImage(context.Background(), uuid.New(), bytes.NewReader(payload))
	assert.True(t, apperror.IsValidation(err))
}

func TestPhotoStorage_RejectedUploadLeavesNoFiles(t *testing.T) {
	root := t.TempDir()
	s, err := NewPhotoStorage(root, 1)
	require.NoError(t, err)
	productID := uuid.New()

	payload := append(append([]byte{}, pngHeader...), make([]byte, 2*1024*1024)...)
	_, err = s.SaveImage(context.Background(), productID, bytes.NewReader(payload))
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, productID.String()))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPhotoStorage_DeleteStaysInsideRoot(t *testing.T) {
	parent := t.TempDir()
	outside := filepath.Join(parent, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	s, err := NewPhotoStorage(filepath.Join(parent, "media"), 1)
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "../keep.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
