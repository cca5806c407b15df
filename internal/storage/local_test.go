package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go-gin-helpdesk/config"
	apperrors "go-gin-helpdesk/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAttachmentStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - round trip", func(t *testing.T) {
		store, err := NewLocalAttachmentStore(filepath.Join(t.TempDir(), "uploads"))
		require.NoError(t, err)
		content := []byte("hello attachment")

		err = store.Save(ctx, "a.txt", bytes.NewReader(content), int64(len(content)), "text/plain")
		require.NoError(t, err)

		att, err := store.Open(ctx, "a.txt")
		require.NoError(t, err)
		defer att.Body.Close()
		got, err := io.ReadAll(att.Body)
		require.NoError(t, err)
		assert.Equal(t, content, got)
		assert.Equal(t, int64(len(content)), att.Size)
		assert.Contains(t, att.ContentType, "text/plain")
	})

	t.Run("Success - same name overwrites", func(t *testing.T) {
		store, err := NewLocalAttachmentStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, "a.txt", bytes.NewReader([]byte("first")), 5, ""))
		require.NoError(t, store.Save(ctx, "a.txt", bytes.NewReader([]byte("second")), 6, ""))

		att, err := store.Open(ctx, "a.txt")
		require.NoError(t, err)
		defer att.Body.Close()
		got, _ := io.ReadAll(att.Body)
		assert.Equal(t, "second", string(got))
	})

	t.Run("Success - unknown extension", func(t *testing.T) {
		store, err := NewLocalAttachmentStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, "blob.zzzunknown", bytes.NewReader([]byte{1, 2}), 2, ""))

		att, err := store.Open(ctx, "blob.zzzunknown")
		require.NoError(t, err)
		defer att.Body.Close()
		assert.Equal(t, "application/octet-stream", att.ContentType)
	})

	t.Run("Failed - NotFound", func(t *testing.T) {
		store, err := NewLocalAttachmentStore(t.TempDir())
		require.NoError(t, err)

		_, err = store.Open(ctx, "missing.txt")

		assert.ErrorIs(t, err, apperrors.ErrAttachmentNotFound)
	})

	t.Run("Failed - traversal is not served", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o600))
		store, err := NewLocalAttachmentStore(filepath.Join(dir, "uploads"))
		require.NoError(t, err)

		_, err = store.Open(ctx, "../secret.txt")

		assert.ErrorIs(t, err, apperrors.ErrAttachmentNotFound)
	})

	t.Run("Failed - unsanitized name rejected on save", func(t *testing.T) {
		store, err := NewLocalAttachmentStore(t.TempDir())
		require.NoError(t, err)

		err = store.Save(ctx, "../a.txt", bytes.NewReader(nil), 0, "")

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestNew(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		store, err := New(context.Background(), &config.StorageConfig{
			Driver:       config.StorageDriverLocal,
			UploadFolder: t.TempDir(),
		})

		require.NoError(t, err)
		assert.IsType(t, &LocalAttachmentStore{}, store)
	})

	t.Run("Failed - UnknownDriver", func(t *testing.T) {
		_, err := New(context.Background(), &config.StorageConfig{Driver: "ftp"})

		require.Error(t, err)
	})
}
