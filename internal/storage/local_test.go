package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base, "/media/")
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "posts/a.gif", strings.NewReader("GIF89a"), 6, "image/gif"))

	rc, err := s.Read(ctx, "posts/a.gif")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(body))
	assert.Equal(t, "/media/posts/a.gif", s.URL("posts/a.gif"))

	require.NoError(t, s.Delete(ctx, "posts/a.gif"))
	_, err = s.Read(ctx, "posts/a.gif")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, s.Delete(ctx, "posts/a.gif"))
}

func TestLocalStorageKeepsKeysInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(base, "media"), "/media")
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "../../escape.txt", strings.NewReader("x"), 1, ""))

	_, err = os.Stat(filepath.Join(base, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "media", "escape.txt"))
	assert.NoError(t, err)
}
