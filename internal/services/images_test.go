package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageSaveAcceptsRasterFormats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for name, data := range map[string][]byte{
		".png": pngBytes,
		".gif": []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"),
	} {
		key, err := env.images.Save(ctx, &ImageUpload{Filename: "pic" + name, Reader: bytes.NewReader(data)})
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(key, "posts/"), key)
		assert.Equal(t, name, filepath.Ext(key))
	}
}

func TestImageSaveRejectsSVG(t *testing.T) {
	env := newTestEnv(t)
	svg := `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(document.cookie)</script></svg>`

	key, err := env.images.Save(context.Background(), &ImageUpload{Filename: "x.svg", Reader: strings.NewReader(svg)})
	ve, ok := AsValidation(err)
	require.True(t, ok, "got key=%q err=%v", key, err)
	assert.Equal(t, "image", ve.Field)
	assert.Empty(t, key)

	_, statErr := os.Stat(filepath.Join(env.store.BasePath(), "posts"))
	assert.True(t, os.IsNotExist(statErr), "nothing may be written for a rejected upload")
}

func TestImageSaveRejectsEmptyAndOversized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.images.Save(ctx, &ImageUpload{Filename: "empty.png", Reader: bytes.NewReader(nil)})
	_, ok := AsValidation(err)
	assert.True(t, ok, "got %v", err)

	big := append(append([]byte{}, pngBytes...), make([]byte, MaxImageSize)...)
	_, err = env.images.Save(ctx, &ImageUpload{Filename: "big.png", Reader: bytes.NewReader(big)})
	_, ok = AsValidation(err)
	assert.True(t, ok, "got %v", err)
}
