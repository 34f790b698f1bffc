package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"yatube/internal/storage"
	"yatube/internal/testutil"
)

type testEnv struct {
	db       *gorm.DB
	store    *storage.LocalStorage
	users    *UserService
	posts    *PostService
	follows  *FollowService
	comments *CommentService
	images   *ImageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testutil.NewDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	users := NewUserService(gdb)
	images := NewImageService(store)
	return &testEnv{
		db:       gdb,
		store:    store,
		users:    users,
		posts:    NewPostService(gdb, images),
		follows:  NewFollowService(gdb, users),
		comments: NewCommentService(gdb),
		images:   images,
	}
}

// base is a fixed UTC instant so listing order never depends on wall time.
var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
