package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/models"
	"yatube/internal/testutil"
)

func TestParsePageNumber(t *testing.T) {
	cases := map[string]int{
		"":    1,
		"abc": 1,
		"1.5": 1,
		"2":   2,
		" 3 ": 3,
		"0":   0,
		"-4":  -4,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParsePageNumber(raw), "raw=%q", raw)
	}
}

func TestListPageThirteenPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "leo")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, env.db, author, nil, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	first, err := env.posts.Index(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, int64(13), first.TotalItems)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, "post 12", first.Items[0].Text)
	assert.Equal(t, "leo", first.Items[0].Author.Username)

	second, err := env.posts.Index(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)
	assert.False(t, second.HasNext())
	assert.True(t, second.HasPrevious())
	assert.Equal(t, 1, second.PreviousNumber())
	assert.Equal(t, "post 0", second.Items[2].Text)
	assert.Equal(t, []int{1, 2}, second.Pages())
}

func TestListPageClampsOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "leo")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, env.db, author, nil, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	last, err := env.posts.Index(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, 2, last.Number)
	assert.Len(t, last.Items, 3)

	first, err := env.posts.Index(ctx, ParsePageNumber("abc"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)

	negative, err := env.posts.Index(ctx, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, negative.Number)
}

func TestListPageEmpty(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.posts.Index(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.TotalPages)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrevious())
}

func TestListPageTiesBreakOnID(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	older := testutil.CreatePost(t, env.db, author, nil, "first", base)
	newer := testutil.CreatePost(t, env.db, author, nil, "second", base)

	p, err := ListPage[models.Post](context.Background(), env.db.Model(&models.Post{}).Order(models.PostOrder), 1)
	require.NoError(t, err)
	require.Len(t, p.Items, 2)
	assert.Equal(t, newer.ID, p.Items[0].ID)
	assert.Equal(t, older.ID, p.Items[1].ID)
}
