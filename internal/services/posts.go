package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"yatube/internal/logger"
	"yatube/internal/models"
)

// PostInput is the create/edit post form.
type PostInput struct {
	Text    string `form:"text" validate:"notblank"`
	GroupID *uint  `form:"group"`
	Image   *ImageUpload
}

var postPreloads = []string{"Author", "Group"}

type PostService struct {
	db     *gorm.DB
	images *ImageService
	now    func() time.Time
}

func NewPostService(db *gorm.DB, images *ImageService) *PostService {
	return &PostService{db: db, images: images, now: time.Now}
}

func (s *PostService) posts(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Post{}).Order(models.PostOrder)
}

// Index lists every post, newest first.
func (s *PostService) Index(ctx context.Context, page int) (*Page[models.Post], error) {
	return listPosts(ctx, s.db, s.posts(ctx), page)
}

// Latest returns the newest posts without paging, for feeds.
func (s *PostService) Latest(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.posts(ctx).Preload("Author").Preload("Group").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("latest posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) GroupPosts(ctx context.Context, slug string, page int) (*models.Group, *Page[models.Post], error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("load group %q: %w", slug, err)
	}
	p, err := listPosts(ctx, s.db, s.posts(ctx).Where("posts.group_id = ?", group.ID), page)
	if err != nil {
		return nil, nil, err
	}
	return &group, p, nil
}

func (s *PostService) ProfilePosts(ctx context.Context, username string, page int) (*models.User, *Page[models.Post], error) {
	var author models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("load author %q: %w", username, err)
	}
	p, err := listPosts(ctx, s.db, s.posts(ctx).Where("posts.author_id = ?", author.ID), page)
	if err != nil {
		return nil, nil, err
	}
	return &author, p, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load post %d: %w", id, err)
	}
	return &post, nil
}

func (s *PostService) AuthorPostCount(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count posts of %d: %w", authorID, err)
	}
	return n, nil
}

func (s *PostService) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("title ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// CreatePost stores a new post. created_at is stamped here and never
// written again.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, in PostInput) (*models.Post, error) {
	if err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:      in.Text,
		CreatedAt: s.now(),
		AuthorID:  authorID,
		GroupID:   in.GroupID,
	}
	if in.Image != nil {
		key, err := s.images.Save(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		s.images.Delete(ctx, post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}

	l := logger.Ctx(ctx)
	l.Info().Uint("post_id", post.ID).Uint("author_id", authorID).Msg("post created")
	return post, nil
}

// UpdatePost changes text, group and optionally the image. Only the author
// may edit; author and created_at are left untouched.
func (s *PostService) UpdatePost(ctx context.Context, postID, editorID uint, in PostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != editorID {
		return nil, ErrForbidden
	}
	if err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}

	oldImage := post.Image
	updates := map[string]any{
		"text":     in.Text,
		"group_id": in.GroupID,
	}
	if in.Image != nil {
		key, err := s.images.Save(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		updates["image"] = key
	}

	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
		if key, ok := updates["image"].(string); ok {
			s.images.Delete(ctx, key)
		}
		return nil, fmt.Errorf("update post %d: %w", post.ID, err)
	}
	if _, replaced := updates["image"]; replaced {
		s.images.Delete(ctx, oldImage)
	}
	return s.GetPost(ctx, post.ID)
}

// DeletePost removes the post and its comments in one transaction, then
// drops the stored image.
func (s *PostService) DeletePost(ctx context.Context, postID, editorID uint) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != editorID {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", post.ID, err)
	}

	s.images.Delete(ctx, post.Image)
	l := logger.Ctx(ctx)
	l.Info().Uint("post_id", post.ID).Msg("post deleted")
	return nil
}

func (s *PostService) checkInput(ctx context.Context, in *PostInput) error {
	in.Text = strings.TrimSpace(in.Text)
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.GroupID == nil {
		return nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", *in.GroupID).Count(&n).Error; err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	if n == 0 {
		return &ValidationError{Field: "group", Message: "Выберите существующую группу."}
	}
	return nil
}

// listPosts pages a post query and fills comment counts for the window.
func listPosts(ctx context.Context, db *gorm.DB, query *gorm.DB, page int) (*Page[models.Post], error) {
	p, err := ListPage[models.Post](ctx, query, page, postPreloads...)
	if err != nil {
		return nil, err
	}
	if len(p.Items) == 0 {
		return p, nil
	}

	ids := make([]uint, len(p.Items))
	for i, post := range p.Items {
		ids[i] = post.ID
	}
	var rows []struct {
		PostID uint
		Count  int
	}
	err = db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	counts := make(map[uint]int, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.Count
	}
	for i := range p.Items {
		p.Items[i].CommentCount = counts[p.Items[i].ID]
	}
	return p, nil
}
