package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"yatube/internal/models"
)

// CommentInput is the comment form on the post page.
type CommentInput struct {
	Text string `form:"text" validate:"notblank"`
}

type CommentService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db, now: time.Now}
}

// AddComment attaches a comment to an existing post. Blank text is rejected
// before anything is written.
func (s *CommentService) AddComment(ctx context.Context, postID, authorID uint, text string) (*models.Comment, error) {
	in := CommentInput{Text: strings.TrimSpace(text)}
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check post %d: %w", postID, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	c := &models.Comment{
		Text:      in.Text,
		CreatedAt: s.now(),
		AuthorID:  authorID,
		PostID:    postID,
	}
	if err := s.db.WithContext(ctx).Omit("Author", "Post").Create(c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := s.db.WithContext(ctx).First(&c.Author, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load comment author: %w", err)
	}
	return c, nil
}

// ListComments returns a post's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments of %d: %w", postID, err)
	}
	return comments, nil
}
