package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yatube/internal/logger"
	"yatube/internal/models"
)

type FollowService struct {
	db    *gorm.DB
	users *UserService
	now   func() time.Time
}

func NewFollowService(db *gorm.DB, users *UserService) *FollowService {
	return &FollowService{db: db, users: users, now: time.Now}
}

// Follow makes followerID follow the named author. Following yourself is a
// silent no-op (nil, false, nil). Following an author twice returns the
// existing edge with created=false; the unique index decides races.
func (s *FollowService) Follow(ctx context.Context, followerID uint, username string) (*models.Follow, bool, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if author.ID == followerID {
		return nil, false, nil
	}

	edge := &models.Follow{UserID: followerID, AuthorID: author.ID, CreatedAt: s.now()}
	res := s.db.WithContext(ctx).
		Omit("User", "Author").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(edge)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, false, fmt.Errorf("create follow: %w", res.Error)
	}
	if res.Error == nil && res.RowsAffected == 1 {
		l := logger.Ctx(ctx)
		l.Info().Uint("user_id", followerID).Uint("author_id", author.ID).Msg("followed")
		return edge, true, nil
	}

	var existing models.Follow
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", followerID, author.ID).
		First(&existing).Error
	if err != nil {
		return nil, false, fmt.Errorf("load follow: %w", err)
	}
	return &existing, false, nil
}

// Unfollow removes the edge if present and reports whether it existed.
func (s *FollowService) Unfollow(ctx context.Context, followerID uint, username string) (bool, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", followerID, author.ID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, fmt.Errorf("delete follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return n > 0, nil
}

// FeedFor lists posts by the authors userID follows at query time.
func (s *FollowService) FeedFor(ctx context.Context, userID uint, page int) (*Page[models.Post], error) {
	following := s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)
	query := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("posts.author_id IN (?)", following).
		Order(models.PostOrder)
	return listPosts(ctx, s.db, query, page)
}

// FollowCounts is shown on profile pages.
type FollowCounts struct {
	Followers int64
	Following int64
}

func (s *FollowService) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	var c FollowCounts
	db := s.db.WithContext(ctx).Model(&models.Follow{})
	if err := db.Session(&gorm.Session{}).Where("author_id = ?", userID).Count(&c.Followers).Error; err != nil {
		return c, fmt.Errorf("count followers: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("user_id = ?", userID).Count(&c.Following).Error; err != nil {
		return c, fmt.Errorf("count following: %w", err)
	}
	return c, nil
}
