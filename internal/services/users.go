package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yatube/internal/models"
	"yatube/internal/utils"
)

// SignupInput is the registration form.
type SignupInput struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"notblank,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	Password  string `form:"password" validate:"min=8,max=72"`
}

// PasswordChangeInput is the password change form.
type PasswordChangeInput struct {
	OldPassword  string `form:"old_password" validate:"required"`
	NewPassword  string `form:"new_password1" validate:"min=8,max=72"`
	NewPassword2 string `form:"new_password2" validate:"eqfield=NewPassword"`
}

type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  hash,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		// lost a race with a concurrent signup
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword replaces the user's password after checking the current
// one. A wrong current password is a *ValidationError on old_password.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, in PasswordChangeInput) error {
	if err := validateStruct(&in); err != nil {
		return err
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(in.OldPassword, user.Password) {
		return &ValidationError{Field: "old_password", Message: "Ваш старый пароль введён неправильно."}
	}

	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user %q: %w", username, err)
	}
	return &user, nil
}

// GoogleProfile is the part of Google's userinfo response sign-in needs.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// LoginWithGoogle finds the account linked to the Google id, links an
// existing account with the same email, or registers a new one named
// after the email's local part.
func (s *UserService) LoginWithGoogle(ctx context.Context, p GoogleProfile) (*models.User, error) {
	if p.ID == "" {
		return nil, ErrInvalidCredentials
	}
	if !p.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("google_id = ?", p.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load google user: %w", err)
	}

	if p.Email != "" {
		err = s.db.WithContext(ctx).Where("email = ?", p.Email).First(&user).Error
		if err == nil {
			if err := s.db.WithContext(ctx).Model(&user).Update("google_id", p.ID).Error; err != nil {
				return nil, fmt.Errorf("link google account: %w", err)
			}
			user.GoogleID = p.ID
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load user by email: %w", err)
		}
	}

	username, err := s.freeUsername(ctx, strings.SplitN(p.Email, "@", 2)[0])
	if err != nil {
		return nil, err
	}
	// the account signs in through Google; nobody knows this password
	hash, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	created := &models.User{
		Username:  username,
		Email:     p.Email,
		FirstName: p.GivenName,
		LastName:  p.FamilyName,
		Password:  hash,
		GoogleID:  p.ID,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	return created, nil
}

// freeUsername derives an unused username from base, appending a number
// when base is taken.
func (s *UserService) freeUsername(ctx context.Context, base string) (string, error) {
	base = strings.Map(func(r rune) rune {
		if usernameRegex.MatchString(string(r)) {
			return r
		}
		return -1
	}, base)
	if base == "" {
		base = "user"
	}
	if r := []rune(base); len(r) > 140 {
		base = string(r[:140])
	}

	for i := 1; i <= 50; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", candidate).Count(&n).Error; err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return base + "-" + uuid.NewString()[:8], nil
}
