package services

import (
	"context"
	"errors"
	"strings"

	"mealplanner/models"
	"mealplanner/utils"

	"gorm.io/gorm"
)

type AuthService struct {
	db     *gorm.DB
	tokens *utils.TokenIssuer
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginResult struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    *models.User `json:"user"`
}

// Register creates the user together with an empty preference row.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, invalid("username, email and password are required")
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, Password: hashed}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, 0, username, email); err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		pref := models.DefaultPreference(user.ID)
		return tx.Create(&pref).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, invalid("username and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrUnauthorized
	}

	access, refresh, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Access: access, Refresh: refresh, User: &user}, nil
}

// Refresh trades a refresh token for a new access token; the user must still exist.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, utils.TokenRefresh)
	if err != nil {
		return "", ErrUnauthorized
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	return s.tokens.IssueAccess(user.ID, user.Username)
}

// ensureUnique rejects a username or email held by a user other than selfID.
func ensureUnique(tx *gorm.DB, selfID uint, username, email string) error {
	var count int64
	if username != "" {
		if err := tx.Unscoped().Model(&models.User{}).Where("username = ? AND id <> ?", username, selfID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("username already taken")
		}
	}
	if email != "" {
		if err := tx.Unscoped().Model(&models.User{}).Where("email = ? AND id <> ?", email, selfID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("email already registered")
		}
	}
	return nil
}
