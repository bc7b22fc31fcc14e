package services

import (
	"context"
	"strings"

	"mealplanner/models"
	"mealplanner/utils"

	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// UserUpdate leaves empty fields untouched.
type UserUpdate struct {
	Username string `json:"username" binding:"omitempty,min=3,max=150"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, dbErr(err, "user")
	}
	return &user, nil
}

// GetAs returns user id when the actor is that same user.
func (s *UserService) GetAs(ctx context.Context, actorID, id uint) (*models.User, error) {
	if actorID != id {
		return nil, ErrForbidden
	}
	return s.Get(ctx, id)
}

func (s *UserService) Update(ctx context.Context, actorID, id uint, in UserUpdate) (*models.User, error) {
	if actorID != id {
		return nil, ErrForbidden
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, user.ID, username, email); err != nil {
			return err
		}
		if username != "" {
			user.Username = username
		}
		if email != "" {
			user.Email = email
		}
		if in.Password != "" {
			hashed, err := utils.HashPassword(in.Password)
			if err != nil {
				return err
			}
			user.Password = hashed
		}
		return tx.Save(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the account for good together with everything it owns, so
// the username and email can be registered again.
func (s *UserService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID != id {
		return ErrForbidden
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prefIDs := tx.Unscoped().Model(&models.Preference{}).Select("id").Where("user_id = ?", id)
		if err := tx.Exec("DELETE FROM preference_allergies WHERE preference_id IN (?)", prefIDs).Error; err != nil {
			return err
		}
		listIDs := tx.Unscoped().Model(&models.ShoppingList{}).Select("id").Where("user_id = ?", id)
		if err := tx.Unscoped().Where("shopping_list_id IN (?)", listIDs).Delete(&models.ShoppingItem{}).Error; err != nil {
			return err
		}
		for _, owned := range []any{
			&models.ShoppingList{}, &models.Preference{}, &models.Meal{},
			&models.MealPlan{}, &models.Notification{}, &models.UserDevice{},
		} {
			if err := tx.Unscoped().Where("user_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&models.User{}, id).Error
	})
}

// Exists reports whether the account behind a token is still there.
func (s *UserService) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
