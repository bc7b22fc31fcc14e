package services

import (
	"context"
	"time"

	"mealplanner/models"

	"gorm.io/gorm"
)

type MealService struct {
	db *gorm.DB
}

func NewMealService(db *gorm.DB) *MealService {
	return &MealService{db: db}
}

type MealRequest struct {
	RecipeID uint   `json:"recipe_id" binding:"required"`
	Date     string `json:"date" binding:"required,isodate"`
	MealType string `json:"meal_type" binding:"required,mealtype"`
}

func (s *MealService) AddMeal(ctx context.Context, userID uint, req MealRequest) (*models.Meal, error) {
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, invalid("invalid date %q, use YYYY-MM-DD", req.Date)
	}
	if !isMealType(req.MealType) {
		return nil, invalid("meal_type must be breakfast, lunch or dinner")
	}
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, req.RecipeID).Error; err != nil {
		return nil, dbErr(err, "recipe")
	}

	meal := &models.Meal{UserID: userID, RecipeID: recipe.ID, Date: date, Type: req.MealType}
	if err := s.db.WithContext(ctx).Omit("Recipe").Create(meal).Error; err != nil {
		return nil, err
	}
	meal.Recipe = recipe
	return meal, nil
}

// ListMeals returns the user's meals ordered by date; zero bounds are open.
func (s *MealService) ListMeals(ctx context.Context, userID uint, from, to time.Time) ([]models.Meal, error) {
	q := s.db.WithContext(ctx).Preload("Recipe").Where("user_id = ?", userID)
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", to)
	}
	var meals []models.Meal
	err := q.Order("date ASC, id ASC").Find(&meals).Error
	return meals, err
}

func (s *MealService) GetMeal(ctx context.Context, userID, id uint) (*models.Meal, error) {
	var meal models.Meal
	err := s.db.WithContext(ctx).Preload("Recipe").
		Where("id = ? AND user_id = ?", id, userID).
		First(&meal).Error
	if err != nil {
		return nil, dbErr(err, "meal")
	}
	return &meal, nil
}

func (s *MealService) DeleteMeal(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Meal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return dbErr(gorm.ErrRecordNotFound, "meal")
	}
	return nil
}

func isMealType(t string) bool {
	for _, mt := range models.MealTypes {
		if t == mt {
			return true
		}
	}
	return false
}
