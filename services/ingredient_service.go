package services

import (
	"context"
	"errors"
	"strings"

	"mealplanner/models"
	"mealplanner/utils"

	"gorm.io/gorm"
)

type IngredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// IngredientInput: nil fields are left unchanged on update and defaulted on create.
type IngredientInput struct {
	Name     *string  `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

func (in IngredientInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("name must not be blank")
	}
	if in.Quantity != nil && *in.Quantity <= 0 {
		return invalid("quantity must be positive")
	}
	for _, v := range []*float64{in.Calories, in.Protein, in.Carbs, in.Fat} {
		if v != nil && *v < 0 {
			return invalid("nutrient values must be non-negative")
		}
	}
	return nil
}

func (in IngredientInput) apply(ing *models.Ingredient) {
	if in.Name != nil {
		ing.Name = strings.TrimSpace(*in.Name)
	}
	if in.Quantity != nil {
		ing.Quantity = *in.Quantity
	}
	if in.Unit != nil && strings.TrimSpace(*in.Unit) != "" {
		ing.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Calories != nil {
		ing.Calories = *in.Calories
	}
	if in.Protein != nil {
		ing.Protein = *in.Protein
	}
	if in.Carbs != nil {
		ing.Carbs = *in.Carbs
	}
	if in.Fat != nil {
		ing.Fat = *in.Fat
	}
}

// IngredientList carries plain sums of the listed nutrient values.
type IngredientList struct {
	Ingredients     []models.Ingredient `json:"ingredients"`
	NutritionTotals utils.Totals        `json:"nutrition_totals"`
}

func NutrientsOf(ing models.Ingredient) utils.Totals {
	return utils.Totals{Calories: ing.Calories, Protein: ing.Protein, Carbs: ing.Carbs, Fat: ing.Fat}
}

func (s *IngredientService) List(ctx context.Context, search string) (*IngredientList, error) {
	q := s.db.WithContext(ctx).Order("name")
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var items []models.Ingredient
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	var totals utils.Totals
	for _, ing := range items {
		totals = totals.Add(NutrientsOf(ing))
	}
	return &IngredientList{Ingredients: items, NutritionTotals: totals.Rounded()}, nil
}

func (s *IngredientService) Get(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		return nil, dbErr(err, "ingredient")
	}
	return &ing, nil
}

func (s *IngredientService) Create(ctx context.Context, in IngredientInput) (*models.Ingredient, error) {
	if in.Name == nil {
		return nil, invalid("name is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	ing := models.Ingredient{Quantity: 100, Unit: "g"}
	in.apply(&ing)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ingredientNameFree(tx, 0, ing.Name); err != nil {
			return err
		}
		return tx.Create(&ing).Error
	})
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func (s *IngredientService) Update(ctx context.Context, id uint, in IngredientInput) (*models.Ingredient, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	ing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(ing)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ingredientNameFree(tx, ing.ID, ing.Name); err != nil {
			return err
		}
		return tx.Save(ing).Error
	})
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// Delete removes the ingredient together with its recipe links and shopping items.
func (s *IngredientService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.ShoppingItem{}).Error; err != nil {
			return err
		}
		// hard delete so the unique name can be reused
		return tx.Unscoped().Delete(&models.Ingredient{}, id).Error
	})
}

// Adjust rescales every nutrient to a new reference quantity.
func (s *IngredientService) Adjust(ctx context.Context, id uint, newQuantity float64) (*models.Ingredient, error) {
	if newQuantity <= 0 {
		return nil, invalid("new_quantity must be positive")
	}
	ing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ing.Quantity <= 0 {
		return nil, invalid("ingredient has no reference quantity to scale from")
	}

	scaled := NutrientsOf(*ing).Scale(newQuantity / ing.Quantity).Rounded()
	ing.Quantity = newQuantity
	ing.Calories = scaled.Calories
	ing.Protein = scaled.Protein
	ing.Carbs = scaled.Carbs
	ing.Fat = scaled.Fat

	if err := s.db.WithContext(ctx).Save(ing).Error; err != nil {
		return nil, err
	}
	return ing, nil
}

func ingredientNameFree(tx *gorm.DB, selfID uint, name string) error {
	var count int64
	if err := tx.Model(&models.Ingredient{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), selfID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflict("ingredient %q already exists", name)
	}
	return nil
}

// ingredientByName finds an ingredient case-insensitively or creates it from defaults.
func ingredientByName(tx *gorm.DB, name string, defaults models.Ingredient) (models.Ingredient, error) {
	name = strings.TrimSpace(name)
	var ing models.Ingredient
	err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&ing).Error
	if err == nil {
		return ing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ing, err
	}
	ing = defaults
	ing.Name = name
	if ing.Quantity <= 0 {
		ing.Quantity = 100
	}
	if ing.Unit == "" {
		ing.Unit = "g"
	}
	return ing, tx.Create(&ing).Error
}
