package services

import (
	"context"
	"strings"

	"mealplanner/logging"
	"mealplanner/models"
	"mealplanner/utils"

	"gorm.io/gorm"
)

// ImageUploader stores a decoded image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, img *utils.DataURI, prefix string) (string, error)
}

// LabelDetector names what is visible in a photo.
type LabelDetector interface {
	DetectLabels(ctx context.Context, img *utils.DataURI) ([]string, error)
}

type RecipeService struct {
	db     *gorm.DB
	images ImageUploader
	labels LabelDetector
}

// NewRecipeService: images and labels may be nil. Without an uploader,
// images are kept as data URIs; without a detector, Recognize is unavailable.
func NewRecipeService(db *gorm.DB, images ImageUploader, labels LabelDetector) *RecipeService {
	return &RecipeService{db: db, images: images, labels: labels}
}

type RecipeInput struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Instructions *string `json:"instructions"`
	// bool, number, string or a one-element list
	Vegetarian  any                     `json:"vegetarian"`
	Category    *string                 `json:"category"`
	Image       *string                 `json:"image"`
	Ingredients []RecipeIngredientInput `json:"ingredients"`
}

// RecipeIngredientInput links an ingredient by name. Nutrient values (per 100 g)
// are only used when the ingredient does not exist yet.
type RecipeIngredientInput struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"gt=0"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories" binding:"gte=0"`
	Protein  float64 `json:"protein" binding:"gte=0"`
	Carbs    float64 `json:"carbs" binding:"gte=0"`
	Fat      float64 `json:"fat" binding:"gte=0"`
}

type RecipeQuery struct {
	Search     string
	Category   string
	Vegetarian *bool
}

type RecipeIngredientView struct {
	ID           uint         `json:"id"`
	IngredientID uint         `json:"ingredient_id"`
	Name         string       `json:"name"`
	Quantity     float64      `json:"quantity"`
	Unit         string       `json:"unit"`
	Nutrition    utils.Totals `json:"nutrition"`
}

type RecipeIngredients struct {
	Ingredients     []RecipeIngredientView `json:"ingredients"`
	NutritionTotals utils.Totals           `json:"nutrition_totals"`
}

type RecognitionResult struct {
	Labels  []string        `json:"labels"`
	Recipes []models.Recipe `json:"recipes"`
}

// CanonicalCategory maps a case variant of a known category onto its canonical
// spelling; unknown categories are kept as given.
func CanonicalCategory(c string) string {
	c = strings.TrimSpace(c)
	for _, known := range []string{models.CategoryStarter, models.CategoryMain, models.CategoryDessert} {
		if strings.EqualFold(c, known) {
			return known
		}
	}
	return c
}

func (s *RecipeService) List(ctx context.Context, q RecipeQuery) ([]models.Recipe, error) {
	tx := s.db.WithContext(ctx).Order("id")
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		like := "%" + term + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if c := strings.TrimSpace(q.Category); c != "" {
		tx = tx.Where("LOWER(category) = ?", strings.ToLower(c))
	}
	if q.Vegetarian != nil {
		tx = tx.Where("vegetarian = ?", *q.Vegetarian)
	}
	var out []models.Recipe
	err := tx.Find(&out).Error
	return out, err
}

func (s *RecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var r models.Recipe
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, dbErr(err, "recipe")
	}
	return &r, nil
}

func (s *RecipeService) Create(ctx context.Context, userID uint, in RecipeInput) (*models.Recipe, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name is required")
	}
	if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return nil, invalid("category is required")
	}

	r := models.Recipe{CreatedByID: &userID}
	if err := s.apply(ctx, &r, in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Ingredients").Create(&r).Error; err != nil {
			return err
		}
		for _, ri := range in.Ingredients {
			if _, err := linkIngredient(tx, r.ID, ri); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Uint("recipe_id", r.ID).Str("category", r.Category).Msg("recipe created")
	return &r, nil
}

// Update applies only the fields present in in.
func (s *RecipeService) Update(ctx context.Context, id uint, in RecipeInput) (*models.Recipe, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, invalid("name must not be blank")
	}
	if err := s.apply(ctx, r, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Omit("Ingredients").Save(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RecipeService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
}

func (s *RecipeService) apply(ctx context.Context, r *models.Recipe, in RecipeInput) error {
	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.Instructions != nil {
		r.Instructions = *in.Instructions
	}
	if in.Vegetarian != nil {
		r.Vegetarian = utils.ParseFlexibleBool(in.Vegetarian)
	}
	if in.Category != nil {
		r.Category = CanonicalCategory(*in.Category)
	}
	if in.Image != nil {
		img, err := s.storeImage(ctx, *in.Image)
		if err != nil {
			return err
		}
		r.Image = img
	}
	return nil
}

// storeImage accepts "", an existing http(s) URL, or a data URI.
func (s *RecipeService) storeImage(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, nil
	}
	img, err := utils.ParseDataURI(raw)
	if err != nil {
		return "", invalid("%v", err)
	}
	if s.images == nil {
		return img.String(), nil
	}
	url, err := s.images.Upload(ctx, img, "recipes")
	if err != nil {
		return "", err
	}
	return url, nil
}

func (s *RecipeService) Ingredients(ctx context.Context, recipeID uint) (*RecipeIngredients, error) {
	if _, err := s.Get(ctx, recipeID); err != nil {
		return nil, err
	}
	var links []models.RecipeIngredient
	if err := s.db.WithContext(ctx).Preload("Ingredient").
		Where("recipe_id = ?", recipeID).Order("id").Find(&links).Error; err != nil {
		return nil, err
	}

	out := &RecipeIngredients{Ingredients: make([]RecipeIngredientView, 0, len(links))}
	var totals utils.Totals
	for _, l := range links {
		n := utils.Per100g(NutrientsOf(l.Ingredient), l.Quantity)
		totals = totals.Add(n)
		out.Ingredients = append(out.Ingredients, RecipeIngredientView{
			ID:           l.ID,
			IngredientID: l.IngredientID,
			Name:         l.Ingredient.Name,
			Quantity:     l.Quantity,
			Unit:         l.Ingredient.Unit,
			Nutrition:    n.Rounded(),
		})
	}
	out.NutritionTotals = totals.Rounded()
	return out, nil
}

func (s *RecipeService) AddIngredient(ctx context.Context, recipeID uint, in RecipeIngredientInput) (*models.RecipeIngredient, error) {
	if _, err := s.Get(ctx, recipeID); err != nil {
		return nil, err
	}
	var link *models.RecipeIngredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		link, err = linkIngredient(tx, recipeID, in)
		return err
	})
	return link, err
}

func linkIngredient(tx *gorm.DB, recipeID uint, in RecipeIngredientInput) (*models.RecipeIngredient, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("ingredient name is required")
	}
	if in.Quantity <= 0 {
		return nil, invalid("ingredient quantity must be positive")
	}
	if in.Calories < 0 || in.Protein < 0 || in.Carbs < 0 || in.Fat < 0 {
		return nil, invalid("nutrient values must be non-negative")
	}

	ing, err := ingredientByName(tx, in.Name, models.Ingredient{
		Unit:     in.Unit,
		Calories: in.Calories,
		Protein:  in.Protein,
		Carbs:    in.Carbs,
		Fat:      in.Fat,
	})
	if err != nil {
		return nil, err
	}
	link := &models.RecipeIngredient{RecipeID: recipeID, IngredientID: ing.ID, Quantity: in.Quantity}
	if err := tx.Omit("Ingredient").Create(link).Error; err != nil {
		return nil, err
	}
	link.Ingredient = ing
	return link, nil
}

// Recognize finds recipes whose name mentions any label detected in the photo.
func (s *RecipeService) Recognize(ctx context.Context, dataURI string) (*RecognitionResult, error) {
	if s.labels == nil {
		return nil, &kindError{kind: ErrUnavailable, msg: "image recognition is not configured"}
	}
	img, err := utils.ParseDataURI(strings.TrimSpace(dataURI))
	if err != nil {
		return nil, invalid("%v", err)
	}
	labels, err := s.labels.DetectLabels(ctx, img)
	if err != nil {
		return nil, err
	}

	res := &RecognitionResult{Labels: labels, Recipes: []models.Recipe{}}
	if len(labels) == 0 {
		return res, nil
	}
	tx := s.db.WithContext(ctx).Order("id")
	cond := s.db.Where("1 = 0")
	for _, l := range labels {
		cond = cond.Or("LOWER(name) LIKE ?", "%"+strings.ToLower(l)+"%")
	}
	if err := tx.Where(cond).Find(&res.Recipes).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// recipeNutrition sums per-recipe nutrients for ids in one query.
func recipeNutrition(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]utils.Totals, error) {
	out := make(map[uint]utils.Totals, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var links []models.RecipeIngredient
	if err := db.WithContext(ctx).Preload("Ingredient").Where("recipe_id IN ?", ids).Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.RecipeID] = out[l.RecipeID].Add(utils.Per100g(NutrientsOf(l.Ingredient), l.Quantity))
	}
	return out, nil
}
