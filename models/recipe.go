package models

// Recipe categories recognised by the planner.
const (
	CategoryStarter = "Starter"
	CategoryMain    = "Main Course"
	CategoryDessert = "Dessert"
)

type Recipe struct {
	Model
	Name         string             `gorm:"not null;index" json:"name"`
	Description  string             `gorm:"type:text" json:"description"`
	Instructions string             `gorm:"type:text" json:"instructions"`
	Vegetarian   bool               `json:"vegetarian"`
	Category     string             `gorm:"size:50;index" json:"category"`
	Image        string             `gorm:"type:text" json:"image,omitempty"` // URL or data URI
	CreatedByID  *uint              `json:"created_by,omitempty"`
	Ingredients  []RecipeIngredient `json:"-"`
}

// Ingredient nutrients are expressed for Quantity units (grams by default).
type Ingredient struct {
	Model
	Name     string  `gorm:"uniqueIndex;not null" json:"name"`
	Quantity float64 `gorm:"default:100" json:"quantity"`
	Unit     string  `gorm:"size:50;default:g" json:"unit"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// RecipeIngredient links an ingredient into a recipe with the amount used, in grams.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RecipeID     uint       `gorm:"index;not null" json:"recipe_id"`
	IngredientID uint       `gorm:"index;not null" json:"ingredient_id"`
	Ingredient   Ingredient `json:"ingredient"`
	Quantity     float64    `json:"quantity"`
}
