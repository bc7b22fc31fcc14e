package models

type ShoppingList struct {
	Model
	UserID uint           `gorm:"index;not null" json:"-"`
	Name   string         `json:"name"`
	PlanID *uint          `json:"plan_id,omitempty"`
	Items  []ShoppingItem `json:"items"`
}

type ShoppingItem struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ShoppingListID uint       `gorm:"index;not null" json:"shopping_list_id"`
	IngredientID   uint       `gorm:"not null" json:"ingredient_id"`
	Ingredient     Ingredient `json:"ingredient"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `gorm:"size:50" json:"unit"`
}
