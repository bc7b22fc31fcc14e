package models

import "time"

// Meal types, in the order the planner fills a day.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
)

var MealTypes = []string{MealBreakfast, MealLunch, MealDinner}

// One scheduled meal: a recipe eaten by a user on a date.
type Meal struct {
	Model
	UserID   uint      `gorm:"index;not null" json:"-"`
	RecipeID uint      `gorm:"not null" json:"recipe_id"`
	Recipe   Recipe    `json:"recipe"`
	Date     time.Time `gorm:"type:date;index;not null" json:"date"`
	Type     string    `gorm:"size:20;not null" json:"meal_type"`
}
