package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

const DateLayout = "2006-01-02"

// MealPlan persists one generated plan as a JSON document.
type MealPlan struct {
	Model
	UserID    uint         `gorm:"index;not null" json:"user_id"`
	StartDate time.Time    `gorm:"type:date;not null" json:"start_date"`
	EndDate   time.Time    `gorm:"type:date;not null" json:"end_date"`
	Data      PlanDocument `gorm:"type:jsonb;not null" json:"plan"`
}

type PlanDocument struct {
	Metadata PlanMetadata        `json:"metadata"`
	Days     map[string]DayMeals `json:"days"`
}

type PlanMetadata struct {
	UserID      uint       `json:"user_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Period      PlanPeriod `json:"period"`
}

type PlanPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

type DayMeals struct {
	Breakfast PlannedRecipe `json:"breakfast"`
	Lunch     PlannedRecipe `json:"lunch"`
	Dinner    PlannedRecipe `json:"dinner"`
}

// ByType returns the slot for breakfast, lunch or dinner.
func (d *DayMeals) ByType(mealType string) *PlannedRecipe {
	switch mealType {
	case MealBreakfast:
		return &d.Breakfast
	case MealLunch:
		return &d.Lunch
	case MealDinner:
		return &d.Dinner
	}
	return nil
}

// PlannedRecipe is a snapshot of the recipe at generation time.
type PlannedRecipe struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Instructions string  `json:"instructions"`
	Category     string  `json:"category"`
	Image        *string `json:"image"`
}

func SnapshotRecipe(r Recipe) PlannedRecipe {
	p := PlannedRecipe{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Instructions: r.Instructions,
		Category:     r.Category,
	}
	if r.Image != "" {
		img := r.Image
		p.Image = &img
	}
	return p
}

var ErrInvalidPlanDocument = errors.New("invalid plan document")

// ParsePlanDocument decodes a stored document. Legacy rows hold the bare
// date->meals map; those are wrapped under "days".
func ParsePlanDocument(raw []byte) (PlanDocument, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return PlanDocument{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidPlanDocument)
	}

	var doc PlanDocument
	if _, ok := top["days"]; ok {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return PlanDocument{}, fmt.Errorf("%w: %v", ErrInvalidPlanDocument, err)
		}
		if doc.Days == nil {
			return PlanDocument{}, fmt.Errorf("%w: days must be an object", ErrInvalidPlanDocument)
		}
		return doc, nil
	}

	doc.Days = make(map[string]DayMeals, len(top))
	for key, value := range top {
		if _, err := time.Parse(DateLayout, key); err != nil {
			return PlanDocument{}, fmt.Errorf("%w: missing days key", ErrInvalidPlanDocument)
		}
		var day DayMeals
		if err := json.Unmarshal(value, &day); err != nil {
			return PlanDocument{}, fmt.Errorf("%w: day %s: %v", ErrInvalidPlanDocument, key, err)
		}
		doc.Days[key] = day
	}
	return doc, nil
}

func (d PlanDocument) Value() (driver.Value, error) {
	if d.Days == nil {
		d.Days = map[string]DayMeals{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *PlanDocument) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*d = PlanDocument{Days: map[string]DayMeals{}}
		return nil
	default:
		return fmt.Errorf("%w: unsupported column type %T", ErrInvalidPlanDocument, src)
	}
	doc, err := ParsePlanDocument(raw)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}
