package models

type User struct {
	Model
	Username   string      `gorm:"uniqueIndex;not null" json:"username"`
	Email      string      `gorm:"uniqueIndex;not null" json:"email"`
	Password   string      `gorm:"not null" json:"-"`
	Preference *Preference `json:"-"`
}

// Preference drives plan generation: the vegetarian flag and allergy names filter recipes.
type Preference struct {
	Model
	UserID      uint      `gorm:"uniqueIndex;not null" json:"-"`
	Vegetarian  bool      `json:"vegetarian"`
	Allergies   []Allergy `gorm:"many2many:preference_allergies;" json:"-"`
	CalorieGoal float64   `json:"calorie_goal"` // kcal per day
	ProteinGoal float64   `json:"protein_goal"` // g
	CarbsGoal   float64   `json:"carbs_goal"`   // g
	FatGoal     float64   `json:"fat_goal"`     // g
}

// AllergyNames flattens the loaded allergy association.
func (p *Preference) AllergyNames() []string {
	names := make([]string, 0, len(p.Allergies))
	for _, a := range p.Allergies {
		names = append(names, a.Name)
	}
	return names
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Allergy struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"uniqueIndex;not null" json:"name"`
	Description string   `gorm:"type:text" json:"description"`
	Severity    Severity `gorm:"size:10;default:low" json:"severity"`
}

// DefaultPreference is the row every new user starts with.
func DefaultPreference(userID uint) Preference {
	return Preference{
		UserID:      userID,
		CalorieGoal: 2000,
		ProteinGoal: 50,
		CarbsGoal:   250,
		FatGoal:     70,
	}
}
