package services

import (
	"context"
	"errors"
	"strings"

	"mealplanner/logging"
	"mealplanner/models"

	"gorm.io/gorm"
)

type PreferenceService struct {
	db *gorm.DB
}

func NewPreferenceService(db *gorm.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// PreferenceUpdate: nil fields keep their stored value. A non-nil Allergies
// replaces the whole allergy set.
type PreferenceUpdate struct {
	Vegetarian  *bool
	Allergies   *[]string
	CalorieGoal *float64
	ProteinGoal *float64
	CarbsGoal   *float64
	FatGoal     *float64
}

// Resolve loads what plan generation needs. A user with no stored row
// resolves to non-vegetarian with no allergies.
func (s *PreferenceService) Resolve(ctx context.Context, userID uint) (ResolvedPreference, error) {
	var pref models.Preference
	err := s.db.WithContext(ctx).Preload("Allergies").Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Ctx(ctx).Debug().Uint("user_id", userID).Msg("no preferences stored, using defaults")
		return ResolvedPreference{Allergies: []string{}}, nil
	}
	if err != nil {
		return ResolvedPreference{}, err
	}
	return ResolvedPreference{Vegetarian: pref.Vegetarian, Allergies: pref.AllergyNames()}, nil
}

// Get returns the user's preferences, creating the default row on first use.
func (s *PreferenceService) Get(ctx context.Context, userID uint) (*models.Preference, error) {
	var pref models.Preference
	err := s.db.WithContext(ctx).
		Preload("Allergies").
		Where(models.Preference{UserID: userID}).
		Attrs(models.DefaultPreference(userID)).
		FirstOrCreate(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (s *PreferenceService) Update(ctx context.Context, userID uint, in PreferenceUpdate) (*models.Preference, error) {
	for _, g := range []*float64{in.CalorieGoal, in.ProteinGoal, in.CarbsGoal, in.FatGoal} {
		if g != nil && *g < 0 {
			return nil, invalid("goals must be non-negative")
		}
	}

	pref, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Vegetarian != nil {
			pref.Vegetarian = *in.Vegetarian
		}
		if in.CalorieGoal != nil {
			pref.CalorieGoal = *in.CalorieGoal
		}
		if in.ProteinGoal != nil {
			pref.ProteinGoal = *in.ProteinGoal
		}
		if in.CarbsGoal != nil {
			pref.CarbsGoal = *in.CarbsGoal
		}
		if in.FatGoal != nil {
			pref.FatGoal = *in.FatGoal
		}
		if err := tx.Omit("Allergies").Save(pref).Error; err != nil {
			return err
		}
		if in.Allergies == nil {
			return nil
		}

		allergies, err := allergiesByName(tx, *in.Allergies)
		if err != nil {
			return err
		}
		if err := tx.Model(pref).Association("Allergies").Replace(allergies); err != nil {
			return err
		}
		pref.Allergies = allergies
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pref, nil
}

func (s *PreferenceService) ListAllergies(ctx context.Context) ([]models.Allergy, error) {
	var out []models.Allergy
	err := s.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// allergiesByName get-or-creates each distinct, non-blank name.
func allergiesByName(tx *gorm.DB, names []string) ([]models.Allergy, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]models.Allergy, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		var a models.Allergy
		if err := tx.Where(models.Allergy{Name: name}).
			Attrs(models.Allergy{Severity: models.SeverityLow}).
			FirstOrCreate(&a).Error; err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
