package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"mealplanner/models"
)

var (
	ErrNoCandidates   = errors.New("no recipes available")
	ErrNoUniqueRecipe = errors.New("cannot build a plan with unique recipes")
)

// MealCategories lists the recipe categories that may fill each meal type.
var MealCategories = map[string][]string{
	models.MealBreakfast: {models.CategoryDessert, models.CategoryStarter},
	models.MealLunch:     {models.CategoryMain},
	models.MealDinner:    {models.CategoryMain, models.CategoryStarter},
}

// ResolvedPreference is what the planner needs to know about a user.
type ResolvedPreference struct {
	Vegetarian bool
	Allergies  []string
}

// Allows reports whether r satisfies the vegetarian flag and contains no allergen.
func (p ResolvedPreference) Allows(r models.Recipe) bool {
	if p.Vegetarian && !r.Vegetarian {
		return false
	}
	_, found := p.Allergen(r)
	return !found
}

// Allergen returns the first allergy found as a substring of the recipe name or description.
func (p ResolvedPreference) Allergen(r models.Recipe) (string, bool) {
	name := strings.ToLower(r.Name)
	desc := strings.ToLower(r.Description)
	for _, a := range p.Allergies {
		needle := strings.ToLower(strings.TrimSpace(a))
		if needle == "" {
			continue
		}
		if strings.Contains(name, needle) || strings.Contains(desc, needle) {
			return a, true
		}
	}
	return "", false
}

// Pools holds candidate recipes per meal type.
type Pools map[string][]models.Recipe

// Partition buckets recipes by category; one recipe can land in several pools.
func Partition(recipes []models.Recipe) Pools {
	pools := make(Pools, len(models.MealTypes))
	for _, mt := range models.MealTypes {
		pools[mt] = nil
	}
	for _, r := range recipes {
		cat := strings.TrimSpace(r.Category)
		for _, mt := range models.MealTypes {
			for _, allowed := range MealCategories[mt] {
				if strings.EqualFold(cat, allowed) {
					pools[mt] = append(pools[mt], r)
					break
				}
			}
		}
	}
	return pools
}

// Check fails on the first empty pool, in meal order.
func (p Pools) Check() error {
	for _, mt := range models.MealTypes {
		if len(p[mt]) == 0 {
			return fmt.Errorf("%w for %s", ErrNoCandidates, mt)
		}
	}
	return nil
}

// Chooser picks an index in [0, n). *rand.Rand satisfies it.
type Chooser interface {
	IntN(n int) int
}

type defaultChooser struct{}

func (defaultChooser) IntN(n int) int { return rand.IntN(n) }

type Planner struct {
	rng Chooser
}

// NewPlanner uses rng for every random pick; nil means the auto-seeded global source.
func NewPlanner(rng Chooser) *Planner {
	if rng == nil {
		rng = defaultChooser{}
	}
	return &Planner{rng: rng}
}

// Build filters recipes for pref and assigns breakfast, lunch and dinner for
// every date in [start, end]. No recipe repeats within a day.
func (p *Planner) Build(pref ResolvedPreference, recipes []models.Recipe, start, end time.Time) (map[string]models.DayMeals, error) {
	compatible := make([]models.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if pref.Allows(r) {
			compatible = append(compatible, r)
		}
	}

	pools := Partition(compatible)
	if err := pools.Check(); err != nil {
		return nil, err
	}
	return p.Assign(pools, start, end)
}

func (p *Planner) Assign(pools Pools, start, end time.Time) (map[string]models.DayMeals, error) {
	days := make(map[string]models.DayMeals)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		var day models.DayMeals
		used := make(map[uint]struct{}, len(models.MealTypes))

		for _, mt := range models.MealTypes {
			r, ok := p.pickUnused(pools[mt], used)
			if !ok {
				return nil, fmt.Errorf("%w for %s", ErrNoUniqueRecipe, mt)
			}
			used[r.ID] = struct{}{}
			*day.ByType(mt) = models.SnapshotRecipe(r)
		}
		days[d.Format(models.DateLayout)] = day
	}
	return days, nil
}

func (p *Planner) pickUnused(pool []models.Recipe, used map[uint]struct{}) (models.Recipe, bool) {
	unused := make([]models.Recipe, 0, len(pool))
	for _, r := range pool {
		if _, taken := used[r.ID]; !taken {
			unused = append(unused, r)
		}
	}
	if len(unused) == 0 {
		return models.Recipe{}, false
	}
	return unused[p.rng.IntN(len(unused))], true
}

// ParsePlanRange validates YYYY-MM-DD bounds: both present, ordered, at most maxDays long.
func ParsePlanRange(startStr, endStr string, maxDays int) (time.Time, time.Time, error) {
	if strings.TrimSpace(startStr) == "" || strings.TrimSpace(endStr) == "" {
		return time.Time{}, time.Time{}, invalid("dates are required")
	}
	start, err := time.Parse(models.DateLayout, strings.TrimSpace(startStr))
	if err != nil {
		return time.Time{}, time.Time{}, invalid("invalid start_date %q, use YYYY-MM-DD", startStr)
	}
	end, err := time.Parse(models.DateLayout, strings.TrimSpace(endStr))
	if err != nil {
		return time.Time{}, time.Time{}, invalid("invalid end_date %q, use YYYY-MM-DD", endStr)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, invalid("end_date must be on or after start_date")
	}
	if n := DaysInRange(start, end); n > maxDays {
		return time.Time{}, time.Time{}, invalid("plan covers %d days, the maximum is %d", n, maxDays)
	}
	return start, end, nil
}

// DaysInRange counts calendar days in [start, end].
func DaysInRange(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
