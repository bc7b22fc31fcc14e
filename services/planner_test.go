package services

import (
	"math/rand/v2"
	"testing"
	"time"

	"mealplanner/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipe(id uint, name, category string, vegetarian bool) models.Recipe {
	r := models.Recipe{Name: name, Category: category, Vegetarian: vegetarian}
	r.ID = id
	return r
}

func date(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestResolvedPreferenceAllows(t *testing.T) {
	steak := recipe(1, "Steak frites", models.CategoryMain, false)
	salad := recipe(2, "Greek salad", models.CategoryStarter, true)
	salad.Description = "Tomatoes, feta and olives"

	t.Run("vegetarian excludes meat", func(t *testing.T) {
		p := ResolvedPreference{Vegetarian: true}
		assert.False(t, p.Allows(steak))
		assert.True(t, p.Allows(salad))
	})

	t.Run("non-vegetarian keeps everything", func(t *testing.T) {
		p := ResolvedPreference{}
		assert.True(t, p.Allows(steak))
		assert.True(t, p.Allows(salad))
	})

	t.Run("allergy matches description case-insensitively", func(t *testing.T) {
		p := ResolvedPreference{Allergies: []string{"FETA"}}
		assert.False(t, p.Allows(salad))
		name, found := p.Allergen(salad)
		assert.True(t, found)
		assert.Equal(t, "FETA", name)
	})

	t.Run("allergy matches name substring", func(t *testing.T) {
		p := ResolvedPreference{Allergies: []string{"frit"}}
		assert.False(t, p.Allows(steak))
	})

	t.Run("blank allergy names are ignored", func(t *testing.T) {
		p := ResolvedPreference{Allergies: []string{"", "   "}}
		assert.True(t, p.Allows(steak))
		assert.True(t, p.Allows(salad))
	})
}

func TestPartition(t *testing.T) {
	recipes := []models.Recipe{
		recipe(1, "Soup", " starter ", true),
		recipe(2, "Curry", "MAIN COURSE", false),
		recipe(3, "Tart", models.CategoryDessert, true),
		recipe(4, "Smoothie", "Drink", true),
	}
	pools := Partition(recipes)

	ids := func(rs []models.Recipe) []uint {
		var out []uint
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	assert.Equal(t, []uint{1, 3}, ids(pools[models.MealBreakfast]))
	assert.Equal(t, []uint{2}, ids(pools[models.MealLunch]))
	assert.Equal(t, []uint{1, 2}, ids(pools[models.MealDinner]))
	require.NoError(t, pools.Check())
}

func TestPoolsCheckReportsFirstEmptyMeal(t *testing.T) {
	pools := Partition([]models.Recipe{recipe(1, "Curry", models.CategoryMain, false)})
	err := pools.Check()
	require.ErrorIs(t, err, ErrNoCandidates)
	assert.Equal(t, "no recipes available for breakfast", err.Error())
}

func TestPlannerBuild(t *testing.T) {
	recipes := []models.Recipe{
		recipe(1, "Tart", models.CategoryDessert, true),
		recipe(2, "Soup", models.CategoryStarter, true),
		recipe(3, "Curry", models.CategoryMain, true),
		recipe(4, "Steak", models.CategoryMain, false),
	}

	t.Run("deterministic with first chooser", func(t *testing.T) {
		days, err := NewPlanner(firstChooser{}).Build(ResolvedPreference{}, recipes, date("2025-03-01"), date("2025-03-02"))
		require.NoError(t, err)
		require.Len(t, days, 2)
		for _, d := range []string{"2025-03-01", "2025-03-02"} {
			day := days[d]
			assert.Equal(t, uint(1), day.Breakfast.ID)
			assert.Equal(t, uint(3), day.Lunch.ID)
			// dinner pool is Soup, Curry, Steak; Curry went to lunch so Soup is first unused
			assert.Equal(t, uint(2), day.Dinner.ID)
		}
	})

	t.Run("vegetarian filter applies before partitioning", func(t *testing.T) {
		days, err := NewPlanner(firstChooser{}).Build(ResolvedPreference{Vegetarian: true}, recipes, date("2025-03-01"), date("2025-03-01"))
		require.NoError(t, err)
		day := days["2025-03-01"]
		assert.Equal(t, uint(1), day.Breakfast.ID)
		assert.Equal(t, uint(3), day.Lunch.ID)
		assert.Equal(t, uint(2), day.Dinner.ID)
	})

	t.Run("earlier picks can starve a later meal", func(t *testing.T) {
		// Soup goes to breakfast and Curry to lunch, leaving dinner nothing vegetarian.
		_, err := NewPlanner(lastChooser{}).Build(ResolvedPreference{Vegetarian: true}, recipes, date("2025-03-01"), date("2025-03-01"))
		require.ErrorIs(t, err, ErrNoUniqueRecipe)
	})

	t.Run("no repeats within a day across seeds", func(t *testing.T) {
		for seed := uint64(0); seed < 50; seed++ {
			p := NewPlanner(rand.New(rand.NewPCG(seed, seed+1)))
			days, err := p.Build(ResolvedPreference{}, recipes, date("2025-01-01"), date("2025-01-07"))
			require.NoError(t, err)
			require.Len(t, days, 7)
			for d, day := range days {
				seen := map[uint]bool{}
				for _, mt := range models.MealTypes {
					id := day.ByType(mt).ID
					assert.False(t, seen[id], "recipe %d repeated on %s", id, d)
					seen[id] = true
				}
			}
		}
	})

	t.Run("exhausted pool fails", func(t *testing.T) {
		tight := []models.Recipe{
			recipe(1, "Soup", models.CategoryStarter, true),
			recipe(2, "Curry", models.CategoryMain, true),
		}
		_, err := NewPlanner(firstChooser{}).Build(ResolvedPreference{}, tight, date("2025-03-01"), date("2025-03-01"))
		require.ErrorIs(t, err, ErrNoUniqueRecipe)
		assert.Equal(t, "cannot build a plan with unique recipes for dinner", err.Error())
	})

	t.Run("allergies can empty a pool", func(t *testing.T) {
		_, err := NewPlanner(nil).Build(ResolvedPreference{Allergies: []string{"tart", "soup"}}, recipes, date("2025-03-01"), date("2025-03-01"))
		require.ErrorIs(t, err, ErrNoCandidates)
	})
}

func TestParsePlanRange(t *testing.T) {
	start, end, err := ParsePlanRange("2025-02-27", "2025-03-02", 31)
	require.NoError(t, err)
	assert.Equal(t, 4, DaysInRange(start, end))

	cases := map[string][2]string{
		"missing start": {"", "2025-03-01"},
		"missing end":   {"2025-03-01", " "},
		"bad format":    {"01/03/2025", "2025-03-02"},
		"reversed":      {"2025-03-02", "2025-03-01"},
		"too long":      {"2025-01-01", "2025-03-01"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParsePlanRange(tc[0], tc[1], 31)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, _, err = ParsePlanRange("", "", 31)
	assert.EqualError(t, err, "dates are required")
}
