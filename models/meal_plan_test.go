package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRecipe(t *testing.T) {
	r := Recipe{Name: "Soup", Description: "Hot", Instructions: "Boil", Category: CategoryStarter}
	r.ID = 9

	snap := SnapshotRecipe(r)
	assert.Equal(t, uint(9), snap.ID)
	assert.Nil(t, snap.Image)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"name":"Soup","description":"Hot","instructions":"Boil","category":"Starter","image":null}`, string(raw))

	r.Image = "https://cdn.example.com/soup.jpg"
	snap = SnapshotRecipe(r)
	require.NotNil(t, snap.Image)
	assert.Equal(t, r.Image, *snap.Image)
}

func TestParsePlanDocument(t *testing.T) {
	t.Run("current shape", func(t *testing.T) {
		raw := `{"metadata":{"user_id":3,"generated_at":"2025-03-01T09:00:00Z","period":{"start":"2025-03-01","end":"2025-03-01","days":1}},
			"days":{"2025-03-01":{"breakfast":{"id":1,"name":"Tart"},"lunch":{"id":2,"name":"Curry"},"dinner":{"id":3,"name":"Soup"}}}}`
		doc, err := ParsePlanDocument([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, uint(3), doc.Metadata.UserID)
		assert.Equal(t, 1, doc.Metadata.Period.Days)
		assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), doc.Metadata.GeneratedAt)
		assert.Equal(t, "Curry", doc.Days["2025-03-01"].Lunch.Name)
	})

	t.Run("legacy bare day map is wrapped", func(t *testing.T) {
		raw := `{"2025-03-01":{"breakfast":{"id":1},"lunch":{"id":2},"dinner":{"id":3}},"2025-03-02":{"breakfast":{"id":4},"lunch":{"id":5},"dinner":{"id":6}}}`
		doc, err := ParsePlanDocument([]byte(raw))
		require.NoError(t, err)
		require.Len(t, doc.Days, 2)
		assert.Equal(t, uint(6), doc.Days["2025-03-02"].Dinner.ID)
	})

	for name, raw := range map[string]string{
		"not an object":   `[1,2]`,
		"missing days":    `{"metadata":{}}`,
		"days not object": `{"days":[]}`,
		"null days":       `{"days":null}`,
		"broken json":     `{"days":`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlanDocument([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidPlanDocument)
		})
	}
}

func TestPlanDocumentValueScan(t *testing.T) {
	doc := PlanDocument{
		Metadata: PlanMetadata{UserID: 1, Period: PlanPeriod{Start: "2025-03-01", End: "2025-03-01", Days: 1}},
		Days: map[string]DayMeals{
			"2025-03-01": {Breakfast: PlannedRecipe{ID: 1}, Lunch: PlannedRecipe{ID: 2}, Dinner: PlannedRecipe{ID: 3}},
		},
	}
	v, err := doc.Value()
	require.NoError(t, err)

	var back PlanDocument
	require.NoError(t, back.Scan([]byte(v.(string))))
	assert.Equal(t, doc.Days, back.Days)

	var empty PlanDocument
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty.Days)
	assert.ErrorIs(t, empty.Scan(42), ErrInvalidPlanDocument)
}

func TestDayMealsByType(t *testing.T) {
	var d DayMeals
	for i, mt := range MealTypes {
		d.ByType(mt).ID = uint(i + 1)
	}
	assert.Equal(t, uint(1), d.Breakfast.ID)
	assert.Equal(t, uint(3), d.Dinner.ID)
	assert.Nil(t, d.ByType("brunch"))
}
