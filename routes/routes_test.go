package routes

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mealplanner/config"
	"mealplanner/middlewares"
	"mealplanner/services"
	"mealplanner/utils"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, middlewares.RegisterValidators())

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tokens := utils.NewTokenIssuer("route-test-secret", time.Hour, 24*time.Hour)
	hub := services.NewRealtimeHub()
	push := services.NewPushService(db, nil, "")
	notifications := services.NewNotificationService(db, hub, push)
	prefs := services.NewPreferenceService(db)
	planner := services.NewPlanner(rand.New(rand.NewPCG(7, 11)))

	return SetupRouter(Deps{
		Tokens:         tokens,
		LoginRateLimit: 100,
		Auth:           services.NewAuthService(db, tokens),
		Users:          services.NewUserService(db),
		Preferences:    prefs,
		Recipes:        services.NewRecipeService(db, nil, nil),
		Ingredients:    services.NewIngredientService(db),
		Meals:          services.NewMealService(db),
		Plans:          services.NewMealPlanService(db, prefs, planner, notifications, 31),
		Shopping:       services.NewShoppingListService(db, nil),
		Notifications:  notifications,
		Push:           push,
		Hub:            hub,
	})
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

func signUp(t *testing.T, r http.Handler, username string) loginResponse {
	t.Helper()
	w := call(t, r, http.MethodPost, "/api/register", "", gin.H{
		"username": username, "email": username + "@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, r, http.MethodPost, "/api/login", "", gin.H{"username": username, "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[loginResponse](t, w)
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "alice")
	assert.Equal(t, "alice@example.com", alice.User.Email)

	w := call(t, r, http.MethodPost, "/api/register", "", gin.H{
		"username": "alice", "email": "x@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, r, http.MethodPost, "/api/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = call(t, r, http.MethodPost, "/api/login", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodGet, "/api/current-user", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, me, "password")

	w = call(t, r, http.MethodPost, "/api/token/refresh", "", gin.H{"refresh": alice.Refresh})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[map[string]string](t, w)["access"])

	w = call(t, r, http.MethodGet, "/api/current-user", alice.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh tokens cannot call the API")

	bob := signUp(t, r, "bob")
	id := int(me["id"].(float64))
	w = call(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d", id), bob.Access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = call(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d", id), alice.Access, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = call(t, r, http.MethodGet, "/api/users/abc", alice.Access, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletedAccount(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "alice")
	me := decode[map[string]any](t, call(t, r, http.MethodGet, "/api/current-user", alice.Access, nil))
	path := fmt.Sprintf("/api/users/%d", int(me["id"].(float64)))

	require.Equal(t, http.StatusNoContent, call(t, r, http.MethodDelete, path, alice.Access, nil).Code)

	w := call(t, r, http.MethodPost, "/api/meal-plans/generate", alice.Access, gin.H{"start_date": "2025-03-01", "end_date": "2025-03-01"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, r, http.MethodGet, "/api/current-user", alice.Access, nil).Code)

	again := signUp(t, r, "alice")
	assert.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/current-user", again.Access, nil).Code)
}

func TestPreferencesEndpoint(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "alice")

	w := call(t, r, http.MethodGet, "/api/preferences", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"vegetarian":false,"allergies":[],"calorie_goal":2000,"protein_goal":50,"carbs_goal":250,"fat_goal":70}`, w.Body.String())

	w = call(t, r, http.MethodPut, "/api/preferences", alice.Access, gin.H{"vegetarian": "yes", "allergies": "peanut, shellfish"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[map[string]any](t, w)
	assert.Equal(t, true, got["vegetarian"])
	assert.ElementsMatch(t, []any{"peanut", "shellfish"}, got["allergies"])

	w = call(t, r, http.MethodPut, "/api/preferences", alice.Access, gin.H{"allergies": []string{"milk"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"milk"}, decode[map[string]any](t, w)["allergies"])

	w = call(t, r, http.MethodPut, "/api/preferences", alice.Access, gin.H{"allergies": 12})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodGet, "/api/allergies", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 3)
}

func createRecipe(t *testing.T, r http.Handler, token, name, category string, vegetarian any) uint {
	t.Helper()
	w := call(t, r, http.MethodPost, "/api/recipes", token, gin.H{
		"name": name, "category": category, "vegetarian": vegetarian, "description": name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode[map[string]any](t, w)["id"].(float64))
}

func TestMealPlanFlow(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "alice")

	w := call(t, r, http.MethodPost, "/api/meal-plans/generate", alice.Access, gin.H{"start_date": "2025-03-01", "end_date": "2025-03-03"})
	assert.Equal(t, http.StatusNotFound, w.Code, "no recipes yet")
	assert.Contains(t, w.Body.String(), "no recipes available for breakfast")

	tart := createRecipe(t, r, alice.Access, "Apple tart", "Dessert", true)
	createRecipe(t, r, alice.Access, "Leek soup", "starter", "1")
	createRecipe(t, r, alice.Access, "Bean chili", "Main Course", []any{"true"})
	createRecipe(t, r, alice.Access, "Roast lamb", "Main Course", false)

	w = call(t, r, http.MethodPost, fmt.Sprintf("/api/recipes/%d/ingredients", tart), alice.Access,
		gin.H{"name": "Apple", "quantity": 200, "calories": 52, "carbs": 14})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for name, body := range map[string]any{
		"missing":  gin.H{},
		"empty":    nil,
		"bad":      gin.H{"start_date": "03/01/2025", "end_date": "2025-03-02"},
		"reversed": gin.H{"start_date": "2025-03-05", "end_date": "2025-03-01"},
		"too long": gin.H{"start_date": "2025-01-01", "end_date": "2025-03-01"},
	} {
		w = call(t, r, http.MethodPost, "/api/meal-plans/generate", alice.Access, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
	w = call(t, r, http.MethodPost, "/api/meal-plans/generate", alice.Access, nil)
	assert.Contains(t, w.Body.String(), "dates are required")

	w = call(t, r, http.MethodPost, "/api/meal-plans/generate", alice.Access, gin.H{"start_date": "2025-03-01", "end_date": "2025-03-03"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	type meal struct {
		ID    uint    `json:"id"`
		Name  string  `json:"name"`
		Image *string `json:"image"`
	}
	type generated struct {
		ID   uint `json:"id"`
		Plan struct {
			Metadata struct {
				UserID uint `json:"user_id"`
				Period struct {
					Start string `json:"start"`
					End   string `json:"end"`
					Days  int    `json:"days"`
				} `json:"period"`
			} `json:"metadata"`
			Days map[string]map[string]meal `json:"days"`
		} `json:"plan"`
	}
	plan := decode[generated](t, w)
	assert.Equal(t, 3, plan.Plan.Metadata.Period.Days)
	assert.Equal(t, "2025-03-01", plan.Plan.Metadata.Period.Start)
	require.Len(t, plan.Plan.Days, 3)
	for date, day := range plan.Plan.Days {
		require.Len(t, day, 3, date)
		assert.NotEqual(t, day["breakfast"].ID, day["dinner"].ID)
		assert.NotEqual(t, day["lunch"].ID, day["dinner"].ID)
	}

	w = call(t, r, http.MethodGet, "/api/meal-plans", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	planPath := fmt.Sprintf("/api/meal-plans/%d", plan.ID)
	bob := signUp(t, r, "bob")
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodGet, planPath, bob.Access, nil).Code)

	w = call(t, r, http.MethodGet, planPath+"/nutrition", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[map[string]any](t, w)["days"], 3)

	w = call(t, r, http.MethodPost, planPath+"/shopping-list", alice.Access, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, r, http.MethodGet, "/api/notifications", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := decode[[]map[string]any](t, w)
	require.Len(t, notes, 1)
	assert.Equal(t, services.NotificationPlanGenerated, notes[0]["type"])

	assert.Equal(t, http.StatusNoContent, call(t, r, http.MethodDelete, planPath, alice.Access, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, r, http.MethodGet, planPath, alice.Access, nil).Code)
}

func TestVegetarianUserCannotGetMeat(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "alice")
	createRecipe(t, r, alice.Access, "Fruit salad", "Dessert", true)
	createRecipe(t, r, alice.Access, "Roast lamb", "Main Course", false)
	createRecipe(t, r, alice.Access, "Lamb soup", "Starter", false)

	w := call(t, r, http.MethodPut, "/api/preferences", alice.Access, gin.H{"vegetarian": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodPost, "/api/meal-plans/generate", alice.Access, gin.H{"start_date": "2025-03-01", "end_date": "2025-03-01"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "lunch")
}

func TestUniqueRecipeExhaustion(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "alice")
	createRecipe(t, r, alice.Access, "Soup", "Starter", true)
	createRecipe(t, r, alice.Access, "Stew", "Main Course", true)

	w := call(t, r, http.MethodPost, "/api/meal-plans/generate", alice.Access, gin.H{"start_date": "2025-03-01", "end_date": "2025-03-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot build a plan with unique recipes for dinner")
}

func TestCatalogueEndpoints(t *testing.T) {
	r := newTestRouter(t)
	alice := signUp(t, r, "alice")

	w := call(t, r, http.MethodPost, "/api/ingredients", alice.Access, gin.H{"name": "Rice", "calories": 130, "carbs": 28})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(decode[map[string]any](t, w)["id"].(float64))

	w = call(t, r, http.MethodPost, fmt.Sprintf("/api/ingredients/%d/adjust", id), alice.Access, gin.H{"new_quantity": 50})
	require.Equal(t, http.StatusOK, w.Code)
	ing := decode[map[string]any](t, w)["ingredient"].(map[string]any)
	assert.Equal(t, 65.0, ing["calories"])
	assert.Equal(t, 14.0, ing["carbs"])

	w = call(t, r, http.MethodPost, fmt.Sprintf("/api/ingredients/%d/adjust", id), alice.Access, gin.H{"new_quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	recipe := createRecipe(t, r, alice.Access, "Rice pudding", "Dessert", true)
	w = call(t, r, http.MethodGet, "/api/recipes?search=pudding&vegetarian=true", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = call(t, r, http.MethodPatch, fmt.Sprintf("/api/recipes/%d", recipe), alice.Access, gin.H{"image": "data:image/png;base64,!!!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodPost, "/api/recipes/recognize", alice.Access, gin.H{"image_base64": "data:image/png;base64,aGk="})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = call(t, r, http.MethodPost, "/api/meals", alice.Access, gin.H{"recipe_id": recipe, "date": "2025-03-01", "meal_type": "brunch"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = call(t, r, http.MethodPost, "/api/meals", alice.Access, gin.H{"recipe_id": recipe, "date": "2025-03-01", "meal_type": "dinner"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = call(t, r, http.MethodGet, "/api/meals?from=2025-03-01&to=2025-03-01", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = call(t, r, http.MethodPost, "/api/shopping-lists", alice.Access, gin.H{"name": "Week", "items": []gin.H{{"name": "Rice", "quantity": 2, "unit": "kg"}}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	list := decode[map[string]any](t, w)
	w = call(t, r, http.MethodPost, fmt.Sprintf("/api/shopping-lists/%d/send", int(list["id"].(float64))), alice.Access, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsAndHealth(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, r, http.MethodGet, "/api/recipes", "", nil).Code)

	w := call(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mealplanner_http_requests_total")
}
