package routes

import (
	"net/http"
	"time"

	"mealplanner/controllers"
	"mealplanner/middlewares"
	"mealplanner/services"
	"mealplanner/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the router wires into controllers.
type Deps struct {
	Tokens         *utils.TokenIssuer
	CORSOrigins    []string
	LoginRateLimit int // per minute per IP

	Auth          *services.AuthService
	Users         *services.UserService
	Preferences   *services.PreferenceService
	Recipes       *services.RecipeService
	Ingredients   *services.IngredientService
	Meals         *services.MealService
	Plans         *services.MealPlanService
	Shopping      *services.ShoppingListService
	Notifications *services.NotificationService
	Push          *services.PushService
	Hub           *services.RealtimeHub
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(), middlewares.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authC := controllers.NewAuthController(d.Auth, d.Users)
	userC := controllers.NewUserController(d.Users)
	prefC := controllers.NewPreferenceController(d.Preferences)
	recipeC := controllers.NewRecipeController(d.Recipes)
	ingC := controllers.NewIngredientController(d.Ingredients)
	mealC := controllers.NewMealController(d.Meals)
	planC := controllers.NewMealPlanController(d.Plans, d.Shopping)
	shopC := controllers.NewShoppingListController(d.Shopping)
	notifC := controllers.NewNotificationController(d.Notifications, d.Push)
	devC := controllers.NewDeviceController(d.Push)
	rtC := controllers.NewRealtimeController(d.Hub, d.CORSOrigins)

	// Public auth routes
	public := r.Group("/api")
	{
		public.POST("/register", authC.Register)
		public.POST("/login", middlewares.RateLimitByIP(d.LoginRateLimit, time.Minute), authC.Login)
		public.POST("/token/refresh", authC.Refresh)
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(d.Tokens, d.Users))
	{
		api.GET("/current-user", authC.CurrentUser)
		api.GET("/users/:id", userC.Get)
		api.PUT("/users/:id", userC.Update)
		api.DELETE("/users/:id", userC.Delete)

		api.GET("/preferences", prefC.Get)
		api.PUT("/preferences", prefC.Update)
		api.GET("/allergies", prefC.ListAllergies)

		api.GET("/recipes", recipeC.List)
		api.POST("/recipes", recipeC.Create)
		api.POST("/recipes/recognize", recipeC.Recognize)
		api.GET("/recipes/:id", recipeC.Get)
		api.PUT("/recipes/:id", recipeC.Update)
		api.PATCH("/recipes/:id", recipeC.Update)
		api.DELETE("/recipes/:id", recipeC.Delete)
		api.GET("/recipes/:id/ingredients", recipeC.Ingredients)
		api.POST("/recipes/:id/ingredients", recipeC.AddIngredient)

		api.GET("/ingredients", ingC.List)
		api.POST("/ingredients", ingC.Create)
		api.GET("/ingredients/:id", ingC.Get)
		api.PUT("/ingredients/:id", ingC.Update)
		api.DELETE("/ingredients/:id", ingC.Delete)
		api.POST("/ingredients/:id/adjust", ingC.Adjust)

		api.GET("/meals", mealC.List)
		api.POST("/meals", mealC.Create)
		api.GET("/meals/:id", mealC.Get)
		api.DELETE("/meals/:id", mealC.Delete)

		api.POST("/meal-plans/generate", planC.Generate)
		api.GET("/meal-plans", planC.List)
		api.GET("/meal-plans/:id", planC.Get)
		api.DELETE("/meal-plans/:id", planC.Delete)
		api.POST("/meal-plans/:id/shopping-list", planC.ShoppingList)
		api.GET("/meal-plans/:id/nutrition", planC.Nutrition)

		api.GET("/shopping-lists", shopC.List)
		api.POST("/shopping-lists", shopC.Create)
		api.GET("/shopping-lists/:id", shopC.Get)
		api.DELETE("/shopping-lists/:id", shopC.Delete)
		api.POST("/shopping-lists/:id/items", shopC.AddItem)
		api.POST("/shopping-lists/:id/send", shopC.Send)
		api.PUT("/shopping-items/:id", shopC.UpdateItem)
		api.DELETE("/shopping-items/:id", shopC.DeleteItem)

		api.GET("/notifications", notifC.List)
		api.POST("/notifications/toggle", notifC.Toggle)
		api.POST("/devices", devC.Register)
		api.GET("/ws/notifications", rtC.NotificationsWS)
	}

	return r
}
