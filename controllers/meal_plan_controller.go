package controllers

import (
	"errors"
	"io"
	"net/http"

	"mealplanner/services"

	"github.com/gin-gonic/gin"
)

type MealPlanController struct {
	Plans    *services.MealPlanService
	Shopping *services.ShoppingListService
}

func NewMealPlanController(plans *services.MealPlanService, shopping *services.ShoppingListService) *MealPlanController {
	return &MealPlanController{Plans: plans, Shopping: shopping}
}

// POST /api/meal-plans/generate
func (pc *MealPlanController) Generate(c *gin.Context) {
	var req services.GenerateRequest
	// an empty body falls through to the "dates are required" check
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}
	plan, err := pc.Plans.Generate(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": plan.ID, "plan": plan.Data})
}

func (pc *MealPlanController) List(c *gin.Context) {
	plans, err := pc.Plans.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (pc *MealPlanController) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	plan, err := pc.Plans.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (pc *MealPlanController) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := pc.Plans.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/meal-plans/:id/shopping-list
func (pc *MealPlanController) ShoppingList(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := pc.Shopping.FromPlan(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// GET /api/meal-plans/:id/nutrition
func (pc *MealPlanController) Nutrition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := pc.Plans.Nutrition(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
