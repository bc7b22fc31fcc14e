package controllers

import (
	"errors"
	"net/http"

	"mealplanner/models"
	"mealplanner/services"
	"mealplanner/utils"

	"github.com/gin-gonic/gin"
)

type PreferenceController struct {
	Prefs *services.PreferenceService
}

func NewPreferenceController(prefs *services.PreferenceService) *PreferenceController {
	return &PreferenceController{Prefs: prefs}
}

type preferenceView struct {
	Vegetarian  bool     `json:"vegetarian"`
	Allergies   []string `json:"allergies"`
	CalorieGoal float64  `json:"calorie_goal"`
	ProteinGoal float64  `json:"protein_goal"`
	CarbsGoal   float64  `json:"carbs_goal"`
	FatGoal     float64  `json:"fat_goal"`
}

func viewPreference(p *models.Preference) preferenceView {
	return preferenceView{
		Vegetarian:  p.Vegetarian,
		Allergies:   p.AllergyNames(),
		CalorieGoal: p.CalorieGoal,
		ProteinGoal: p.ProteinGoal,
		CarbsGoal:   p.CarbsGoal,
		FatGoal:     p.FatGoal,
	}
}

// preferenceRequest takes vegetarian in any checkbox form and allergies as a
// JSON list or a comma-separated string.
type preferenceRequest struct {
	Vegetarian  any      `json:"vegetarian"`
	Allergies   any      `json:"allergies"`
	CalorieGoal *float64 `json:"calorie_goal"`
	ProteinGoal *float64 `json:"protein_goal"`
	CarbsGoal   *float64 `json:"carbs_goal"`
	FatGoal     *float64 `json:"fat_goal"`
}

func (r preferenceRequest) toUpdate() (services.PreferenceUpdate, error) {
	u := services.PreferenceUpdate{
		CalorieGoal: r.CalorieGoal,
		ProteinGoal: r.ProteinGoal,
		CarbsGoal:   r.CarbsGoal,
		FatGoal:     r.FatGoal,
	}
	if r.Vegetarian != nil {
		v := utils.ParseFlexibleBool(r.Vegetarian)
		u.Vegetarian = &v
	}
	switch a := r.Allergies.(type) {
	case nil:
	case string:
		names := utils.SplitNames(a)
		u.Allergies = &names
	case []any:
		names := make([]string, 0, len(a))
		for _, item := range a {
			s, ok := item.(string)
			if !ok {
				return u, errors.New("allergies must be strings")
			}
			names = append(names, s)
		}
		u.Allergies = &names
	default:
		return u, errors.New("allergies must be a list or a comma-separated string")
	}
	return u, nil
}

// GET /api/preferences
func (pc *PreferenceController) Get(c *gin.Context) {
	pref, err := pc.Prefs.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewPreference(pref))
}

// PUT /api/preferences
func (pc *PreferenceController) Update(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		bindError(c, err)
		return
	}
	pref, err := pc.Prefs.Update(c.Request.Context(), currentUserID(c), update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewPreference(pref))
}

// GET /api/allergies
func (pc *PreferenceController) ListAllergies(c *gin.Context) {
	list, err := pc.Prefs.ListAllergies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
