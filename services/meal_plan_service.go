package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"mealplanner/logging"
	"mealplanner/metrics"
	"mealplanner/models"
	"mealplanner/utils"

	"gorm.io/gorm"
)

type MealPlanService struct {
	db       *gorm.DB
	prefs    *PreferenceService
	planner  *Planner
	notifier Notifier
	maxDays  int
	now      func() time.Time
}

// NewMealPlanService: notifier may be nil.
func NewMealPlanService(db *gorm.DB, prefs *PreferenceService, planner *Planner, notifier Notifier, maxDays int) *MealPlanService {
	return &MealPlanService{
		db:       db,
		prefs:    prefs,
		planner:  planner,
		notifier: notifier,
		maxDays:  maxDays,
		now:      time.Now,
	}
}

type GenerateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Generate builds a random plan for the user over [start, end] and stores it.
func (s *MealPlanService) Generate(ctx context.Context, userID uint, req GenerateRequest) (*models.MealPlan, error) {
	log := logging.Ctx(ctx)

	start, end, err := ParsePlanRange(req.StartDate, req.EndDate, s.maxDays)
	if err != nil {
		metrics.PlanFailures.WithLabelValues("invalid_range").Inc()
		return nil, err
	}

	pref, err := s.prefs.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).Order("id").Find(&recipes).Error; err != nil {
		return nil, err
	}

	days, err := s.planner.Build(pref, recipes, start, end)
	switch {
	case errors.Is(err, ErrNoCandidates):
		metrics.PlanFailures.WithLabelValues("no_candidates").Inc()
		log.Info().Uint("user_id", userID).Err(err).Msg("plan generation found no candidates")
		return nil, err
	case errors.Is(err, ErrNoUniqueRecipe):
		metrics.PlanFailures.WithLabelValues("no_unique_recipe").Inc()
		log.Info().Uint("user_id", userID).Err(err).Msg("plan generation ran out of unique recipes")
		return nil, err
	case err != nil:
		return nil, err
	}

	n := DaysInRange(start, end)
	plan := &models.MealPlan{
		UserID:    userID,
		StartDate: start,
		EndDate:   end,
		Data: models.PlanDocument{
			Metadata: models.PlanMetadata{
				UserID:      userID,
				GeneratedAt: s.now().UTC().Truncate(time.Second),
				Period: models.PlanPeriod{
					Start: start.Format(models.DateLayout),
					End:   end.Format(models.DateLayout),
					Days:  n,
				},
			},
			Days: days,
		},
	}
	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		metrics.PlanFailures.WithLabelValues("store").Inc()
		return nil, fmt.Errorf("failed to store meal plan: %w", err)
	}

	metrics.PlansGenerated.Inc()
	metrics.PlannedDays.Observe(float64(n))
	log.Info().Uint("user_id", userID).Uint("plan_id", plan.ID).Int("days", n).Msg("meal plan generated")

	if s.notifier != nil {
		s.notifier.Emit(ctx, userID, NotificationPlanGenerated,
			fmt.Sprintf("Your meal plan for %s to %s is ready", plan.Data.Metadata.Period.Start, plan.Data.Metadata.Period.End))
	}
	return plan, nil
}

// List returns the user's plans, newest first.
func (s *MealPlanService) List(ctx context.Context, userID uint) ([]models.MealPlan, error) {
	var plans []models.MealPlan
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&plans).Error
	return plans, err
}

func (s *MealPlanService) Get(ctx context.Context, userID, id uint) (*models.MealPlan, error) {
	var plan models.MealPlan
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&plan).Error
	if err != nil {
		return nil, dbErr(err, "meal plan")
	}
	return &plan, nil
}

func (s *MealPlanService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.MealPlan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return dbErr(gorm.ErrRecordNotFound, "meal plan")
	}
	return nil
}

type DayNutrition struct {
	Date     string            `json:"date"`
	Totals   utils.Totals      `json:"totals"`
	Progress NutritionProgress `json:"progress"`
}

type NutritionProgress struct {
	Calories utils.GoalProgress `json:"calories"`
	Protein  utils.GoalProgress `json:"protein"`
	Carbs    utils.GoalProgress `json:"carbs"`
	Fat      utils.GoalProgress `json:"fat"`
}

type PlanNutrition struct {
	PlanID        uint           `json:"plan_id"`
	Days          []DayNutrition `json:"days"`
	AveragePerDay utils.Totals   `json:"average_per_day"`
}

func progressAgainst(t utils.Totals, pref *models.Preference) NutritionProgress {
	return NutritionProgress{
		Calories: utils.Progress(t.Calories, pref.CalorieGoal),
		Protein:  utils.Progress(t.Protein, pref.ProteinGoal),
		Carbs:    utils.Progress(t.Carbs, pref.CarbsGoal),
		Fat:      utils.Progress(t.Fat, pref.FatGoal),
	}
}

// Nutrition totals each planned day from the recipes' current ingredients and
// compares them with the user's daily goals.
func (s *MealPlanService) Nutrition(ctx context.Context, userID, id uint) (*PlanNutrition, error) {
	plan, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	pref, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	dates := sortedDates(plan.Data.Days)
	var ids []uint
	for _, d := range dates {
		day := plan.Data.Days[d]
		ids = append(ids, day.Breakfast.ID, day.Lunch.ID, day.Dinner.ID)
	}
	perRecipe, err := recipeNutrition(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	out := &PlanNutrition{PlanID: plan.ID, Days: make([]DayNutrition, 0, len(dates))}
	var sum utils.Totals
	for _, d := range dates {
		day := plan.Data.Days[d]
		var t utils.Totals
		for _, mt := range models.MealTypes {
			t = t.Add(perRecipe[day.ByType(mt).ID])
		}
		sum = sum.Add(t)
		out.Days = append(out.Days, DayNutrition{Date: d, Totals: t.Rounded(), Progress: progressAgainst(t, pref)})
	}
	if len(dates) > 0 {
		out.AveragePerDay = sum.Scale(1 / float64(len(dates))).Rounded()
	}
	return out, nil
}

func sortedDates(days map[string]models.DayMeals) []string {
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
