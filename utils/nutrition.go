package utils

import (
	"math"
)

// Totals holds macro-nutrients: kcal and grams.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (t Totals) Add(o Totals) Totals {
	return Totals{
		Calories: t.Calories + o.Calories,
		Protein:  t.Protein + o.Protein,
		Carbs:    t.Carbs + o.Carbs,
		Fat:      t.Fat + o.Fat,
	}
}

func (t Totals) Scale(f float64) Totals {
	return Totals{
		Calories: t.Calories * f,
		Protein:  t.Protein * f,
		Carbs:    t.Carbs * f,
		Fat:      t.Fat * f,
	}
}

func (t Totals) Rounded() Totals {
	return Totals{
		Calories: Round2(t.Calories),
		Protein:  Round2(t.Protein),
		Carbs:    Round2(t.Carbs),
		Fat:      Round2(t.Fat),
	}
}

// Per100g converts nutrient values given per 100 g to the amount in grams.
func Per100g(per100 Totals, grams float64) Totals {
	return per100.Scale(grams / 100)
}

// GoalProgress is consumption against a daily target.
type GoalProgress struct {
	Actual  float64 `json:"actual"`
	Target  float64 `json:"target"`
	Percent float64 `json:"percent"`
}

func Progress(actual, target float64) GoalProgress {
	return GoalProgress{Actual: Round2(actual), Target: Round2(target), Percent: Percent(actual, target)}
}

// Percent of goal; a zero goal reads as 100% once anything is consumed.
func Percent(actual, goal float64) float64 {
	if goal <= 0 {
		if actual <= 0 {
			return 0
		}
		return 100
	}
	return Round2((actual / goal) * 100.0)
}

func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
