package middlewares

import (
	"errors"
	"time"

	"mealplanner/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the "mealtype" and "isodate" tags to gin's binding validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	if err := v.RegisterValidation("mealtype", validMealType); err != nil {
		return err
	}
	return v.RegisterValidation("isodate", validISODate)
}

func validMealType(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, mt := range models.MealTypes {
		if s == mt {
			return true
		}
	}
	return false
}

func validISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(models.DateLayout, fl.Field().String())
	return err == nil
}
