package utils

import (
	"math"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func InitValidator() {
	Validate = validator.New()
	RegisterCustomValidators(Validate)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterCustomValidators(v)
	}
}

func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("finite_lat", ValidateLatitudeRule)
	v.RegisterValidation("finite_lon", ValidateLongitudeRule)
}

func ValidateLatitudeRule(fl validator.FieldLevel) bool {
	return ValidateLatitude(fl.Field().Float())
}

func ValidateLongitudeRule(fl validator.FieldLevel) bool {
	return ValidateLongitude(fl.Field().Float())
}

// ValidateLatitude requires a finite value in the [-90, 90] range
func ValidateLatitude(lat float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}
	return lat >= -90 && lat <= 90
}

// ValidateLongitude requires a finite value in the [-180, 180] range
func ValidateLongitude(lon float64) bool {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lon >= -180 && lon <= 180
}

// ValidateCoordinates checks a pair together, used where binding tags
// cannot run (the relay decodes frames by hand)
func ValidateCoordinates(lat, lon float64) bool {
	return ValidateLatitude(lat) && ValidateLongitude(lon)
}
