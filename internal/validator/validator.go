// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency", validateCurrency)
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("frequency", validateFrequency)
		_ = v.RegisterValidation("project_status", validateProjectStatus)
		_ = v.RegisterValidation("task_status", validateTaskStatus)
		_ = v.RegisterValidation("task_priority", validateTaskPriority)
	}
}

// The mobile client only offers USD and EUR.
func validateCurrency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "USD", "EUR":
		return true
	}
	return false
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly":
		return true
	}
	return false
}

func validateProjectStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "active", "completed", "archived":
		return true
	}
	return false
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "todo", "in_progress", "completed":
		return true
	}
	return false
}

func validateTaskPriority(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "low", "medium", "high":
		return true
	}
	return false
}
