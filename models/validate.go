package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// global validator instance; caches struct metadata across calls.
var validate = validator.New()

// Validate checks an item against its schema tags and returns the list
// of violations in struct field order. An empty slice means valid.
func Validate(item Item) []string {
	err := validate.Struct(item)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	violations := make([]string, 0, len(verrs))
	for _, e := range verrs {
		violations = append(violations, fmt.Sprintf("field '%s': rule '%s' failed (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
	}
	return violations
}
