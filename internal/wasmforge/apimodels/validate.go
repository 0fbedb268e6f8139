// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package apimodels

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// validate is a single shared validator instance, grounded on the
// teacher's internal/pipeline/component/pipeline.go convention
// (`validator.New(validator.WithRequiredStructEnabled())`).
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs struct-tag validation over req and converts any
// failures into the field/message descriptor shape spec.md §6 requires
// for a 422 response. Returns nil when req passes validation.
func ValidateStruct(req any) []ErrorDescriptor {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ErrorDescriptor{{Field: "", Message: err.Error()}}
	}

	descriptors := make([]ErrorDescriptor, 0, len(verrs))
	for _, fe := range verrs {
		descriptors = append(descriptors, ErrorDescriptor{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return descriptors
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	default:
		return "failed validation: " + fe.Tag()
	}
}
