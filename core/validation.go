// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/goccy/go-json"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// profileValidator returns the shared validator, registering notblank on
// first use.
func profileValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
	})
	return validate
}

// profileFieldErrors maps a failing UserProfile field to its sentinel.
var profileFieldErrors = map[string]error{
	"Age":          ErrInvalidAge,
	"AnnualIncome": ErrInvalidIncome,
	"Category":     ErrEmptyCategory,
	"State":        ErrEmptyState,
}

// ValidateUserProfile validates a UserProfile according to domain rules.
//
// Validation rules:
//   - Age must be between 0 and 150
//   - AnnualIncome must not be negative
//   - Category and State must not be blank
func ValidateUserProfile(profile *UserProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidInput)
	}

	err := profileValidator().Struct(profile)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	fe := fieldErrs[0]
	if sentinel, ok := profileFieldErrors[fe.StructField()]; ok {
		return fmt.Errorf("%w: %w", ErrInvalidInput, sentinel)
	}
	return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, fe.Field(), fe.Tag())
}

// profileRequest mirrors UserProfile with pointer fields so absent keys can
// be told apart from zero values.
type profileRequest struct {
	Age          *float64 `json:"age"`
	Category     *string  `json:"category"`
	AnnualIncome *float64 `json:"annualIncome"`
	State        *string  `json:"state"`
}

// ParseUserProfile decodes and validates a JSON recommendation request.
// Every field is required and numeric fields must hold whole numbers.
func ParseUserProfile(data []byte) (*UserProfile, error) {
	var req profileRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: malformed request: %w", ErrInvalidInput, err)
	}

	switch {
	case req.Age == nil:
		return nil, fmt.Errorf("%w: %w: age", ErrInvalidInput, ErrMissingField)
	case req.Category == nil:
		return nil, fmt.Errorf("%w: %w: category", ErrInvalidInput, ErrMissingField)
	case req.AnnualIncome == nil:
		return nil, fmt.Errorf("%w: %w: annualIncome", ErrInvalidInput, ErrMissingField)
	case req.State == nil:
		return nil, fmt.Errorf("%w: %w: state", ErrInvalidInput, ErrMissingField)
	}

	if *req.Age != math.Trunc(*req.Age) {
		return nil, fmt.Errorf("%w: age must be a whole number", ErrInvalidInput)
	}
	if *req.AnnualIncome != math.Trunc(*req.AnnualIncome) {
		return nil, fmt.Errorf("%w: annualIncome must be a whole number", ErrInvalidInput)
	}

	profile := &UserProfile{
		Age:          int(*req.Age),
		Category:     strings.TrimSpace(*req.Category),
		AnnualIncome: int64(*req.AnnualIncome),
		State:        strings.TrimSpace(*req.State),
	}
	if err := ValidateUserProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}
