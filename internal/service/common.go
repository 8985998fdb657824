// Package service holds the use cases of the dealership: inventory, sales,
// payment tracking, archive, commissions, clients, settings and lookup.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/format"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and reports the first failure as a
// domain.ErrValidation named after the JSON field.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &domain.ErrValidation{Field: fe.Field(), Message: validationMessage(fe)}
	}
	return &domain.ErrValidation{Field: "body", Message: err.Error()}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "oneof":
		return fmt.Sprintf("deve ser um de: %s", fe.Param())
	case "datetime":
		return "data deve estar no formato AAAA-MM-DD"
	case "min", "max":
		return fmt.Sprintf("valor fora do intervalo (%s %s)", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("inválido (%s)", fe.Tag())
	}
}

// newID builds a prefixed random id, e.g. "cm-0b6f...".
func newID(prefix string) string {
	return prefix + uuid.NewString()
}

// Clock is swapped in tests.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

func indexOfVehicle(list []domain.Vehicle, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt[T any](list []T, i int) []T {
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func prepend[T any](item T, list []T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	return append(out, list...)
}

// matchesAny reports whether q occurs in any field, ignoring case and accents.
// An empty q matches everything.
func matchesAny(q string, fields ...string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	for _, f := range fields {
		if format.Contains(f, q) {
			return true
		}
	}
	return false
}

func yearString(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

// distinctYearsDesc collects the non-zero years, newest first.
func distinctYearsDesc(years []int) []int {
	seen := make(map[int]bool, len(years))
	out := make([]int, 0, len(years))
	for _, y := range years {
		if y != 0 && !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func notFound(resource, id string) error {
	return &domain.ErrNotFound{Resource: resource, ID: id}
}

func moneyOr(v *domain.Money, fallback *domain.Money) *domain.Money {
	if v != nil && !v.IsZero() {
		m := *v
		return &m
	}
	return fallback
}

func stringOr(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
