package recommend

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hyperjump/simrec/internal/models"
)

// RecommendRequest is a recommendation query. N == 0 selects the default.
type RecommendRequest struct {
	Dataset string `query:"dataset" validate:"required"`
	IID     string `query:"iid" validate:"required"`
	N       int    `query:"n" validate:"gte=0"`
}

// ValidationError lists every invalid request parameter.
type ValidationError struct {
	Fields []models.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, strings.Join(f.Loc, ".")+": "+f.Msg)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// NewFieldError builds a ValidationError for a single query parameter.
func NewFieldError(param, msg, typ string) *ValidationError {
	return &ValidationError{Fields: []models.FieldError{{Loc: []string{"query", param}, Msg: msg, Type: typ}}}
}

type requestValidator struct {
	v    *validator.Validate
	maxN int
}

func newRequestValidator(maxN int) *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(RecommendRequest)
		if req.N > maxN {
			sl.ReportError(req.N, "n", "N", "lte", strconv.Itoa(maxN))
		}
	}, RecommendRequest{})
	return &requestValidator{v: v, maxN: maxN}
}

func (rv *requestValidator) validate(req RecommendRequest) error {
	err := rv.v.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{Fields: make([]models.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, toFieldError(fe))
	}
	return out
}

func toFieldError(fe validator.FieldError) models.FieldError {
	loc := []string{"query", fe.Field()}
	switch fe.Tag() {
	case "required":
		return models.FieldError{Loc: loc, Msg: "Field required", Type: "missing"}
	case "lte":
		return models.FieldError{Loc: loc, Msg: fmt.Sprintf("Input should be less than or equal to %s", fe.Param()), Type: "less_than_equal"}
	case "gte":
		return models.FieldError{Loc: loc, Msg: fmt.Sprintf("Input should be greater than or equal to %s", fe.Param()), Type: "greater_than_equal"}
	default:
		return models.FieldError{Loc: loc, Msg: fmt.Sprintf("failed on the '%s' rule", fe.Tag()), Type: fe.Tag()}
	}
}
