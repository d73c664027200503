package pricing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinLetterSets = 1
	MaxLetterSets = 3
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Whitespace-only notes are not a justification.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate returns every problem with in, or nil when it can be priced against rc.
// Structural rules live in the struct tags; rules that depend on the rate card are
// checked here. Nothing stops at the first error.
func Validate(in Input, rc RateCard) []string {
	var errs []string

	if err := structValidator.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, describeFieldError(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	errs = append(errs, checkAgainstRateCard(in, rc)...)
	return errs
}

func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

func describeFieldError(fe validator.FieldError) string {
	path := fieldPath(fe)
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", path)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", path, param)
	case "gte":
		if param == "0" {
			return fmt.Sprintf("%s must not be negative", path)
		}
		return fmt.Sprintf("%s must be at least %s", path, param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", path, param)
	case "min", "max":
		if path == "letter_sets" {
			return fmt.Sprintf("letter_sets must contain between %d and %d entries, got %d",
				MinLetterSets, MaxLetterSets, lengthOf(fe.Value()))
		}
		if fe.Tag() == "min" {
			return fmt.Sprintf("%s must be at least %s", path, param)
		}
		return fmt.Sprintf("%s must be at most %s", path, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", path, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", path)
	}
}

func lengthOf(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len()
	}
	return 0
}

func knownLetterType(t LetterType) bool {
	for _, known := range LetterTypes {
		if t == known {
			return true
		}
	}
	return false
}

func checkAgainstRateCard(in Input, rc RateCard) []string {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if in.PanelMaterial != "" {
		sizes, ok := rc.PanelPrices[in.PanelMaterial]
		switch {
		case !ok:
			add("panel_material: unknown material %q", in.PanelMaterial)
		case in.PanelSize == "":
		default:
			if _, stocked := sizes[in.PanelSize]; !stocked {
				add("panel_size: %q is not stocked in %s", in.PanelSize, in.PanelMaterial)
			} else if _, _, err := ParseSheetSize(in.PanelSize); err != nil {
				add("panel_size: %v", err)
			}
		}
	}
	if in.PanelFinish != "" {
		if _, ok := rc.FinishCostPerM2[in.PanelFinish]; !ok {
			add("panel_finish: unknown finish %q", in.PanelFinish)
		}
	}

	illuminated := false
	for i, set := range in.LetterSets {
		if set.Illuminated {
			illuminated = true
		}
		if !knownLetterType(set.Type) {
			continue
		}
		if set.Finish != "" && !rc.FinishAllowed(set.Type, set.Finish) {
			add("letter_sets[%d].finish: %q is not compatible with %s letters", i, set.Finish, set.Type)
		}
		if set.HeightMM <= 0 {
			continue
		}
		if _, ok := rc.LetterBaseCost(set.Type, set.HeightMM); !ok {
			add("letter_sets[%d].height_mm: no %s price for %gmm letters", i, set.Type, set.HeightMM)
		}
		if set.Illuminated {
			if _, ok := rc.LEDsPerMetre(set.HeightMM); !ok {
				add("letter_sets[%d].height_mm: no LED density for %gmm letters", i, set.HeightMM)
			}
		}
	}

	if a := in.Aperture; a != nil {
		if a.WidthMM > in.WidthMM || a.HeightMM > in.HeightMM {
			add("aperture: %gx%gmm does not fit the %gx%gmm panel", a.WidthMM, a.HeightMM, in.WidthMM, in.HeightMM)
		}
		if a.OpalType != "" {
			if _, ok := rc.OpalCostPerM2[a.OpalType]; !ok {
				add("aperture.opal_type: unknown opal %q", a.OpalType)
			}
		}
		if a.HeightMM > 0 {
			if _, ok := rc.ApertureLEDsPerMetre(a.HeightMM); !ok {
				add("aperture: the rate card has no LED density table")
			}
		}
	}

	switch {
	case in.TransformerType != "":
		if _, ok := rc.Transformers[in.TransformerType]; !ok {
			add("transformer_type: unknown transformer %q", in.TransformerType)
		}
	case illuminated || in.Aperture != nil:
		add("transformer_type is required for illuminated signs")
	}

	seen := make(map[string]int, len(in.Overrides))
	for i, o := range in.Overrides {
		if o.FieldPath != "" {
			if first, dup := seen[o.FieldPath]; dup {
				add("overrides[%d].field_path: %s is already overridden by overrides[%d]", i, o.FieldPath, first)
			} else {
				seen[o.FieldPath] = i
			}
		}
		if o.FieldPath == FieldMarkupPercent && o.Override > 100 {
			add("overrides[%d].override: markup_percent must be between 0 and 100", i)
		}
	}

	return errs
}
