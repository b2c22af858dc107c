package importer

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var documentValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report YAML key names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, fn := range map[string]validator.Func{
		"dilution": validateDilution,
		"finite":   validateFinite,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("importer: registering %q validation: %v", tag, err))
		}
	}
	return v
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validateDilution(fl validator.FieldLevel) bool {
	d := fl.Field().Float()
	return d > 0 && d <= 100
}

// ValidateDocument checks field rules and cross references and returns every
// problem found, not just the first.
func ValidateDocument(doc *Document) []error {
	var errs []error

	if err := documentValidate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []error{err}
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(fe))
		}
	}

	seenMaterials := make(map[string]bool, len(doc.Materials))
	for i, m := range doc.Materials {
		key := NormalizeTitle(m.Title)
		if key == "" {
			continue
		}
		if seenMaterials[key] {
			errs = append(errs, fmt.Errorf("materials[%d]: duplicate title %q", i, m.Title))
		}
		seenMaterials[key] = true
	}

	for i, b := range doc.Blends {
		errs = append(errs, validateBlend(i, b)...)
	}
	return errs
}

func validateBlend(i int, b BlendImport) []error {
	var errs []error
	prefix := fmt.Sprintf("blends[%d] (%s)", i, b.Title)

	refs := make(map[string]bool, len(b.Lines))
	for j, l := range b.Lines {
		key := lineKind(l) + ":" + NormalizeTitle(l.Ref())
		if refs[key] {
			errs = append(errs, fmt.Errorf("%s.lines[%d]: %q appears more than once", prefix, j, l.Ref()))
		}
		refs[key] = true

		if l.Accord == "" {
			continue
		}
		if b.Kind == "accord" {
			errs = append(errs, fmt.Errorf("%s.lines[%d]: accords can only contain materials", prefix, j))
		}
		if NormalizeTitle(l.Accord) == NormalizeTitle(b.Title) {
			errs = append(errs, fmt.Errorf("%s.lines[%d]: a blend cannot contain itself", prefix, j))
		}
		if l.Dilution != 0 {
			errs = append(errs, fmt.Errorf("%s.lines[%d]: accord lines take the accord's concentration; remove dilution", prefix, j))
		}
	}
	return errs
}

func lineKind(l LineImport) string {
	if l.Accord != "" {
		return "accord"
	}
	return "material"
}

func fieldError(fe validator.FieldError) error {
	// Namespace starts with the root type name; drop it.
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "required_without":
		return fmt.Errorf("%s: a line needs a material or an accord", field)
	case "excluded_with":
		return fmt.Errorf("%s: a line cannot name both a material and an accord", field)
	case "oneof":
		return fmt.Errorf("%s: invalid value %q (expected one of: %s)", field, fmt.Sprint(fe.Value()), fe.Param())
	case "dilution":
		return fmt.Errorf("%s: dilution %v must be greater than 0 and at most 100", field, fe.Value())
	case "datetime":
		return fmt.Errorf("%s: invalid date %q (expected YYYY-MM-DD)", field, fmt.Sprint(fe.Value()))
	case "finite":
		return fmt.Errorf("%s: %v is not a finite number", field, fe.Value())
	case "gte", "lte":
		return fmt.Errorf("%s: value %v is out of range", field, fe.Value())
	default:
		return fmt.Errorf("%s: failed %s validation", field, fe.Tag())
	}
}

// NormalizeTitle is the key used to match titles across a document and the catalog.
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
