package importer

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() *Document {
	return &Document{
		Version: 1,
		Materials: []MaterialImport{
			{Title: "Hedione", CAS: "24851-98-7", Pyramid: []string{"heart"}, Dilutions: []float64{100, 10}},
			{Title: "Indole", IFRALimit: 0.5, Dilutions: []float64{1}},
		},
		Blends: []BlendImport{
			{
				Kind:    "accord",
				Title:   "Jasmine",
				Diluent: &DiluentImport{Name: "DPG", Weight: 5},
				Lines: []LineImport{
					{Material: "Hedione", Weight: 10, Dilution: 10},
					{Material: "Indole", Weight: 0.2},
				},
			},
			{
				Kind:  "formula",
				Title: "White Floral",
				Lines: []LineImport{
					{Accord: "Jasmine", Weight: 15},
					{Material: "Hedione", Weight: 20},
				},
			},
		},
	}
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

func TestValidateDocument_Valid(t *testing.T) {
	errs := ValidateDocument(validDocument())
	assert.Empty(t, errs, joinErrors(errs))
}

func TestValidateDocument_MissingRequiredFields(t *testing.T) {
	doc := validDocument()
	doc.Materials[0].Title = ""
	doc.Blends[0].Kind = ""

	msg := joinErrors(ValidateDocument(doc))
	assert.Contains(t, msg, "materials[0].title is required")
	assert.Contains(t, msg, "blends[0].kind is required")
}

func TestValidateDocument_InvalidEnums(t *testing.T) {
	doc := validDocument()
	doc.Blends[0].Kind = "perfume"
	doc.Materials[0].Pyramid = []string{"middle"}

	msg := joinErrors(ValidateDocument(doc))
	assert.Contains(t, msg, `blends[0].kind: invalid value "perfume"`)
	assert.Contains(t, msg, `materials[0].pyramid[0]: invalid value "middle"`)
}

func TestValidateDocument_DilutionRange(t *testing.T) {
	doc := validDocument()
	doc.Materials[1].Dilutions = []float64{0}
	doc.Blends[0].Lines[0].Dilution = 120

	errs := ValidateDocument(doc)
	require.Len(t, errs, 2, joinErrors(errs))
	msg := joinErrors(errs)
	assert.Contains(t, msg, "materials[1].dilutions[0]")
	assert.Contains(t, msg, "blends[0].lines[0].dilution")
}

func TestValidateDocument_NegativeWeight(t *testing.T) {
	doc := validDocument()
	doc.Blends[1].Lines[1].Weight = -1

	msg := joinErrors(ValidateDocument(doc))
	assert.Contains(t, msg, "blends[1].lines[1].weight")
}

func TestNewValidator_RegistersCustomRules(t *testing.T) {
	assert.NotPanics(t, func() { newValidator() })
}

func TestValidateDocument_NonFiniteNumbers(t *testing.T) {
	doc := validDocument()
	doc.Materials[1].IFRALimit = math.NaN()
	doc.Blends[0].Diluent.Weight = math.Inf(1)
	doc.Blends[1].Lines[0].Weight = math.Inf(1)

	errs := ValidateDocument(doc)
	require.Len(t, errs, 3, joinErrors(errs))
	msg := joinErrors(errs)
	assert.Contains(t, msg, "materials[1].ifra_limit")
	assert.Contains(t, msg, "blends[0].diluent.weight")
	assert.Contains(t, msg, "blends[1].lines[0].weight")
	assert.Contains(t, msg, "not a finite number")
}

func TestValidateDocument_LineNeedsExactlyOneReference(t *testing.T) {
	doc := validDocument()
	doc.Blends[1].Lines = append(doc.Blends[1].Lines,
		LineImport{Weight: 1},
		LineImport{Material: "Hedione", Accord: "Jasmine", Weight: 1},
	)

	msg := joinErrors(ValidateDocument(doc))
	assert.Contains(t, msg, "needs a material or an accord")
	assert.Contains(t, msg, "cannot name both")
}

func TestValidateDocument_AccordCannotContainAccords(t *testing.T) {
	doc := validDocument()
	doc.Blends[0].Lines = append(doc.Blends[0].Lines, LineImport{Accord: "Rose", Weight: 1})

	msg := joinErrors(ValidateDocument(doc))
	assert.Contains(t, msg, "accords can only contain materials")
}

func TestValidateDocument_DuplicateReferences(t *testing.T) {
	doc := validDocument()
	doc.Blends[0].Lines = append(doc.Blends[0].Lines, LineImport{Material: " hedione ", Weight: 1})
	doc.Materials = append(doc.Materials, MaterialImport{Title: "HEDIONE"})

	msg := joinErrors(ValidateDocument(doc))
	assert.Contains(t, msg, `"hedione" appears more than once`)
	assert.Contains(t, msg, `duplicate title "HEDIONE"`)
}

func TestValidateDocument_SelfReferenceAndAccordDilution(t *testing.T) {
	doc := validDocument()
	doc.Blends[1].Lines = append(doc.Blends[1].Lines, LineImport{Accord: "White Floral", Weight: 1})
	doc.Blends[1].Lines[0].Dilution = 50

	msg := joinErrors(ValidateDocument(doc))
	assert.Contains(t, msg, "cannot contain itself")
	assert.Contains(t, msg, "remove dilution")
}

func TestValidateDocument_DateFormat(t *testing.T) {
	doc := validDocument()
	doc.Materials[0].DateObtained = "09/03/2024"

	msg := joinErrors(ValidateDocument(doc))
	assert.Contains(t, msg, "expected YYYY-MM-DD")
}
