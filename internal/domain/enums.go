package domain

import "github.com/alexanderramin/sillage/internal/calc"

type BlendKind string

const (
	BlendAccord  BlendKind = "accord"
	BlendFormula BlendKind = "formula"
)

// ValidBlendKinds is the canonical set of accepted blend kind strings.
var ValidBlendKinds = map[string]bool{
	"accord": true, "formula": true,
}

type PyramidLevel string

const (
	PyramidTop   PyramidLevel = "top"
	PyramidHeart PyramidLevel = "heart"
	PyramidBase  PyramidLevel = "base"
)

var ValidPyramidLevels = map[PyramidLevel]bool{
	PyramidTop: true, PyramidHeart: true, PyramidBase: true,
}

type LineKind = calc.LineKind

const (
	LineMaterial LineKind = calc.KindMaterial
	LineAccord   LineKind = calc.KindAccord
)

// RemovableMaterialFields lists the optional material fields that may be cleared.
var RemovableMaterialFields = map[string]bool{
	"cas": true, "alt_name": true,
}

const DefaultDiluentName = "Solvent"
