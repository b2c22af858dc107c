package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alexanderramin/sillage/internal/calc"
)

var (
	ErrDuplicateLine      = errors.New("ingredient is already in the blend")
	ErrLineNotFound       = errors.New("ingredient is not in the blend")
	ErrLineKindNotAllowed = errors.New("accords can only contain materials")
	ErrSelfReference      = errors.New("a blend cannot contain itself")
)

// Blend is an accord or a formula: weighted ingredient lines plus a diluent.
// Totals and concentration are not fields; they are derived on demand with
// the calc package.
type Blend struct {
	ID          string
	OwnerID     string
	Kind        BlendKind
	Title       string
	Note        string
	IsBase      bool
	IsPublished bool
	Diluent     Diluent
	Lines       []IngredientLine
	ArchivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Diluent struct {
	Name   string
	Weight float64
}

type IngredientLine struct {
	RefID    string
	Kind     LineKind
	Weight   float64
	Dilution float64
}

func (b *Blend) IsArchived() bool {
	return b.ArchivedAt != nil
}

// DisplayTitle returns the title, or "Untitled" when none is set.
func (b *Blend) DisplayTitle() string {
	if strings.TrimSpace(b.Title) == "" {
		return "Untitled"
	}
	return b.Title
}

// LineIndex returns the position of the line referencing refID, or -1.
func (b *Blend) LineIndex(refID string) int {
	for i, l := range b.Lines {
		if l.RefID == refID {
			return i
		}
	}
	return -1
}

// AddLine appends a new ingredient. Accords only hold materials, and a
// reference can appear at most once.
func (b *Blend) AddLine(l IngredientLine) error {
	if b.Kind == BlendAccord && l.Kind != LineMaterial {
		return ErrLineKindNotAllowed
	}
	if l.RefID == b.ID {
		return ErrSelfReference
	}
	if b.LineIndex(l.RefID) >= 0 {
		return ErrDuplicateLine
	}
	if err := ValidateDilution(l.Dilution); err != nil {
		return err
	}
	if err := validateWeight("weight", l.Weight); err != nil {
		return err
	}
	l.Weight = calc.RoundWeight(l.Weight)
	b.Lines = append(b.Lines, l)
	return nil
}

// RemoveLine drops the line referencing refID.
func (b *Blend) RemoveLine(refID string) error {
	i := b.LineIndex(refID)
	if i < 0 {
		return ErrLineNotFound
	}
	b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
	return nil
}

// SetWeight updates a line weight, rounded to thousandths.
func (b *Blend) SetWeight(refID string, w float64) error {
	if err := validateWeight("weight", w); err != nil {
		return err
	}
	i := b.LineIndex(refID)
	if i < 0 {
		return ErrLineNotFound
	}
	b.Lines[i].Weight = calc.RoundWeight(w)
	return nil
}

// SetDiluentWeight updates the diluent weight, rounded to thousandths.
func (b *Blend) SetDiluentWeight(w float64) error {
	if err := validateWeight("diluent weight", w); err != nil {
		return err
	}
	b.Diluent.Weight = calc.RoundWeight(w)
	return nil
}

func validateWeight(what string, w float64) error {
	if !isFinite(w) || w < 0 {
		return fmt.Errorf("%s %v must be a finite number of grams, zero or more", what, w)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Snapshot converts the blend into calculator input. ifraLimits maps
// material IDs to their configured limit; missing entries mean no limit.
func (b *Blend) Snapshot(ifraLimits map[string]float64) calc.Snapshot {
	s := calc.Snapshot{
		Lines:   make([]calc.Line, len(b.Lines)),
		Diluent: calc.Diluent{Name: b.Diluent.Name, Weight: b.Diluent.Weight},
	}
	for i, l := range b.Lines {
		line := calc.Line{RefID: l.RefID, Kind: l.Kind, Weight: l.Weight, Dilution: l.Dilution}
		if l.Kind == LineMaterial {
			line.IFRALimit = ifraLimits[l.RefID]
		}
		s.Lines[i] = line
	}
	return s
}

// ApplySnapshot copies weights and the diluent from a calculator result back
// onto the blend. The snapshot must have been produced from this blend.
func (b *Blend) ApplySnapshot(s calc.Snapshot) error {
	if len(s.Lines) != len(b.Lines) {
		return fmt.Errorf("snapshot has %d lines, blend has %d", len(s.Lines), len(b.Lines))
	}
	for i, l := range s.Lines {
		if l.RefID != b.Lines[i].RefID {
			return fmt.Errorf("snapshot line %d references %s, blend has %s", i+1, l.RefID, b.Lines[i].RefID)
		}
	}
	for i, l := range s.Lines {
		b.Lines[i].Weight = l.Weight
		b.Lines[i].Dilution = l.Dilution
	}
	b.Diluent.Weight = s.Diluent.Weight
	return nil
}

// Concentration is the blend's final dilution, computed from its lines.
func (b *Blend) Concentration() float64 {
	return calc.ComputeTotals(b.Snapshot(nil)).FinalDilution
}
