package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Material struct {
	ID           string
	OwnerID      string
	Title        string
	CAS          string
	AltName      string
	Category     Category
	Pyramid      []PyramidLevel
	IFRALimit    float64
	Dilutions    []float64
	DateObtained *time.Time
	Description  string
	IsPublished  bool
	ArchivedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DefaultDilution is the dilution a material gets when first added to a blend.
func (m *Material) DefaultDilution() float64 {
	if len(m.Dilutions) > 0 {
		return m.Dilutions[0]
	}
	return 100
}

// AllowsDilution reports whether d is one of the material's configured stock dilutions.
func (m *Material) AllowsDilution(d float64) bool {
	if len(m.Dilutions) == 0 {
		return d == 100
	}
	for _, opt := range m.Dilutions {
		if opt == d {
			return true
		}
	}
	return false
}

func (m *Material) IsArchived() bool {
	return m.ArchivedAt != nil
}

// Validate checks the catalog fields a material must satisfy before it is stored.
func (m *Material) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("material title is required")
	}
	if !isFinite(m.IFRALimit) || m.IFRALimit < 0 || m.IFRALimit > 100 {
		return fmt.Errorf("IFRA limit %v must be between 0 and 100", m.IFRALimit)
	}
	for _, d := range m.Dilutions {
		if err := ValidateDilution(d); err != nil {
			return err
		}
	}
	for _, lvl := range m.Pyramid {
		if !ValidPyramidLevels[lvl] {
			return fmt.Errorf("unknown pyramid level %q (expected top, heart or base)", lvl)
		}
	}
	return nil
}

// ValidateDilution rejects dilutions outside (0, 100]. A zero dilution would
// need infinite mass to contribute any active substance.
func ValidateDilution(d float64) error {
	if !isFinite(d) || d <= 0 || d > 100 {
		return fmt.Errorf("dilution %v%% must be greater than 0 and at most 100", d)
	}
	return nil
}

// NormalizeDilutions validates, de-duplicates and orders dilution options from
// strongest to weakest. An empty input yields the single option 100.
func NormalizeDilutions(ds []float64) ([]float64, error) {
	if len(ds) == 0 {
		return []float64{100}, nil
	}
	seen := make(map[float64]bool, len(ds))
	out := make([]float64, 0, len(ds))
	for _, d := range ds {
		if err := ValidateDilution(d); err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out, nil
}
