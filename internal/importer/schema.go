package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is written by Encode. Documents without a version are read
// as version 1.
const CurrentVersion = 1

// Document is the YAML exchange format for materials, accords and formulas.
// Blends may refer to materials and accords by title; accords must appear
// before the formulas that use them.
type Document struct {
	Version   int              `yaml:"version,omitempty" validate:"gte=0,lte=1"`
	Materials []MaterialImport `yaml:"materials,omitempty" validate:"dive"`
	Blends    []BlendImport    `yaml:"blends,omitempty" validate:"dive"`
}

type MaterialImport struct {
	Title        string    `yaml:"title" validate:"required"`
	CAS          string    `yaml:"cas,omitempty"`
	AltName      string    `yaml:"alt_name,omitempty"`
	Category     string    `yaml:"category,omitempty"`
	Pyramid      []string  `yaml:"pyramid,omitempty" validate:"dive,oneof=top heart base"`
	IFRALimit    float64   `yaml:"ifra_limit,omitempty" validate:"finite,gte=0,lte=100"`
	Dilutions    []float64 `yaml:"dilutions,omitempty" validate:"dive,dilution"`
	DateObtained string    `yaml:"date_obtained,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description  string    `yaml:"description,omitempty"`
}

type BlendImport struct {
	Kind    string         `yaml:"kind" validate:"required,oneof=accord formula"`
	Title   string         `yaml:"title" validate:"required"`
	Note    string         `yaml:"note,omitempty"`
	IsBase  bool           `yaml:"is_base,omitempty"`
	Diluent *DiluentImport `yaml:"diluent,omitempty"`
	Lines   []LineImport   `yaml:"lines,omitempty" validate:"dive"`
}

type DiluentImport struct {
	Name   string  `yaml:"name,omitempty"`
	Weight float64 `yaml:"weight" validate:"finite,gte=0"`
}

// LineImport names exactly one of Material or Accord. A zero Dilution means
// the material's default option; accord lines always use the accord's
// computed concentration.
type LineImport struct {
	Material string  `yaml:"material,omitempty" validate:"required_without=Accord,excluded_with=Accord"`
	Accord   string  `yaml:"accord,omitempty" validate:"required_without=Material"`
	Weight   float64 `yaml:"weight" validate:"finite,gte=0"`
	Dilution float64 `yaml:"dilution,omitempty" validate:"omitempty,dilution"`
}

// Ref returns the referenced title, whichever kind it is.
func (l LineImport) Ref() string {
	if l.Material != "" {
		return l.Material
	}
	return l.Accord
}

// LoadDocument reads and decodes a YAML document from disk.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()
	return DecodeDocument(f)
}

// DecodeDocument rejects unknown keys so typos surface instead of being dropped.
func DecodeDocument(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("import document is empty")
		}
		return nil, fmt.Errorf("parsing import document: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	return &doc, nil
}

// Encode renders the document as YAML with two-space indentation.
func Encode(doc *Document) ([]byte, error) {
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return buf.Bytes(), nil
}
