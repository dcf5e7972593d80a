package models

import (
	"strings"

	"github.com/google/uuid"
)

// Sector is an economic vertical agents are classified under. It is
// immutable once created.
type Sector struct {
	id             uuid.UUID
	name           string
	category       string
	valuationGrade float64
}

// NewSector creates a sector with a fresh id. Any valuation grade is accepted.
func NewSector(name, category string, valuationGrade float64) (*Sector, error) {
	if strings.TrimSpace(name) == "" {
		return nil, InvalidArgument("sector.create", "name cannot be empty")
	}
	if strings.TrimSpace(category) == "" {
		return nil, InvalidArgument("sector.create", "category cannot be empty")
	}
	return &Sector{
		id:             uuid.New(),
		name:           name,
		category:       category,
		valuationGrade: valuationGrade,
	}, nil
}

// RestoreSector rebuilds a persisted sector.
func RestoreSector(id uuid.UUID, name, category string, valuationGrade float64) (*Sector, error) {
	if id == uuid.Nil {
		return nil, InvalidArgument("sector.restore", "id cannot be nil")
	}
	s, err := NewSector(name, category, valuationGrade)
	if err != nil {
		return nil, err
	}
	s.id = id
	return s, nil
}

func (s *Sector) ID() uuid.UUID           { return s.id }
func (s *Sector) Name() string            { return s.name }
func (s *Sector) Category() string        { return s.category }
func (s *Sector) ValuationGrade() float64 { return s.valuationGrade }

// SectorDescriptor is one entry of the declarative sector source.
type SectorDescriptor struct {
	Name          string  `json:"name" yaml:"name" validate:"required"`
	Category      string  `json:"primarySector" yaml:"primary_sector" validate:"required"`
	BaseValuation float64 `json:"baseValuation" yaml:"base_valuation"`
}
