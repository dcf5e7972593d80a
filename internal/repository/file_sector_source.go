package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileSectorSource reads sector descriptors from a JSON or YAML file.
// JSON expects an array of {"primarySector","name","baseValuation"};
// YAML expects a list of {primary_sector, name, base_valuation}.
type FileSectorSource struct {
	path     string
	validate *validator.Validate
}

func NewFileSectorSource(path string) *FileSectorSource {
	return &FileSectorSource{path: path, validate: validator.New()}
}

var _ repository.SectorSource = (*FileSectorSource)(nil)

func (s *FileSectorSource) LoadSectorDescriptors(ctx context.Context) ([]models.SectorDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.SourceUnavailable("sectors.load", err)
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, models.SourceUnavailable("sectors.load", fmt.Errorf("read %s: %w", s.path, err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var descs []models.SectorDescriptor
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &descs)
	default:
		err = json.Unmarshal(raw, &descs)
	}
	if err != nil {
		return nil, models.SourceUnavailable("sectors.load", fmt.Errorf("decode %s: %w", s.path, err))
	}

	for i := range descs {
		descs[i].Name = strings.TrimSpace(descs[i].Name)
		descs[i].Category = strings.TrimSpace(descs[i].Category)
		if err := s.validate.Struct(descs[i]); err != nil {
			return nil, models.InvalidArgument("sectors.load", "descriptor %d in %s: %v", i, s.path, err)
		}
	}
	return descs, nil
}

// StaticSectorSource serves a fixed descriptor list.
type StaticSectorSource []models.SectorDescriptor

func (s StaticSectorSource) LoadSectorDescriptors(ctx context.Context) ([]models.SectorDescriptor, error) {
	out := make([]models.SectorDescriptor, len(s))
	copy(out, s)
	return out, nil
}
