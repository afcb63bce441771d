package cannibalization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/Siloq-app/siloq-api/internal/urltools"
)

// PipelineConfig is the immutable, explicitly-threaded value every phase
// reads its thresholds and constant tables from: one value, built once
// and handed down by reference, rather than package-level mutable state.
type PipelineConfig struct {
	Tables *urltools.Tables `validate:"required"`

	MinImpressions    int     `yaml:"min_impressions" validate:"gte=0"`
	NoiseShareFloor   float64 `yaml:"noise_share_floor" validate:"gte=0,lte=1"`
	PrimaryShareCeil  float64 `yaml:"primary_share_ceiling" validate:"gte=0,lte=1"`
	SecondaryShareMed float64 `yaml:"secondary_share_medium" validate:"gte=0,lte=1"`
	SecondaryShareHi  float64 `yaml:"secondary_share_high" validate:"gte=0,lte=1"`
	SevereShareFloor  float64 `yaml:"severe_share_floor" validate:"gte=0,lte=1"`
	SevereRowCount    int     `yaml:"severe_row_count" validate:"gte=1"`

	SiblingJaccardCeiling float64 `yaml:"sibling_jaccard_ceiling" validate:"gte=0,lte=1"`
	NearDupJaccardFloor   float64 `yaml:"near_dup_jaccard_floor" validate:"gte=0,lte=1"`
	BoilerplateMinGroup   int     `yaml:"boilerplate_min_group" validate:"gte=1"`

	MaxClusterSize   int `yaml:"max_cluster_size" validate:"gte=1"`
	ImpressionHigh   int `yaml:"impression_high" validate:"gte=0"`
	ImpressionMedium int `yaml:"impression_medium" validate:"gte=0"`
}

// DefaultPipelineConfig returns the thresholds named throughout §4.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Tables:                urltools.DefaultTables(),
		MinImpressions:        20,
		NoiseShareFloor:       0.05,
		PrimaryShareCeil:      0.85,
		SecondaryShareMed:     0.15,
		SecondaryShareHi:      0.35,
		SevereShareFloor:      0.10,
		SevereRowCount:        3,
		SiblingJaccardCeiling: 0.80,
		NearDupJaccardFloor:   0.80,
		BoilerplateMinGroup:   3,
		MaxClusterSize:        15,
		ImpressionHigh:        10000,
		ImpressionMedium:      1000,
	}
}

// StrictPipelineConfig is a named preset for sites that want fewer,
// higher-confidence clusters: a tighter noise floor and a higher bar for
// a MEDIUM-severity GSC conflict.
func StrictPipelineConfig() *PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.NoiseShareFloor = 0.08
	cfg.SecondaryShareMed = 0.20
	return cfg
}

var validate = validator.New()

// Validate checks the configuration's numeric invariants.
func (c *PipelineConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}
	return nil
}

// configFile mirrors PipelineConfig's scalar fields for (de)serialization;
// Tables is process-wide and rebuilt from DefaultTables() on load rather
// than round-tripped through YAML/JSON.
type configFile struct {
	MinImpressions        int     `yaml:"min_impressions" json:"min_impressions"`
	NoiseShareFloor        float64 `yaml:"noise_share_floor" json:"noise_share_floor"`
	PrimaryShareCeil       float64 `yaml:"primary_share_ceiling" json:"primary_share_ceiling"`
	SecondaryShareMed      float64 `yaml:"secondary_share_medium" json:"secondary_share_medium"`
	SecondaryShareHi       float64 `yaml:"secondary_share_high" json:"secondary_share_high"`
	SevereShareFloor       float64 `yaml:"severe_share_floor" json:"severe_share_floor"`
	SevereRowCount         int     `yaml:"severe_row_count" json:"severe_row_count"`
	SiblingJaccardCeiling  float64 `yaml:"sibling_jaccard_ceiling" json:"sibling_jaccard_ceiling"`
	NearDupJaccardFloor    float64 `yaml:"near_dup_jaccard_floor" json:"near_dup_jaccard_floor"`
	BoilerplateMinGroup    int     `yaml:"boilerplate_min_group" json:"boilerplate_min_group"`
	MaxClusterSize         int     `yaml:"max_cluster_size" json:"max_cluster_size"`
	ImpressionHigh         int     `yaml:"impression_high" json:"impression_high"`
	ImpressionMedium       int     `yaml:"impression_medium" json:"impression_medium"`
}

func (c *PipelineConfig) toFile() configFile {
	return configFile{
		MinImpressions:        c.MinImpressions,
		NoiseShareFloor:       c.NoiseShareFloor,
		PrimaryShareCeil:      c.PrimaryShareCeil,
		SecondaryShareMed:     c.SecondaryShareMed,
		SecondaryShareHi:      c.SecondaryShareHi,
		SevereShareFloor:      c.SevereShareFloor,
		SevereRowCount:        c.SevereRowCount,
		SiblingJaccardCeiling: c.SiblingJaccardCeiling,
		NearDupJaccardFloor:   c.NearDupJaccardFloor,
		BoilerplateMinGroup:   c.BoilerplateMinGroup,
		MaxClusterSize:        c.MaxClusterSize,
		ImpressionHigh:        c.ImpressionHigh,
		ImpressionMedium:      c.ImpressionMedium,
	}
}

func (f configFile) toConfig() *PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.MinImpressions = f.MinImpressions
	cfg.NoiseShareFloor = f.NoiseShareFloor
	cfg.PrimaryShareCeil = f.PrimaryShareCeil
	cfg.SecondaryShareMed = f.SecondaryShareMed
	cfg.SecondaryShareHi = f.SecondaryShareHi
	cfg.SevereShareFloor = f.SevereShareFloor
	cfg.SevereRowCount = f.SevereRowCount
	cfg.SiblingJaccardCeiling = f.SiblingJaccardCeiling
	cfg.NearDupJaccardFloor = f.NearDupJaccardFloor
	cfg.BoilerplateMinGroup = f.BoilerplateMinGroup
	cfg.MaxClusterSize = f.MaxClusterSize
	cfg.ImpressionHigh = f.ImpressionHigh
	cfg.ImpressionMedium = f.ImpressionMedium
	return cfg
}

// LoadFromFile loads a PipelineConfig from a YAML or JSON file, sniffed
// by its extension.
func LoadFromFile(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f configFile
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	return f.toConfig(), nil
}

// SaveToFile writes the configuration's scalar fields to path as YAML.
func (c *PipelineConfig) SaveToFile(path string) error {
	data, err := yaml.Marshal(c.toFile())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
