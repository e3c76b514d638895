package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jlrickert/cli-toolkit/toolkit"
	"gopkg.in/yaml.v3"
)

const (
	ConfigV1VersionString = "2025-09"
	ConfigV2VersionString = "2026-06"

	// ConfigFile is the project file name inside the output directory.
	ConfigFile = "project.yaml"
)

// ConfigV1 is the first project file layout. It only names the inputs and
// the output directory.
type ConfigV1 struct {
	Projectv            string `yaml:"projectv"`
	ProjectID           string `yaml:"project_id"`
	MethylationDataPath string `yaml:"methylation_data_path"`
	ContigBinPath       string `yaml:"contig_bin_path"`
	BinQualityPath      string `yaml:"bin_quality_path,omitempty"`
	OutputPath          string `yaml:"output_path"`
}

// ConfigV2 adds the assignment store backend and file watching.
type ConfigV2 struct {
	// Projectv is the version of the project file format.
	Projectv string `yaml:"projectv"`

	// ID names the project within a Manager.
	ID string `yaml:"id"`

	// Title is an optional human readable label.
	Title string `yaml:"title,omitempty"`

	Inputs Inputs `yaml:"inputs"`

	// OutputDir holds project.yaml and the persisted assignments.
	OutputDir string `yaml:"output_dir"`

	Store StoreConfig `yaml:"store,omitempty"`

	// Watch reloads assignments when the store file is edited outside the
	// process. Only the tsv store supports it.
	Watch bool `yaml:"watch,omitempty"`
}

// Inputs are the source files a project is built from.
type Inputs struct {
	Methylation string `yaml:"methylation" json:"methylation"`
	ContigBins  string `yaml:"contig_bins" json:"contig_bins"`
	Quality     string `yaml:"quality,omitempty" json:"quality,omitempty"`
}

// StoreConfig selects where assignments are persisted. A relative Path is
// resolved against the output directory.
type StoreConfig struct {
	Kind StoreKind `yaml:"kind,omitempty"`
	Path string    `yaml:"path,omitempty"`
}

// Config is the latest project file version.
type Config = ConfigV2

func (c *ConfigV1) toV2() ConfigV2 {
	return ConfigV2{
		Projectv: ConfigV2VersionString,
		ID:       c.ProjectID,
		Inputs: Inputs{
			Methylation: c.MethylationDataPath,
			ContigBins:  c.ContigBinPath,
			Quality:     c.BinQualityPath,
		},
		OutputDir: c.OutputPath,
		Store:     StoreConfig{Kind: StoreTSV},
	}
}

// ParseConfigData parses raw YAML project data into the latest Config version.
func ParseConfigData(data []byte) (Config, error) {
	var cfg ConfigV2

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, NewInvalidConfigError(err.Error())
	}

	version, ok := raw["projectv"].(string)
	if !ok {
		return cfg, NewInvalidConfigError("missing or invalid projectv version field")
	}

	switch version {
	case ConfigV1VersionString:
		var v1 ConfigV1
		if err := yaml.Unmarshal(data, &v1); err != nil {
			return cfg, NewInvalidConfigError(err.Error())
		}
		cfg = v1.toV2()
	case ConfigV2VersionString:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, NewInvalidConfigError(err.Error())
		}
	default:
		return cfg, NewInvalidConfigError(fmt.Sprintf("unsupported config version: %s", version))
	}
	cfg.Normalize()
	return cfg, nil
}

// ToYAML serializes the config.
func (c Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Normalize fills defaults: a generated id, the current version and the tsv
// store.
func (c *Config) Normalize() {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Projectv = ConfigV2VersionString
	if c.Store.Kind == "" {
		c.Store.Kind = StoreTSV
	}
}

// Validate reports missing required fields.
func (c Config) Validate() error {
	var missing []string
	if c.Inputs.Methylation == "" {
		missing = append(missing, "inputs.methylation")
	}
	if c.Inputs.ContigBins == "" {
		missing = append(missing, "inputs.contig_bins")
	}
	if c.OutputDir == "" {
		missing = append(missing, "output_dir")
	}
	if len(missing) > 0 {
		return NewInvalidConfigError("missing " + strings.Join(missing, ", "))
	}
	if _, err := c.Store.Kind.defaultFile(); err != nil {
		return NewInvalidConfigError(err.Error())
	}
	if c.Watch && c.Store.Kind != StoreTSV {
		return NewInvalidConfigError(fmt.Sprintf("watch requires the %s store", StoreTSV))
	}
	return nil
}

// ExpandEnv expands environment variables in every path using the runtime
// environment.
func (c *Config) ExpandEnv(rt *toolkit.Runtime) {
	for _, p := range []*string{
		&c.Inputs.Methylation,
		&c.Inputs.ContigBins,
		&c.Inputs.Quality,
		&c.OutputDir,
		&c.Store.Path,
	} {
		*p = os.Expand(*p, rt.Get)
	}
}

// ConfigPath is the location of project.yaml.
func (c Config) ConfigPath() string {
	return filepath.Join(c.OutputDir, ConfigFile)
}

// StorePath is the resolved assignment store location. It is empty for the
// memory store.
func (c Config) StorePath() string {
	p := c.Store.Path
	if p == "" {
		p, _ = c.Store.Kind.defaultFile()
	}
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.OutputDir, p)
}
