package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"gopkg.in/yaml.v3"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/hook"
)

// TemplateDefinition seeds one template into the emulator.
type TemplateDefinition struct {
	Parent      string   `yaml:"parent"`
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	Description string   `yaml:"description"`
	InfoTypes   []string `yaml:"info_types"`
	// MinLikelihood is an enum name such as LIKELY. Inspect only.
	MinLikelihood string `yaml:"min_likelihood"`
	IncludeQuote  bool   `yaml:"include_quote"`
	// Transformation is replace_with_info_type (default), redact,
	// replace or mask. Deidentify only.
	Transformation string `yaml:"transformation"`
	ReplaceWith    string `yaml:"replace_with"`
	MaskingChar    string `yaml:"masking_character"`
	NumberToMask   int32  `yaml:"number_to_mask"`
}

type SeedConfig struct {
	InspectTemplates    []TemplateDefinition `yaml:"inspect_templates"`
	DeidentifyTemplates []TemplateDefinition `yaml:"deidentify_templates"`
}

// Config configures the emulator.
type Config struct {
	Port          string
	SeedFile      string
	LogLevel      string
	ProjectID     string
	JobStartDelay time.Duration
	JobDuration   time.Duration
	Seed          *SeedConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "9090"),
		SeedFile:      getEnv("SEED_FILE", "./dlp.yaml"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		ProjectID:     projectID("fake-project"),
		JobStartDelay: getEnvDuration("JOB_START_DELAY", time.Second),
		JobDuration:   getEnvDuration("JOB_DURATION", 5*time.Second),
	}

	seed, err := loadSeedConfig(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("loading seed config: %w", err)
	}
	cfg.Seed = seed

	return cfg, nil
}

// LoadClient builds a hook configuration from the environment. Setting
// DLP_EMULATOR_HOST points the hook at an emulator without TLS.
func LoadClient() hook.Config {
	cfg := hook.Config{
		Endpoint:     getEnv("DLP_ENDPOINT", hook.DefaultEndpoint),
		Insecure:     getEnvBool("DLP_INSECURE", false),
		ProjectID:    projectID(""),
		PollInterval: getEnvDuration("DLP_POLL_INTERVAL", hook.DefaultPollInterval),
	}
	if host := os.Getenv("DLP_EMULATOR_HOST"); host != "" {
		cfg.Endpoint = host
		cfg.Insecure = true
	}
	return cfg
}

func projectID(fallback string) string {
	return getEnv("GOOGLE_CLOUD_PROJECT", getEnv("PROJECT_ID", fallback))
}

func loadSeedConfig(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No seed file is fine - templates can be created via API
			return &SeedConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// InspectTemplate builds the template described by d under defaultParent
// unless d names its own parent.
func (d TemplateDefinition) InspectTemplate(defaultParent string) (*dlppb.InspectTemplate, error) {
	likelihood := dlppb.Likelihood_LIKELIHOOD_UNSPECIFIED
	if d.MinLikelihood != "" {
		v, ok := dlppb.Likelihood_value[strings.ToUpper(d.MinLikelihood)]
		if !ok {
			return nil, fmt.Errorf("template %s: unknown likelihood %q", d.ID, d.MinLikelihood)
		}
		likelihood = dlppb.Likelihood(v)
	}
	return &dlppb.InspectTemplate{
		Name:        d.name(defaultParent, "inspectTemplates"),
		DisplayName: d.DisplayName,
		Description: d.Description,
		InspectConfig: &dlppb.InspectConfig{
			InfoTypes:     d.infoTypes(),
			MinLikelihood: likelihood,
			IncludeQuote:  d.IncludeQuote,
		},
	}, nil
}

// DeidentifyTemplate builds the template described by d under
// defaultParent unless d names its own parent.
func (d TemplateDefinition) DeidentifyTemplate(defaultParent string) (*dlppb.DeidentifyTemplate, error) {
	pt := &dlppb.PrimitiveTransformation{}
	switch d.Transformation {
	case "", "replace_with_info_type":
		pt.Transformation = &dlppb.PrimitiveTransformation_ReplaceWithInfoTypeConfig{
			ReplaceWithInfoTypeConfig: &dlppb.ReplaceWithInfoTypeConfig{},
		}
	case "redact":
		pt.Transformation = &dlppb.PrimitiveTransformation_RedactConfig{RedactConfig: &dlppb.RedactConfig{}}
	case "replace":
		pt.Transformation = &dlppb.PrimitiveTransformation_ReplaceConfig{ReplaceConfig: &dlppb.ReplaceValueConfig{
			NewValue: &dlppb.Value{Type: &dlppb.Value_StringValue{StringValue: d.ReplaceWith}},
		}}
	case "mask":
		pt.Transformation = &dlppb.PrimitiveTransformation_CharacterMaskConfig{CharacterMaskConfig: &dlppb.CharacterMaskConfig{
			MaskingCharacter: d.MaskingChar,
			NumberToMask:     d.NumberToMask,
		}}
	default:
		return nil, fmt.Errorf("template %s: unknown transformation %q", d.ID, d.Transformation)
	}

	return &dlppb.DeidentifyTemplate{
		Name:        d.name(defaultParent, "deidentifyTemplates"),
		DisplayName: d.DisplayName,
		Description: d.Description,
		DeidentifyConfig: &dlppb.DeidentifyConfig{
			Transformation: &dlppb.DeidentifyConfig_InfoTypeTransformations{
				InfoTypeTransformations: &dlppb.InfoTypeTransformations{
					Transformations: []*dlppb.InfoTypeTransformations_InfoTypeTransformation{{
						InfoTypes:               d.infoTypes(),
						PrimitiveTransformation: pt,
					}},
				},
			},
		},
	}, nil
}

func (d TemplateDefinition) name(defaultParent, collection string) string {
	parent := d.Parent
	if parent == "" {
		parent = defaultParent
	}
	return fmt.Sprintf("%s/%s/%s", parent, collection, d.ID)
}

func (d TemplateDefinition) infoTypes() []*dlppb.InfoType {
	var out []*dlppb.InfoType
	for _, name := range d.InfoTypes {
		out = append(out, &dlppb.InfoType{Name: name})
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("ignoring invalid duration", "key", key, "value", v, "default", fallback.String())
		return fallback
	}
	return d
}
