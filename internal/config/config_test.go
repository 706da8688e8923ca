package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/hook"
)

const seedYAML = `
inspect_templates:
  - id: pii
    display_name: PII
    info_types: [EMAIL_ADDRESS, PHONE_NUMBER]
    min_likelihood: likely
    include_quote: true
deidentify_templates:
  - id: mask-cards
    parent: organizations/acme
    info_types: [CREDIT_CARD_NUMBER]
    transformation: mask
    masking_character: "#"
    number_to_mask: -4
`

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SEED_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	for _, key := range []string{"PORT", "JOB_START_DELAY", "JOB_DURATION"} {
		t.Setenv(key, "")
	}
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("PROJECT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "fake-project", cfg.ProjectID)
	assert.Equal(t, time.Second, cfg.JobStartDelay)
	assert.Equal(t, 5*time.Second, cfg.JobDuration)
	assert.Empty(t, cfg.Seed.InspectTemplates)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))
	t.Setenv("SEED_FILE", path)
	t.Setenv("JOB_DURATION", "250ms")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("PROJECT_ID", "seeded")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.JobDuration)
	require.Len(t, cfg.Seed.InspectTemplates, 1)
	require.Len(t, cfg.Seed.DeidentifyTemplates, 1)

	inspect, err := cfg.Seed.InspectTemplates[0].InspectTemplate("projects/" + cfg.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "projects/seeded/inspectTemplates/pii", inspect.GetName())
	assert.Equal(t, dlppb.Likelihood_LIKELY, inspect.GetInspectConfig().GetMinLikelihood())
	assert.Len(t, inspect.GetInspectConfig().GetInfoTypes(), 2)
	assert.True(t, inspect.GetInspectConfig().GetIncludeQuote())

	deid, err := cfg.Seed.DeidentifyTemplates[0].DeidentifyTemplate("projects/" + cfg.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "organizations/acme/deidentifyTemplates/mask-cards", deid.GetName())
	mask := deid.GetDeidentifyConfig().GetInfoTypeTransformations().GetTransformations()[0].GetPrimitiveTransformation().GetCharacterMaskConfig()
	assert.Equal(t, "#", mask.GetMaskingCharacter())
	assert.Equal(t, int32(-4), mask.GetNumberToMask())
}

func TestLoadRejectsMalformedSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inspect_templates: {"), 0o644))
	t.Setenv("SEED_FILE", path)

	_, err := Load()
	require.Error(t, err)
}

func TestTemplateDefinitionErrors(t *testing.T) {
	_, err := TemplateDefinition{ID: "x", MinLikelihood: "sometimes"}.InspectTemplate("projects/p")
	assert.Error(t, err)

	_, err = TemplateDefinition{ID: "x", Transformation: "shred"}.DeidentifyTemplate("projects/p")
	assert.Error(t, err)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("DLP_EMULATOR_HOST", "")
	t.Setenv("DLP_ENDPOINT", "")
	t.Setenv("DLP_INSECURE", "")
	t.Setenv("DLP_POLL_INTERVAL", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("PROJECT_ID", "")

	cfg := LoadClient()
	assert.Equal(t, hook.DefaultEndpoint, cfg.Endpoint)
	assert.False(t, cfg.Insecure)
	assert.Empty(t, cfg.ProjectID)
	assert.Equal(t, hook.DefaultPollInterval, cfg.PollInterval)

	t.Setenv("DLP_EMULATOR_HOST", "localhost:9090")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "primary")
	t.Setenv("PROJECT_ID", "secondary")
	t.Setenv("DLP_POLL_INTERVAL", "2s")

	cfg = LoadClient()
	assert.Equal(t, "localhost:9090", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "primary", cfg.ProjectID)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "YES")
	t.Setenv("X_DURATION", "not-a-duration")

	assert.True(t, getEnvBool("X_BOOL", false))
	assert.True(t, getEnvBool("X_UNSET_BOOL", true))
	assert.Equal(t, time.Minute, getEnvDuration("X_DURATION", time.Minute))
}

func TestGetEnvDurationWarnsOnInvalidValue(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv("DLP_POLL_INTERVAL", "5")

	assert.Equal(t, hook.DefaultPollInterval, LoadClient().PollInterval)
	assert.Contains(t, buf.String(), "ignoring invalid duration")
	assert.Contains(t, buf.String(), "key=DLP_POLL_INTERVAL")
}
