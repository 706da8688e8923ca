package detect

import (
	"testing"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func infoTypes(findings []Finding) []string {
	var out []string
	for _, f := range findings {
		out = append(out, f.InfoType)
	}
	return out
}

func TestScanFindsEachInfoType(t *testing.T) {
	tests := map[string]struct {
		text  string
		quote string
	}{
		"EMAIL_ADDRESS":             {"mail jane.doe@example.com today", "jane.doe@example.com"},
		"PHONE_NUMBER":              {"call (555) 123-4567 now", "(555) 123-4567"},
		"CREDIT_CARD_NUMBER":        {"card 4111 1111 1111 1111 exp", "4111 1111 1111 1111"},
		"US_SOCIAL_SECURITY_NUMBER": {"ssn 123-45-6789.", "123-45-6789"},
		"IP_ADDRESS":                {"from 10.0.0.1 ok", "10.0.0.1"},
	}
	for infoType, tc := range tests {
		t.Run(infoType, func(t *testing.T) {
			findings := Scan(tc.text, []string{infoType}, dlppb.Likelihood_LIKELIHOOD_UNSPECIFIED)
			require.Len(t, findings, 1)
			f := findings[0]
			assert.Equal(t, infoType, f.InfoType)
			assert.Equal(t, tc.quote, f.Quote)
			assert.Equal(t, tc.quote, tc.text[f.Start:f.End])
		})
	}
}

func TestScanRejectsInvalidCandidates(t *testing.T) {
	for _, text := range []string{
		"4111 1111 1111 1112",
		"000-12-3456",
		"666-12-3456",
		"912-12-3456",
		"123-00-4567",
		"123-45-0000",
		"192.168.1.300",
	} {
		assert.Empty(t, Scan(text, nil, dlppb.Likelihood_POSSIBLE), text)
	}
}

func TestScanOrdersByPosition(t *testing.T) {
	text := "Email jane@example.com or call 555-123-4567."
	findings := Scan(text, nil, dlppb.Likelihood_POSSIBLE)
	assert.Equal(t, []string{"EMAIL_ADDRESS", "PHONE_NUMBER"}, infoTypes(findings))
}

func TestScanHonoursMinLikelihood(t *testing.T) {
	text := "jane@example.com 555-123-4567"
	findings := Scan(text, nil, dlppb.Likelihood_VERY_LIKELY)
	assert.Equal(t, []string{"EMAIL_ADDRESS"}, infoTypes(findings))
}

func TestScanIgnoresUnknownInfoTypes(t *testing.T) {
	assert.Empty(t, Scan("jane@example.com", []string{"PASSPORT"}, dlppb.Likelihood_POSSIBLE))
}

func TestCodepointRange(t *testing.T) {
	text := "héllo jane@example.com"
	findings := Scan(text, []string{"EMAIL_ADDRESS"}, dlppb.Likelihood_POSSIBLE)
	require.Len(t, findings, 1)

	assert.Equal(t, 7, findings[0].Start)
	start, end := findings[0].CodepointRange(text)
	assert.Equal(t, 6, start)
	assert.Equal(t, 22, end)
}

func TestReplace(t *testing.T) {
	text := "a jane@example.com b 123-45-6789 c"
	findings := Scan(text, nil, dlppb.Likelihood_POSSIBLE)

	got := Replace(text, findings, func(f Finding) string { return "[" + f.InfoType + "]" })
	assert.Equal(t, "a [EMAIL_ADDRESS] b [US_SOCIAL_SECURITY_NUMBER] c", got)
	assert.Equal(t, text, Replace(text, nil, nil))
}

func TestMask(t *testing.T) {
	dash := func(r rune) bool { return r == '-' }
	tests := []struct {
		name    string
		n       int
		reverse bool
		keep    func(rune) bool
		want    string
	}{
		{"all", 0, false, nil, "#########"},
		{"first four", 4, false, nil, "####-1111"},
		{"skip dash", 5, false, dash, "####-#111"},
		{"reverse", 4, true, nil, "4111-####"},
		{"leave four", -4, false, nil, "#####1111"},
		{"more than length", 20, false, dash, "####-####"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Mask("4111-1111", '#', tc.n, tc.reverse, tc.keep))
		})
	}
}

func TestDetectorsAreSorted(t *testing.T) {
	ds := Detectors()
	for i := 1; i < len(ds); i++ {
		assert.Less(t, ds[i-1].InfoType, ds[i].InfoType)
	}
	_, ok := Lookup("EMAIL_ADDRESS")
	assert.True(t, ok)
}
