// Package detect finds built-in DLP info types in free text and
// rewrites the matches.
package detect

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	dlppb "cloud.google.com/go/dlp/apiv2/dlppb"
)

// Finding is one match of a detector in a text.
type Finding struct {
	InfoType   string
	Quote      string
	Start, End int // byte offsets
	Likelihood dlppb.Likelihood
}

// CodepointRange converts the byte offsets of f into rune offsets of text.
func (f Finding) CodepointRange(text string) (int, int) {
	start := utf8.RuneCountInString(text[:f.Start])
	return start, start + utf8.RuneCountInString(f.Quote)
}

// Detector recognises one info type.
type Detector struct {
	InfoType    string
	DisplayName string
	Description string
	Likelihood  dlppb.Likelihood

	pattern *regexp.Regexp
	valid   func(string) bool
}

func (d *Detector) find(text string) []Finding {
	var out []Finding
	for _, loc := range d.pattern.FindAllStringSubmatchIndex(text, -1) {
		// Prefer the first capture group when the pattern has one.
		start, end := loc[0], loc[1]
		if len(loc) >= 4 && loc[2] >= 0 {
			start, end = loc[2], loc[3]
		}
		quote := text[start:end]
		if d.valid != nil && !d.valid(quote) {
			continue
		}
		out = append(out, Finding{
			InfoType:   d.InfoType,
			Quote:      quote,
			Start:      start,
			End:        end,
			Likelihood: d.Likelihood,
		})
	}
	return out
}

var detectors = []*Detector{
	{
		InfoType:    "CREDIT_CARD_NUMBER",
		DisplayName: "Credit card number",
		Description: "A credit card number is 12 to 19 digits long, validated with the Luhn checksum.",
		Likelihood:  dlppb.Likelihood_VERY_LIKELY,
		pattern:     regexp.MustCompile(`\b(\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}|\d{15,16})\b`),
		valid:       luhn,
	},
	{
		InfoType:    "EMAIL_ADDRESS",
		DisplayName: "Email address",
		Description: "An email address identifies the mailbox that emails are sent to or from.",
		Likelihood:  dlppb.Likelihood_VERY_LIKELY,
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
	},
	{
		InfoType:    "IP_ADDRESS",
		DisplayName: "IP address",
		Description: "An Internet Protocol (IP) version 4 address.",
		Likelihood:  dlppb.Likelihood_LIKELY,
		pattern:     regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		valid:       ipv4,
	},
	{
		InfoType:    "PHONE_NUMBER",
		DisplayName: "Phone number",
		Description: "A telephone number in North American format.",
		Likelihood:  dlppb.Likelihood_LIKELY,
		pattern:     regexp.MustCompile(`(?:\+1[ .-]?)?\(?\b\d{3}\)?[ .-]?\d{3}[ .-]\d{4}\b`),
	},
	{
		InfoType:    "US_SOCIAL_SECURITY_NUMBER",
		DisplayName: "US Social Security number",
		Description: "A United States Social Security number (SSN) is a 9-digit number issued to US citizens.",
		Likelihood:  dlppb.Likelihood_LIKELY,
		pattern:     regexp.MustCompile(`\b(\d{3}-\d{2}-\d{4})\b`),
		valid:       ssn,
	},
}

// Detectors returns the built-in detectors sorted by info type.
func Detectors() []*Detector {
	return detectors
}

// Lookup returns the detector for an info type.
func Lookup(infoType string) (*Detector, bool) {
	for _, d := range detectors {
		if d.InfoType == infoType {
			return d, true
		}
	}
	return nil, false
}

// Scan runs the detectors named by infoTypes (all of them when empty)
// and returns findings at or above minLikelihood ordered by position.
// Overlapping findings keep the earlier, longer match.
func Scan(text string, infoTypes []string, minLikelihood dlppb.Likelihood) []Finding {
	if minLikelihood == dlppb.Likelihood_LIKELIHOOD_UNSPECIFIED {
		minLikelihood = dlppb.Likelihood_POSSIBLE
	}

	active := detectors
	if len(infoTypes) > 0 {
		active = nil
		for _, name := range infoTypes {
			if d, ok := Lookup(name); ok {
				active = append(active, d)
			}
		}
	}

	var all []Finding
	for _, d := range active {
		if d.Likelihood < minLikelihood {
			continue
		}
		all = append(all, d.find(text)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End > all[j].End
	})

	out := all[:0]
	end := -1
	for _, f := range all {
		if f.Start < end {
			continue
		}
		out = append(out, f)
		end = f.End
	}
	return out
}

// Replace rewrites every finding in text with the value returned by fn.
// Findings must not overlap.
func Replace(text string, findings []Finding, fn func(Finding) string) string {
	var b strings.Builder
	last := 0
	for _, f := range findings {
		b.WriteString(text[last:f.Start])
		b.WriteString(fn(f))
		last = f.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// Mask replaces characters of s with mask, from the start or, when
// reverse is set, from the end. n > 0 masks at most n characters, n == 0
// masks all of them and n < 0 leaves -n characters unmasked. Characters
// for which keep reports true are skipped and never counted.
func Mask(s string, mask rune, n int, reverse bool, keep func(rune) bool) string {
	runes := []rune(s)
	maskable := 0
	for _, r := range runes {
		if keep == nil || !keep(r) {
			maskable++
		}
	}
	switch {
	case n == 0 || n > maskable:
		n = maskable
	case n < 0:
		n = max(maskable+n, 0)
	}
	masked := 0
	for k := 0; k < len(runes) && masked < n; k++ {
		i := k
		if reverse {
			i = len(runes) - 1 - k
		}
		if keep != nil && keep(runes[i]) {
			continue
		}
		runes[i] = mask
		masked++
	}
	return string(runes)
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func luhn(s string) bool {
	d := digits(s)
	if len(d) < 12 || len(d) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(d) - 1; i >= 0; i-- {
		n := int(d[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// ssn rejects area 000, 666 and 900-999, group 00 and serial 0000.
func ssn(s string) bool {
	d := digits(s)
	if len(d) != 9 {
		return false
	}
	area, _ := strconv.Atoi(d[0:3])
	group, _ := strconv.Atoi(d[3:5])
	serial, _ := strconv.Atoi(d[5:9])
	return area != 0 && area != 666 && area < 900 && group != 0 && serial != 0
}

func ipv4(s string) bool {
	for _, part := range strings.Split(s, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}
