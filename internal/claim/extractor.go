package claim

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Label patterns. Each captures the rest of the line after the label and an
// optional separator (":", "-", ".", "#"). Alternatives live in one pattern so the
// earliest occurrence in the document wins regardless of which label it uses.
var (
	reHospital    = fieldPattern(`hospital(?:[ \t]+name)?`)
	reRegion      = fieldPattern(`region`)
	rePincode     = regexp.MustCompile(`(?im)\bpin[ \t]*code\b[ \t]*[:\-]?[ \t]*(\d*)`)
	reDisease     = fieldPattern(`disease`)
	reTreatment   = fieldPattern(`treatment`)
	reAmount      = fieldPattern(`(?:claim(?:ed)?[ \t]+)?amount`)
	rePatientName = fieldPattern(`(?:patient|policy[ \t]+holder)[ \t]+name`)
	reClaimID     = fieldPattern(`claim[ \t]+(?:no|id|number)`)

	reCurrency = regexp.MustCompile(`(?i)₹|\$|\brs\.?|\binr\b|,`)
	reNumber   = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

func fieldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)\b` + label + `\b[ \t]*[:\-.#]*[ \t]*(.*)$`)
}

// Extractor turns raw document text into a Record. It holds no state and is
// safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract never fails: a field whose label is absent stays at its zero value.
func (e *Extractor) Extract(text string) Record {
	return Record{
		Hospital:    firstMatch(reHospital, text),
		Region:      firstMatch(reRegion, text),
		Pincode:     firstMatch(rePincode, text),
		Disease:     firstMatch(reDisease, text),
		Treatment:   firstMatch(reTreatment, text),
		Amount:      ParseAmount(firstMatch(reAmount, text)),
		PatientName: firstMatch(rePatientName, text),
		ClaimID:     firstMatch(reClaimID, text),
	}
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// StripCurrency removes the rupee and dollar signs, Rs./INR markers and
// thousands separators.
func StripCurrency(s string) string {
	return strings.TrimSpace(reCurrency.ReplaceAllString(s, ""))
}

// ParseAmount strips currency markers and thousands separators and truncates
// the remaining decimal toward zero. Anything unparsable yields 0.
func ParseAmount(s string) int64 {
	s = StripCurrency(s)
	num := reNumber.FindString(s)
	if num == "" {
		return 0
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0
	}
	return clampAmount(d)
}

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// clampAmount truncates d toward zero into [0, math.MaxInt64]. IntPart wraps
// silently past int64, so oversized amounts saturate instead.
func clampAmount(d decimal.Decimal) int64 {
	switch {
	case d.IsNegative():
		return 0
	case d.GreaterThan(maxAmount):
		return math.MaxInt64
	}
	return d.IntPart()
}
