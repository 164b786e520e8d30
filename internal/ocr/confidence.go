package ocr

import (
	"regexp"
	"strings"
)

var (
	reClaimLabel = regexp.MustCompile(`(?im)^\s*(hospital|disease|treatment|patient name|claim (no|id|number))\b`)
	reCurr       = regexp.MustCompile(`\b(inr|rs\.?|usd)\b|[$₹]`)
	reAmount     = regexp.MustCompile(`\b\d{1,3}(,\d{2,3})+(\.\d{2})?\b|\b\d{4,}(\.\d{2})?\b`)
)

// heuristicConfidence scores how much the text looks like a filled claim form.
func heuristicConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	labels := len(reClaimLabel.FindAllString(txt, -1))
	if labels > 4 {
		labels = 4
	}
	score += 0.1 * float32(labels)
	if reCurr.MatchString(txtL) {
		score += 0.1
	}
	if reAmount.MatchString(txtL) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
