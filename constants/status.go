package constants

import "strings"

// FraudStatus is the canonical verdict for a classified claim.
type FraudStatus string

// Stable values (stored in claims.fraud_status and returned to clients).
const (
	StatusClean      FraudStatus = "clean"
	StatusSuspicious FraudStatus = "suspicious"
	StatusFraudulent FraudStatus = "fraudulent"
)

var allStatuses = []FraudStatus{StatusClean, StatusSuspicious, StatusFraudulent}

// Severity orders statuses: fraudulent > suspicious > clean.
func (s FraudStatus) Severity() int {
	switch s {
	case StatusFraudulent:
		return 2
	case StatusSuspicious:
		return 1
	default:
		return 0
	}
}

func (s FraudStatus) String() string { return string(s) }

// Statuses returns all verdict values in ascending severity.
func Statuses() []FraudStatus {
	out := make([]FraudStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus parses a status filter value. Matching is case-insensitive.
func ParseStatus(input string) (FraudStatus, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, s := range allStatuses {
		if normalized == string(s) {
			return s, true
		}
	}
	return "", false
}

// JobStatus is the outcome of one document run in batch or watch mode.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusClassified JobStatus = "CLASSIFIED" // text extracted and verdict produced
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure
)
