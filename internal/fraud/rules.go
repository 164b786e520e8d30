package fraud

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-tracker/constants"
)

// Rule names, stable across releases; stored with each claim.
const (
	RuleMissingCriticalField = "missing_critical_field"
	RulePlaceholderText      = "placeholder_text"
	RuleHospitalIdentity     = "hospital_identity"
	RuleUnknownDisease       = "unknown_disease"
	RuleTreatmentMismatch    = "treatment_mismatch"
	RuleAmountAboveAverage   = "amount_above_average"
	RuleHighAmount           = "high_amount"
	RuleEmergencyTreatment   = "emergency_treatment"
	RuleExpensiveForCommon   = "expensive_for_common_condition"
	RuleIrregularClaimID     = "irregular_claim_id"
	RuleRoundAmount          = "round_amount"
	RuleGenericPatientName   = "generic_patient_name"
)

// Reasons for rules whose message does not embed claim values.
const (
	ReasonMissingCritical  = "Missing critical claim information"
	ReasonPlaceholder      = "Document contains template/placeholder text"
	ReasonMissingLocation  = "Missing hospital, region, or pincode information"
	ReasonHospitalUnknown  = "Hospital not in dataset"
	ReasonHospitalMismatch = "Hospital does not match given region or pincode"
	ReasonHighAmount       = "High claim amount requires additional verification"
	ReasonEmergency        = "Emergency treatment requires additional review"
	ReasonExpensiveCommon  = "Expensive treatment for common condition requires review"
	ReasonIrregularID      = "Claim ID format appears irregular"
	ReasonRoundAmount      = "Suspicious round-number claim amount"
	ReasonGenericName      = "Patient name appears to be placeholder or generic"
)

var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`enter\s+\w+\s+name`),
	regexp.MustCompile(`enter\s+claimed\s+amount`),
	regexp.MustCompile(`provide\s+any\s+extra`),
	regexp.MustCompile(`patient\s+name`),
	regexp.MustCompile(`hospital\s+name`),
	regexp.MustCompile(`claim\s+amount`),
}

var (
	emergencyKeywords = []string{"emergency", "urgent", "critical", "immediate", "trauma"}
	expensiveKeywords = []string{"surgery", "operation", "transplant", "bypass", "angioplasty"}
	commonDiseases    = []string{"fever", "cold", "headache", "cough"}
	genericNames      = map[string]struct{}{
		"john doe":       {},
		"jane doe":       {},
		"test user":      {},
		"sample patient": {},
		"demo patient":   {},
	}
)

// chain returns the rules in evaluation order. Every hard-fail rule precedes
// every soft-flag rule so fraud always dominates suspicion.
func chain() []rule {
	fraudulent, suspicious := constants.StatusFraudulent, constants.StatusSuspicious
	return []rule{
		{RuleMissingCriticalField, fraudulent, missingCriticalField},
		{RulePlaceholderText, fraudulent, placeholderText},
		{RuleHospitalIdentity, fraudulent, hospitalIdentity},
		{RuleUnknownDisease, fraudulent, unknownDisease},
		{RuleTreatmentMismatch, fraudulent, treatmentMismatch},

		{RuleAmountAboveAverage, suspicious, amountAboveAverage},
		{RuleHighAmount, suspicious, highAmount},
		{RuleEmergencyTreatment, suspicious, emergencyTreatment},
		{RuleExpensiveForCommon, suspicious, expensiveForCommon},
		{RuleIrregularClaimID, suspicious, irregularClaimID},
		{RuleRoundAmount, suspicious, roundAmount},
		{RuleGenericPatientName, suspicious, genericPatientName},
	}
}

func missingCriticalField(ev *evaluation) (string, bool) {
	r := ev.rec
	if r.Hospital == "" || r.Disease == "" || r.Treatment == "" || r.PatientName == "" {
		return ReasonMissingCritical, true
	}
	return "", false
}

func placeholderText(ev *evaluation) (string, bool) {
	r := ev.rec
	combined := strings.ToLower(strings.Join([]string{r.Hospital, r.Disease, r.Treatment, r.PatientName}, " "))
	for _, re := range placeholderPatterns {
		if re.MatchString(combined) {
			return ReasonPlaceholder, true
		}
	}
	return "", false
}

func hospitalIdentity(ev *evaluation) (string, bool) {
	r := ev.rec
	if ev.opts.StrictLocation && (r.Region == "" || r.Pincode == "") {
		return ReasonMissingLocation, true
	}
	if !ev.tables.HasHospital(r.Hospital) {
		return ReasonHospitalUnknown, true
	}
	row, ok := ev.tables.MatchHospital(r.Hospital, r.Region, r.Pincode)
	if !ok {
		return ReasonHospitalMismatch, true
	}
	ev.hospital, ev.hasMatched = row, true
	return "", false
}

func unknownDisease(ev *evaluation) (string, bool) {
	if !ev.tables.HasDisease(ev.rec.Disease) {
		return fmt.Sprintf("Disease '%s' not found in dataset", ev.rec.Disease), true
	}
	return "", false
}

func treatmentMismatch(ev *evaluation) (string, bool) {
	r := ev.rec
	if !ev.tables.IsValidTreatment(r.Disease, r.Treatment) {
		return fmt.Sprintf("Treatment '%s' does not match disease '%s'", r.Treatment, r.Disease), true
	}
	return "", false
}

func amountAboveAverage(ev *evaluation) (string, bool) {
	avg := ev.hospital.AvgTreatmentCost
	if !ev.hasMatched || avg <= 0 || ev.rec.Amount <= 0 {
		return "", false
	}
	avgDec := decimal.NewFromFloat(avg)
	limit := avgDec.Mul(decimal.NewFromFloat(ev.opts.AvgCostMultiplier))
	if decimal.NewFromInt(ev.rec.Amount).GreaterThan(limit) {
		return fmt.Sprintf("Claim amount ₹%d unusually high compared to average ₹%s", ev.rec.Amount, avgDec.String()), true
	}
	return "", false
}

func highAmount(ev *evaluation) (string, bool) {
	if ev.rec.Amount > ev.opts.HighAmount {
		return ReasonHighAmount, true
	}
	return "", false
}

func emergencyTreatment(ev *evaluation) (string, bool) {
	if containsAny(strings.ToLower(ev.rec.Treatment), emergencyKeywords) {
		return ReasonEmergency, true
	}
	return "", false
}

func expensiveForCommon(ev *evaluation) (string, bool) {
	if containsAny(strings.ToLower(ev.rec.Treatment), expensiveKeywords) &&
		containsAny(strings.ToLower(ev.rec.Disease), commonDiseases) {
		return ReasonExpensiveCommon, true
	}
	return "", false
}

func irregularClaimID(ev *evaluation) (string, bool) {
	if utf8.RuneCountInString(ev.rec.ClaimID) < ev.opts.MinClaimIDLength {
		return ReasonIrregularID, true
	}
	return "", false
}

func roundAmount(ev *evaluation) (string, bool) {
	a, step := ev.rec.Amount, ev.opts.RoundAmountStep
	if step > 0 && a > ev.opts.RoundAmountFloor && a%step == 0 {
		return ReasonRoundAmount, true
	}
	return "", false
}

func genericPatientName(ev *evaluation) (string, bool) {
	if _, ok := genericNames[strings.ToLower(ev.rec.PatientName)]; ok {
		return ReasonGenericName, true
	}
	return "", false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
