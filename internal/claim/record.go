// Package claim holds the structured claim record and the text field extractor that produces it.
package claim

import (
	"strings"

	"github.com/joseph-ayodele/claims-tracker/constants"
)

// Record is the structured view of a claim document. Every field is optional.
type Record struct {
	Hospital    string `json:"hospital"`
	Region      string `json:"region"`
	Pincode     string `json:"pincode"`
	Disease     string `json:"disease"`
	Treatment   string `json:"treatment"`
	Amount      int64  `json:"amount"`
	PatientName string `json:"patientName"`
	ClaimID     string `json:"claimId"`
}

// Trimmed returns a copy with every string field whitespace-trimmed.
func (r Record) Trimmed() Record {
	r.Hospital = strings.TrimSpace(r.Hospital)
	r.Region = strings.TrimSpace(r.Region)
	r.Pincode = strings.TrimSpace(r.Pincode)
	r.Disease = strings.TrimSpace(r.Disease)
	r.Treatment = strings.TrimSpace(r.Treatment)
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.ClaimID = strings.TrimSpace(r.ClaimID)
	if r.Amount < 0 {
		r.Amount = 0
	}
	return r
}

// Result is a Record merged with the classifier's verdict.
type Result struct {
	Record
	FraudStatus constants.FraudStatus `json:"fraudStatus"`
	FraudReason string                `json:"fraudReason"`
	FraudRule   string                `json:"fraudRule,omitempty"`
}
