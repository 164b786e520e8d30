package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-tracker/internal/claim"
)

// Claim is a classified claim as stored in the history table.
type Claim struct {
	ID               uuid.UUID `json:"id"`
	SourceName       string    `json:"sourceName"`
	ExtractionMethod string    `json:"extractionMethod,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	claim.Result
}
