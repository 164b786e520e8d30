package claim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-tracker/internal/common"
)

// RecordJSONSchema describes the JSON accepted by the classify endpoints.
func RecordJSONSchema() map[string]any {
	props := map[string]any{
		"hospital":    stringProp(),
		"region":      stringProp(),
		"pincode":     map[string]any{"type": "string", "pattern": `^\s*\d*\s*$`},
		"disease":     stringProp(),
		"treatment":   stringProp(),
		"amount":      map[string]any{"type": "number", "minimum": 0},
		"patientName": stringProp(),
		"claimId":     stringProp(),
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func stringProp() map[string]any {
	return map[string]any{"type": "string", "maxLength": 512}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(RecordJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("claim.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("claim.json")
	})
	return schema, schemaErr
}

type recordJSON struct {
	Hospital    string      `json:"hospital"`
	Region      string      `json:"region"`
	Pincode     string      `json:"pincode"`
	Disease     string      `json:"disease"`
	Treatment   string      `json:"treatment"`
	Amount      json.Number `json:"amount"`
	PatientName string      `json:"patientName"`
	ClaimID     string      `json:"claimId"`
}

// DecodeJSON validates data against RecordJSONSchema and decodes it into a
// trimmed Record. Fractional amounts are truncated like extracted ones.
func DecodeJSON(data []byte) (Record, error) {
	s, err := compiledSchema()
	if err != nil {
		return Record{}, common.NewAppError(common.CodeConfig, "claim schema", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Record{}, common.NewAppError(common.CodeBadRequest, "malformed claim JSON", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	if err := s.Validate(v); err != nil {
		return Record{}, common.NewAppError(common.CodeBadRequest, "claim does not match schema", fmt.Errorf("%w: %v", common.ErrValidation, err))
	}

	var raw recordJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Record{}, common.NewAppError(common.CodeBadRequest, "decode claim", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
	}
	var amount int64
	if raw.Amount != "" {
		d, err := decimal.NewFromString(raw.Amount.String())
		if err != nil {
			return Record{}, common.NewAppError(common.CodeBadRequest, "claim amount", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		}
		amount = clampAmount(d)
	}
	return Record{
		Hospital:    raw.Hospital,
		Region:      raw.Region,
		Pincode:     raw.Pincode,
		Disease:     raw.Disease,
		Treatment:   raw.Treatment,
		Amount:      amount,
		PatientName: raw.PatientName,
		ClaimID:     raw.ClaimID,
	}.Trimmed(), nil
}
