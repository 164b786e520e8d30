package claim

import (
	"math"
	"testing"

	"github.com/joseph-ayodele/claims-tracker/internal/common"
)

func TestDecodeJSON(t *testing.T) {
	rec, err := DecodeJSON([]byte(`{"hospital":" City Care ","pincode":"400001","amount":12000.9,"patientName":"Ramesh","extra":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Hospital != "City Care" || rec.Amount != 12000 || rec.Pincode != "400001" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestDecodeJSON_OversizedAmountSaturates(t *testing.T) {
	rec, err := DecodeJSON([]byte(`{"amount":18446744073709551617}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Amount != math.MaxInt64 {
		t.Errorf("amount = %d, want %d", rec.Amount, int64(math.MaxInt64))
	}
}

func TestDecodeJSON_Rejects(t *testing.T) {
	cases := map[string]string{
		"malformed":        `{"hospital":`,
		"negative amount":  `{"amount":-1}`,
		"amount as string": `{"amount":"12000"}`,
		"pincode letters":  `{"pincode":"40A001"}`,
		"not an object":    `[1,2]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !common.IsInputError(err) {
				t.Errorf("expected input error, got %v", err)
			}
		})
	}
}
