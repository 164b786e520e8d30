package claim

import (
	"math"
	"testing"
)

const cleanClaim = `CLAIM FORM
Hospital: City Care
Region: North
Pincode: 400001
Disease: Diabetes
Treatment: Insulin Therapy
Amount: ₹12,000
Patient Name: Ramesh Kumar
Claim No: CLM12345
`

func TestExtract_CleanClaimScenario(t *testing.T) {
	got := NewExtractor().Extract(cleanClaim)
	want := Record{
		Hospital:    "City Care",
		Region:      "North",
		Pincode:     "400001",
		Disease:     "Diabetes",
		Treatment:   "Insulin Therapy",
		Amount:      12000,
		PatientName: "Ramesh Kumar",
		ClaimID:     "CLM12345",
	}
	if got != want {
		t.Errorf("Extract() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestExtract_LabelVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Record
	}{
		{
			name: "long labels",
			text: "hospital name - Apollo\nclaimed amount: Rs. 1,50,000.99\npolicy holder name: Asha\nclaim number: 77/A",
			want: Record{Hospital: "Apollo", Amount: 150000, PatientName: "Asha", ClaimID: "77/A"},
		},
		{
			name: "claim amount and claim id",
			text: "Claim ID: ABC99\nClaim Amount: INR 4500",
			want: Record{Amount: 4500, ClaimID: "ABC99"},
		},
		{
			name: "first match wins",
			text: "Disease: Fever\nDisease: Cancer\nPatient Name: A\nPolicy Holder Name: B",
			want: Record{Disease: "Fever", PatientName: "A"},
		},
		{
			name: "alternative labels race by position",
			text: "Policy Holder Name: B\nPatient Name: A",
			want: Record{PatientName: "B"},
		},
		{
			name: "empty value stays empty",
			text: "Hospital:\nRegion: South",
			want: Record{Region: "South"},
		},
		{
			name: "case insensitive and trimmed",
			text: "  TREATMENT:   Physiotherapy   \r\nPINCODE:560001",
			want: Record{Treatment: "Physiotherapy", Pincode: "560001"},
		},
		{
			name: "no labels",
			text: "nothing to see here",
			want: Record{},
		},
		{
			name: "claim no with dot",
			text: "Claim No.: X1",
			want: Record{ClaimID: "X1"},
		},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Extract(tt.text); got != tt.want {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"₹12,000", 12000},
		{"$ 1,234.99", 1234},
		{"Rs. 999.5", 999},
		{"INR 45,00,000", 4500000},
		{"12000.01 only", 12000},
		{"", 0},
		{"not stated", 0},
		{"-", 0},
		{"9223372036854775807", math.MaxInt64},
		{"9223372036854775808", math.MaxInt64},
		{"Rs. 18,446,744,073,709,551,617", math.MaxInt64},
		{"99999999999999999999999.75", math.MaxInt64},
	}
	for _, tt := range tests {
		if got := ParseAmount(tt.in); got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExtract_OversizedAmountSaturates(t *testing.T) {
	for _, in := range []string{"9223372036854775808", "18446744073709551617", "99999999999999999999999"} {
		r := NewExtractor().Extract("Hospital Name: City Care\nAmount: " + in + "\n")
		if r.Amount != math.MaxInt64 {
			t.Errorf("Extract amount %s = %d, want %d", in, r.Amount, int64(math.MaxInt64))
		}
	}
}

func TestRecordTrimmed(t *testing.T) {
	r := Record{Hospital: " City Care ", Treatment: "Physiotherapy ", Amount: -5}.Trimmed()
	if r.Hospital != "City Care" || r.Treatment != "Physiotherapy" || r.Amount != 0 {
		t.Errorf("unexpected %+v", r)
	}
}
