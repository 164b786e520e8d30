// Package reference holds the hospital and disease lookup tables the fraud
// classifier checks claims against.
package reference

import (
	"strings"
	"time"
)

// HospitalRow is one row of the hospital dataset.
type HospitalRow struct {
	HospitalName     string  `parquet:"HospitalName"`
	Region           string  `parquet:"Region"`
	Pincode          string  `parquet:"Pincode"`
	AvgTreatmentCost float64 `parquet:"AvgTreatmentCost,optional"`
}

// DiseaseRow is one row of the disease dataset. Treatment is a comma-joined list.
type DiseaseRow struct {
	Disease   string `parquet:"Disease"`
	Treatment string `parquet:"Treatment"`
}

// Tables is an immutable snapshot of both datasets with case-insensitive
// indexes. A nil *Tables behaves like empty tables.
type Tables struct {
	Hospitals []HospitalRow
	Diseases  []DiseaseRow
	LoadedAt  time.Time

	hospitalsByName map[string][]int
	treatments      map[string]map[string]struct{}
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// NewTables builds the lookup indexes. The row slices are owned by the result.
func NewTables(hospitals []HospitalRow, diseases []DiseaseRow) *Tables {
	t := &Tables{
		Hospitals:       hospitals,
		Diseases:        diseases,
		LoadedAt:        time.Now(),
		hospitalsByName: make(map[string][]int, len(hospitals)),
		treatments:      make(map[string]map[string]struct{}, len(diseases)),
	}
	for i, h := range hospitals {
		k := key(h.HospitalName)
		if k == "" {
			continue
		}
		t.hospitalsByName[k] = append(t.hospitalsByName[k], i)
	}
	for _, d := range diseases {
		k := key(d.Disease)
		if k == "" {
			continue
		}
		// first row wins for duplicated diseases
		if _, dup := t.treatments[k]; dup {
			continue
		}
		t.treatments[k] = SplitTreatments(d.Treatment)
	}
	return t
}

// SplitTreatments turns "A, b ,C" into the set {a, b, c}.
func SplitTreatments(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		if p := key(part); p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

// HasHospital reports whether any row carries this hospital name.
func (t *Tables) HasHospital(name string) bool {
	if t == nil {
		return false
	}
	return len(t.hospitalsByName[key(name)]) > 0
}

// MatchHospital returns the first row whose name matches and whose region and
// pincode match whenever they are non-empty. Name and region compare
// case-insensitively; pincode compares as an exact trimmed string.
func (t *Tables) MatchHospital(name, region, pincode string) (HospitalRow, bool) {
	if t == nil {
		return HospitalRow{}, false
	}
	region = key(region)
	pincode = strings.TrimSpace(pincode)
	for _, i := range t.hospitalsByName[key(name)] {
		h := t.Hospitals[i]
		if region != "" && key(h.Region) != region {
			continue
		}
		if pincode != "" && strings.TrimSpace(h.Pincode) != pincode {
			continue
		}
		return h, true
	}
	return HospitalRow{}, false
}

// HasDisease reports whether the disease is listed.
func (t *Tables) HasDisease(disease string) bool {
	if t == nil {
		return false
	}
	_, ok := t.treatments[key(disease)]
	return ok
}

// IsValidTreatment reports whether treatment is in the disease's treatment set.
func (t *Tables) IsValidTreatment(disease, treatment string) bool {
	if t == nil {
		return false
	}
	set, ok := t.treatments[key(disease)]
	if !ok {
		return false
	}
	_, ok = set[key(treatment)]
	return ok
}

// HospitalCount returns the number of hospital rows.
func (t *Tables) HospitalCount() int {
	if t == nil {
		return 0
	}
	return len(t.Hospitals)
}

// DiseaseCount returns the number of disease rows.
func (t *Tables) DiseaseCount() int {
	if t == nil {
		return 0
	}
	return len(t.Diseases)
}
