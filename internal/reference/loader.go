package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-tracker/internal/claim"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
)

// Column headers, compared after trimming and case folding.
const (
	colHospitalName     = "HospitalName"
	colRegion           = "Region"
	colPincode          = "Pincode"
	colAvgTreatmentCost = "AvgTreatmentCost"
	colDisease          = "Disease"
	colTreatment        = "Treatment"
)

// ErrUnsupportedDataset is returned for dataset files that are not xlsx, csv or parquet.
var ErrUnsupportedDataset = errors.New("unsupported dataset format")

// LoadHospitals reads the hospital dataset from an .xlsx, .csv or .parquet file.
func LoadHospitals(path string) ([]HospitalRow, error) {
	if isParquet(path) {
		return readParquet[HospitalRow](path)
	}
	records, err := readTabular(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(records, colHospitalName, colRegion, colPincode, colAvgTreatmentCost)
	if err != nil {
		return nil, common.WrapError(err, path)
	}
	out := make([]HospitalRow, 0, len(records))
	for i, rec := range records[1:] {
		name := cell(rec, cols[colHospitalName])
		if name == "" {
			continue
		}
		cost, err := parseCost(cell(rec, cols[colAvgTreatmentCost]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: AvgTreatmentCost: %w", path, i+2, err)
		}
		out = append(out, HospitalRow{
			HospitalName:     name,
			Region:           cell(rec, cols[colRegion]),
			Pincode:          cell(rec, cols[colPincode]),
			AvgTreatmentCost: cost,
		})
	}
	return out, nil
}

// LoadDiseases reads the disease dataset from an .xlsx, .csv or .parquet file.
func LoadDiseases(path string) ([]DiseaseRow, error) {
	if isParquet(path) {
		return readParquet[DiseaseRow](path)
	}
	records, err := readTabular(path)
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(records, colDisease, colTreatment)
	if err != nil {
		return nil, common.WrapError(err, path)
	}
	out := make([]DiseaseRow, 0, len(records))
	for _, rec := range records[1:] {
		d := cell(rec, cols[colDisease])
		if d == "" {
			continue
		}
		out = append(out, DiseaseRow{Disease: d, Treatment: cell(rec, cols[colTreatment])})
	}
	return out, nil
}

// Load reads both datasets and builds a snapshot.
func Load(hospitalsPath, diseasesPath string) (*Tables, error) {
	h, err := LoadHospitals(hospitalsPath)
	if err != nil {
		return nil, fmt.Errorf("load hospitals: %w", err)
	}
	d, err := LoadDiseases(diseasesPath)
	if err != nil {
		return nil, fmt.Errorf("load diseases: %w", err)
	}
	return NewTables(h, d), nil
}

func isParquet(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".parquet")
}

func readTabular(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDataset, path)
	}
}

// readXLSX returns the rows of the first sheet.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readParquet[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	r := parquet.NewGenericReader[T](pf)
	defer r.Close()

	out := make([]T, 0, r.NumRows())
	buf := make([]T, 256)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}
	return out, nil
}

// columnIndex maps the wanted headers to their positions in the header row.
func columnIndex(records [][]string, want ...string) (map[string]int, error) {
	if len(records) == 0 {
		return nil, errors.New("dataset is empty")
	}
	have := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		have[key(h)] = i
	}
	cols := make(map[string]int, len(want))
	var missing []string
	for _, w := range want {
		i, ok := have[key(w)]
		if !ok {
			missing = append(missing, w)
			continue
		}
		cols[w] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parseCost accepts the currency forms claims use ("12,000.50", "₹ 12000",
// "Rs. 12000", "INR 12000"); blank means no average.
func parseCost(s string) (float64, error) {
	s = claim.StripCurrency(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, nil
	}
	return d.InexactFloat64(), nil
}
