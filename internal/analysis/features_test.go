package analysis

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// linkRecords builds n numeric link-domain records.
func linkRecords(n int) []Record {
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, Record{
			"throughput":  100.0 + float64(i),
			"utilization": 0.5,
			"errors":      float64(i % 3),
			"discards":    0.0,
		})
	}
	return records
}

func TestFeatureColumns(t *testing.T) {
	tests := []struct {
		domain Domain
		want   int
	}{
		{DomainNetwork, 5},
		{DomainSite, 6},
		{DomainLink, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.domain), func(t *testing.T) {
			cols, err := tt.domain.FeatureColumns()
			if err != nil {
				t.Fatalf("FeatureColumns: %v", err)
			}
			if len(cols) != tt.want {
				t.Errorf("expected %d columns, got %d", tt.want, len(cols))
			}
		})
	}
}

func TestFeatureColumns_UnknownDomain(t *testing.T) {
	_, err := Domain("device").FeatureColumns()
	if !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("expected ErrUnknownDomain, got %v", err)
	}
}

func TestExtractFeatures_BasicMatrix(t *testing.T) {
	records := linkRecords(12)
	fs, err := ExtractFeatures(records, DomainLink, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(fs.Matrix) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(fs.Matrix))
	}
	wantCols := []string{"throughput", "utilization", "errors", "discards"}
	if len(fs.Columns) != len(wantCols) {
		t.Fatalf("expected %d columns, got %v", len(wantCols), fs.Columns)
	}
	for i, c := range wantCols {
		if fs.Columns[i] != c {
			t.Errorf("column %d: got %q, want %q (declared order must be preserved)", i, fs.Columns[i], c)
		}
	}
	if fs.Matrix[3][0] != 103.0 {
		t.Errorf("expected matrix[3][0] = 103, got %v", fs.Matrix[3][0])
	}
}

func TestExtractFeatures_InsufficientData(t *testing.T) {
	_, err := ExtractFeatures(linkRecords(5), DomainLink, 10)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestExtractFeatures_CustomMinSamples(t *testing.T) {
	if _, err := ExtractFeatures(linkRecords(5), DomainLink, 5); err != nil {
		t.Fatalf("expected 5 records to satisfy min samples of 5, got %v", err)
	}
}

func TestExtractFeatures_MissingValuesImputeZero(t *testing.T) {
	records := linkRecords(12)
	delete(records[4], "errors")
	records[7]["discards"] = nil

	fs, err := ExtractFeatures(records, DomainLink, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if fs.Matrix[4][2] != 0 {
		t.Errorf("missing value should impute to 0, got %v", fs.Matrix[4][2])
	}
	if fs.Matrix[7][3] != 0 {
		t.Errorf("nil value should impute to 0, got %v", fs.Matrix[7][3])
	}
	if len(fs.Columns) != 4 {
		t.Errorf("partially missing columns must stay resolved, got %v", fs.Columns)
	}
}

func TestExtractFeatures_NonNumericColumnDropped(t *testing.T) {
	records := linkRecords(12)
	records[2]["utilization"] = "high"

	fs, err := ExtractFeatures(records, DomainLink, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, c := range fs.Columns {
		if c == "utilization" {
			t.Fatal("column with a non-numeric value must be dropped")
		}
	}
	if len(fs.Columns) != 3 {
		t.Errorf("expected 3 columns, got %v", fs.Columns)
	}
}

func TestExtractFeatures_UndeclaredColumnsIgnored(t *testing.T) {
	records := linkRecords(12)
	for _, r := range records {
		r["vendor"] = "acme"
		r["temperature"] = 40.0
	}
	fs, err := ExtractFeatures(records, DomainLink, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(fs.Columns) != 4 {
		t.Errorf("undeclared columns must not leak into the schema, got %v", fs.Columns)
	}
}

func TestExtractFeatures_NoNumericColumns(t *testing.T) {
	records := make([]Record, 12)
	for i := range records {
		records[i] = Record{"throughput": "fast", "status": "up"}
	}
	_, err := ExtractFeatures(records, DomainLink, 0)
	if !errors.Is(err, ErrInsufficientFeatures) {
		t.Fatalf("expected ErrInsufficientFeatures, got %v", err)
	}
}

func TestExtractFeatures_IntegerValues(t *testing.T) {
	records := make([]Record, 12)
	for i := range records {
		records[i] = Record{
			"throughput":  i,        // int
			"utilization": int64(i), // int64
			"errors":      uint(i),
			"discards":    float32(i),
		}
	}
	fs, err := ExtractFeatures(records, DomainLink, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(fs.Columns) != 4 {
		t.Fatalf("integer-typed columns must resolve, got %v", fs.Columns)
	}
	if fs.Matrix[5][0] != 5.0 {
		t.Errorf("expected int coerced to 5.0, got %v", fs.Matrix[5][0])
	}
}

func TestExtractFeatures_Timestamps(t *testing.T) {
	ts := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	records := linkRecords(12)
	records[0]["timestamp"] = ts
	records[1]["timestamp"] = ts.Format(time.RFC3339)
	records[2]["timestamp"] = "not a time"

	fs, err := ExtractFeatures(records, DomainLink, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !fs.Timestamps[0].Equal(ts) {
		t.Errorf("time.Time timestamp: got %v, want %v", fs.Timestamps[0], ts)
	}
	if !fs.Timestamps[1].Equal(ts) {
		t.Errorf("RFC3339 timestamp: got %v, want %v", fs.Timestamps[1], ts)
	}
	if !fs.Timestamps[2].IsZero() {
		t.Errorf("unparseable timestamp should be zero, got %v", fs.Timestamps[2])
	}
}

func TestExtractFeatures_AllDomains(t *testing.T) {
	for _, domain := range []Domain{DomainNetwork, DomainSite, DomainLink} {
		t.Run(string(domain), func(t *testing.T) {
			cols, _ := domain.FeatureColumns()
			records := make([]Record, 15)
			for i := range records {
				rec := Record{}
				for j, c := range cols {
					rec[c] = float64(i*len(cols) + j)
				}
				records[i] = rec
			}
			fs, err := ExtractFeatures(records, domain, 0)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if len(fs.Columns) != len(cols) {
				t.Errorf("expected %d columns, got %d", len(cols), len(fs.Columns))
			}
			if len(fs.Matrix[0]) != len(cols) {
				t.Errorf("row width %d, want %d", len(fs.Matrix[0]), len(cols))
			}
		})
	}
}

func TestResolveColumns_SeenButNeverNumeric(t *testing.T) {
	// A column that only ever appears as nil is not "seen".
	records := make([]Record, 12)
	for i := range records {
		records[i] = Record{"throughput": 1.0 * float64(i), "errors": nil}
	}
	fs, err := ExtractFeatures(records, DomainLink, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if fmt.Sprint(fs.Columns) != "[throughput]" {
		t.Errorf("expected only throughput resolved, got %v", fs.Columns)
	}
}
