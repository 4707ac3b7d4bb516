package warehouse

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/bigquery"
)

func TestTableFor(t *testing.T) {
	tests := []struct {
		country    string
		reportType string
		want       string
		wantErr    bool
	}{
		{"US", ReportTransactions, "us_transactions", false},
		{"UK", ReportProducts, "uk_products", false},
		{"DE", ReportTransactions, "", true},
		{"US", "refunds", "", true},
	}

	for _, tt := range tests {
		got, err := TableFor(tt.country, tt.reportType)
		if (err != nil) != tt.wantErr {
			t.Errorf("TableFor(%s, %s) error = %v, wantErr %v", tt.country, tt.reportType, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("TableFor(%s, %s) = %q, want %q", tt.country, tt.reportType, got, tt.want)
		}
	}
}

// The load files are NDJSON keyed by json tags; the table schemas must
// declare exactly those columns or load jobs break at runtime.
func TestSchemasMatchRowColumns(t *testing.T) {
	checks := []struct {
		name   string
		row    interface{}
		schema map[string]bool
	}{
		{"transactions", &TransactionRow{}, schemaFieldSet(TransactionsSchema())},
		{"products", &ProductRow{}, schemaFieldSet(ProductsSchema())},
		{"classifications", &ClassificationRow{}, schemaFieldSet(ClassificationsSchema())},
	}

	for _, check := range checks {
		t.Run(check.name, func(t *testing.T) {
			data, err := json.Marshal(check.row)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var columns map[string]interface{}
			if err := json.Unmarshal(data, &columns); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			for column := range columns {
				if !check.schema[column] {
					t.Errorf("row column %q has no schema field", column)
				}
			}
			if len(columns) != len(check.schema) {
				t.Errorf("row has %d columns, schema has %d", len(columns), len(check.schema))
			}
		})
	}
}

func schemaFieldSet(schema bigquery.Schema) map[string]bool {
	fields := map[string]bool{}
	for _, field := range schema {
		fields[field.Name] = true
	}
	return fields
}
