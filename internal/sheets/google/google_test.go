package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	gsheet "google.golang.org/api/sheets/v4"
)

func sampleTransaction(kind core.Kind) core.Transaction {
	return core.Transaction{
		ID:          "t1",
		Kind:        kind,
		Amount:      decimal.NewFromInt(4500),
		Category:    "Transport",
		Description: "Taxi aéroport",
		Date:        core.NewDate(2025, 6, 10),
	}
}

// fakeSheetsAPI records the last append request and answers like the Sheets API.
type fakeSheetsAPI struct {
	path   string
	query  string
	values [][]any
}

func (f *fakeSheetsAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		f.path = r.URL.Path
		f.query = r.URL.RawQuery

		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			t.Errorf("decode body: %v", err)
		}
		f.values = vr.Values

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Transactions!A7:E7","updatedRows":1}}`))
	}
}

func newTestClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		SpreadsheetID: "sheet-1",
		HTTPClient:    srv.Client(),
		Endpoint:      srv.URL + "/",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClient_Append(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api)

	ref, err := c.Append(context.Background(), sampleTransaction(core.Expense))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "Transactions!A7:E7" {
		t.Errorf("ref = %q, want Transactions!A7:E7", ref)
	}
	if !strings.Contains(api.path, "sheet-1") || !strings.HasSuffix(api.path, ":append") {
		t.Errorf("unexpected request path %q", api.path)
	}
	if !strings.Contains(api.query, "valueInputOption=USER_ENTERED") {
		t.Errorf("query %q should set valueInputOption", api.query)
	}

	if len(api.values) != 1 {
		t.Fatalf("sent %d rows, want 1", len(api.values))
	}
	want := []string{"2025-06-10", "Expense", "Transport", "Taxi aéroport", "-4500"}
	row := api.values[0]
	if len(row) != len(want) {
		t.Fatalf("row = %v, want %v", row, want)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d = %v, want %s", i, row[i], want[i])
		}
	}
}

func TestClient_AppendRejectsInvalidTransaction(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api)

	tx := sampleTransaction(core.Expense)
	tx.Amount = decimal.Zero
	_, err := c.Append(context.Background(), tx)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("Append() error = %v, want ErrInvalidAmount", err)
	}
	if api.path != "" {
		t.Error("invalid transaction should not reach the API")
	}
}

func TestClient_AppendWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "sheet-1", sheetName: DefaultSheetName}
	if _, err := c.Append(context.Background(), sampleTransaction(core.Income)); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestRow(t *testing.T) {
	row := Row(sampleTransaction(core.Income))
	if row[1] != "Income" || row[4] != "4500" {
		t.Errorf("income row = %v", row)
	}
}

func TestNew_Errors(t *testing.T) {
	missingFile := filepath.Join(t.TempDir(), "missing.json")

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{"missing spreadsheet", Options{CredentialsJSON: "{}"}, "missing spreadsheet id"},
		{"missing credentials", Options{SpreadsheetID: "sheet-1"}, "missing service account credentials"},
		{"unreadable file", Options{SpreadsheetID: "sheet-1", CredentialsFile: missingFile}, "read service account file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
