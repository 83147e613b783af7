//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendTransaction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	credsJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	credsFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if credsJSON == "" && credsFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: credsJSON,
		CredentialsFile: credsFile,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ref, err := client.Append(ctx, core.Transaction{
		ID:          "integration",
		Kind:        core.Expense,
		Amount:      decimal.NewFromInt(1234),
		Category:    "Autres",
		Description: "Integration test transaction",
		Date:        core.DateOf(time.Now()),
	})
	if err != nil {
		t.Fatalf("Failed to append transaction: %v", err)
	}
	if ref == "" {
		t.Error("Expected non-empty reference")
	}
	t.Logf("Appended transaction at %s", ref)
}
