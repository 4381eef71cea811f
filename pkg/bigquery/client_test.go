package bigquery

import (
	"context"
	"testing"

	"github.com/angelmondragon/scanpay-backend/pkg/config"
)

func TestConfiguredTables(t *testing.T) {
	tables := configuredTables(config.BigQueryConfig{OrderFactsTable: " order_facts "})
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if tables[0] != "order_facts" {
		t.Fatalf("expected order_facts, got %s", tables[0])
	}

	if got := configuredTables(config.BigQueryConfig{}); len(got) != 0 {
		t.Fatalf("expected no tables, got %v", got)
	}
}

func TestClientOptionsPrioritizesJSON(t *testing.T) {
	gcp := config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	}

	opts := clientOptions(gcp)
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
}

func TestClientOptionsWithFile(t *testing.T) {
	gcp := config.GCPConfig{
		ApplicationCredentials: "/tmp/creds",
	}

	opts := clientOptions(gcp)
	if len(opts) != 1 {
		t.Fatalf("expected 1 option when using credentials file, got %d", len(opts))
	}
}

func TestNilClientInsertRows(t *testing.T) {
	var c *Client
	if err := c.InsertRows(context.Background(), "order_facts", []any{1}); err != errClientNotInitialized {
		t.Fatalf("expected errClientNotInitialized, got %v", err)
	}
	if c.OrderFactsTable() != "" {
		t.Fatalf("expected empty table name for nil client")
	}
}

func TestClientOptionsEmpty(t *testing.T) {
	gcp := config.GCPConfig{}

	opts := clientOptions(gcp)
	if len(opts) != 0 {
		t.Fatalf("expected 0 options when no credentials provided, got %d", len(opts))
	}
}
