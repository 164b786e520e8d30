package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/logging"
)

const (
	pgTestPort     = 15433
	pgTestDB       = "claimstest"
	pgTestUser     = "postgres"
	pgTestPassword = "postgres"
)

// TestClaimRepository_Postgres runs the repository against a real Postgres.
// It downloads a Postgres binary, so it only runs with CLAIMS_PG_TESTS=1.
func TestClaimRepository_Postgres(t *testing.T) {
	if os.Getenv("CLAIMS_PG_TESTS") != "1" {
		t.Skip("set CLAIMS_PG_TESTS=1 to run embedded postgres tests")
	}

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(pgTestPort)).
			Database(pgTestDB).
			Username(pgTestUser).
			Password(pgTestPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(60 * time.Second),
	)
	if err := pg.Start(); err != nil {
		t.Fatalf("start embedded postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := pg.Stop(); err != nil {
			t.Logf("stop embedded postgres: %v", err)
		}
	})

	ctx := context.Background()
	dsn := fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		pgTestUser, pgTestPassword, pgTestPort, pgTestDB)
	db, err := Open(ctx, Config{DSN: dsn, MaxConns: 4, DialTimeout: 10 * time.Second}, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if db.Dialect != "postgres" {
		t.Fatalf("expected postgres dialect, got %q", db.Dialect)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	// idempotent
	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	repo := NewClaimRepository(db, logging.Discard())
	claims := seed(t, repo)

	got, err := repo.Get(ctx, claims[2].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ClaimID != "CLM1003" || got.FraudStatus != constants.StatusFraudulent {
		t.Errorf("unexpected claim %+v", got)
	}

	list, err := repo.List(ctx, ListFilter{Query: "CITY"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 City Care claims, got %d", len(list))
	}

	st, err := repo.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 4 || st.TotalAmount != 230000 {
		t.Errorf("unexpected stats %+v", st)
	}
}
