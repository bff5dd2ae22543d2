package mysql

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
)

// Integration tests need a throwaway database:
//
//	MYSQL_TEST_DSN="user:pass@tcp(localhost:3306)/bounty_test?parseTime=true" go test ./...
func testDB(t *testing.T) *FindingRepository {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM findings;`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewFindingRepository(db)
}

func testFinding(id string, sev domain.Severity, confidence float64) *domain.Finding {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Finding{
		FindingID:         id,
		RepoName:          "acme/solana-dex",
		RepoURL:           "https://github.com/acme/solana-dex",
		VulnerabilityType: "missing-signer-check",
		Title:             "Withdraw lacks signer validation",
		Severity:          sev,
		Status:            domain.StatusPending,
		Confidence:        confidence,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestInsertAndGet(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	seq, err := repo.Insert(ctx, testFinding("FND-it-1", domain.SeverityHigh, 80))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if seq == 0 {
		t.Error("Insert() returned zero id")
	}

	got, err := repo.GetByID(ctx, "FND-it-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Severity != domain.SeverityHigh || got.Status != domain.StatusPending {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.SubmittedAt != nil {
		t.Errorf("SubmittedAt = %v, want nil", got.SubmittedAt)
	}

	// same finding_id again
	_, err = repo.Insert(ctx, testFinding("FND-it-1", domain.SeverityHigh, 80))
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Errorf("duplicate Insert() error = %v, want ErrDuplicateID", err)
	}

	_, err = repo.GetByID(ctx, "FND-absent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(absent) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatusSubmittedAtOnce(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	if _, err := repo.Insert(ctx, testFinding("FND-it-2", domain.SeverityCritical, 95)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	first := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateStatus(ctx, "FND-it-2", domain.StatusSubmitted, nil, first); err != nil {
		t.Fatalf("UpdateStatus(submitted) error = %v", err)
	}
	got, _ := repo.GetByID(ctx, "FND-it-2")
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(first) {
		t.Fatalf("SubmittedAt = %v, want %v", got.SubmittedAt, first)
	}

	// a later pass through submitted must not move the timestamp
	later := first.Add(time.Hour)
	if err := repo.UpdateStatus(ctx, "FND-it-2", domain.StatusSubmitted, nil, later); err != nil {
		t.Fatalf("second UpdateStatus(submitted) error = %v", err)
	}
	got, _ = repo.GetByID(ctx, "FND-it-2")
	if !got.SubmittedAt.Equal(first) {
		t.Errorf("SubmittedAt moved to %v, want %v kept", got.SubmittedAt, first)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}

	// nil notes keep existing notes
	notes := "triaged"
	_ = repo.UpdateStatus(ctx, "FND-it-2", domain.StatusConfirmed, &notes, later)
	_ = repo.UpdateStatus(ctx, "FND-it-2", domain.StatusPaid, nil, later)
	got, _ = repo.GetByID(ctx, "FND-it-2")
	if got.Notes != "triaged" {
		t.Errorf("Notes = %q, want preserved", got.Notes)
	}

	err := repo.UpdateStatus(ctx, "FND-absent", domain.StatusApproved, nil, later)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateStatus(absent) error = %v, want ErrNotFound", err)
	}
}

func TestPendingAboveRanksResults(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	fixtures := []struct {
		id         string
		sev        domain.Severity
		confidence float64
	}{
		{"FND-it-low", domain.SeverityLow, 90},
		{"FND-it-crit", domain.SeverityCritical, 60},
		{"FND-it-high-a", domain.SeverityHigh, 70},
		{"FND-it-high-b", domain.SeverityHigh, 95},
		{"FND-it-med", domain.SeverityMedium, 80},
	}
	for _, fx := range fixtures {
		if _, err := repo.Insert(ctx, testFinding(fx.id, fx.sev, fx.confidence)); err != nil {
			t.Fatalf("Insert(%s) error = %v", fx.id, err)
		}
	}

	got, err := repo.PendingAbove(ctx, domain.SeverityMedium)
	if err != nil {
		t.Fatalf("PendingAbove() error = %v", err)
	}
	wantOrder := []string{"FND-it-crit", "FND-it-high-b", "FND-it-high-a", "FND-it-med"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d findings, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].FindingID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].FindingID, id)
		}
	}
}

func TestStatistics(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	paid := testFinding("FND-it-paid", domain.SeverityCritical, 90)
	if _, err := repo.Insert(ctx, paid); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	_ = repo.UpdateStatus(ctx, "FND-it-paid", domain.StatusPaid, nil, now)
	if _, err := repo.db.ExecContext(ctx,
		`UPDATE findings SET bounty_amount = 2500 WHERE finding_id = 'FND-it-paid';`); err != nil {
		t.Fatalf("set bounty: %v", err)
	}

	if _, err := repo.Insert(ctx, testFinding("FND-it-open", domain.SeverityLow, 40)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	stats, err := repo.Statistics(ctx, now)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalFindings != 2 {
		t.Errorf("TotalFindings = %d, want 2", stats.TotalFindings)
	}
	if stats.BySeverity["Critical"] != 1 || stats.BySeverity["Low"] != 1 {
		t.Errorf("BySeverity = %v", stats.BySeverity)
	}
	if stats.Submissions != 1 {
		t.Errorf("Submissions = %d, want 1", stats.Submissions)
	}
	if stats.TotalEarnings != 2500 {
		t.Errorf("TotalEarnings = %.2f, want 2500", stats.TotalEarnings)
	}
	if len(stats.TopRepos) != 1 || stats.TopRepos[0].Count != 2 {
		t.Errorf("TopRepos = %v", stats.TopRepos)
	}
}
