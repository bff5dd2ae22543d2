package findings

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
	domrepos "github.com/bryanwahyu/bounty-hunter/internal/domain/repos"
	domscans "github.com/bryanwahyu/bounty-hunter/internal/domain/scans"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// fakeRepo is an in-memory stand-in for the findings store.
type fakeRepo struct {
	seq      int64
	findings map[string]*domain.Finding

	lastNotes *string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{findings: make(map[string]*domain.Finding)}
}

func (r *fakeRepo) Insert(_ context.Context, f *domain.Finding) (int64, error) {
	if _, ok := r.findings[f.FindingID]; ok {
		return 0, domain.ErrDuplicateID
	}
	r.seq++
	cp := *f
	cp.Seq = r.seq
	r.findings[f.FindingID] = &cp
	return r.seq, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, findingID string, status domain.Status, notes *string, now time.Time) error {
	f, ok := r.findings[findingID]
	if !ok {
		return domain.ErrNotFound
	}
	f.Status = status
	f.UpdatedAt = now
	if status == domain.StatusSubmitted && f.SubmittedAt == nil {
		at := now
		f.SubmittedAt = &at
	}
	if notes != nil {
		f.Notes = *notes
	}
	r.lastNotes = notes
	return nil
}

func (r *fakeRepo) List(_ context.Context, filter domain.Filter, limit int) ([]*domain.Finding, error) {
	var out []*domain.Finding
	for _, f := range r.findings {
		if filter.Severity != "" && f.Severity != filter.Severity {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.RepoName != "" && f.RepoName != filter.RepoName {
			continue
		}
		out = append(out, f)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, findingID string) (*domain.Finding, error) {
	f, ok := r.findings[findingID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f, nil
}

func (r *fakeRepo) PendingAbove(_ context.Context, min domain.Severity) ([]*domain.Finding, error) {
	include := make(map[domain.Severity]bool)
	for _, sev := range domain.SeveritiesAtOrAbove(min) {
		include[sev] = true
	}
	var out []*domain.Finding
	for _, f := range r.findings {
		if f.Status == domain.StatusPending && include[f.Severity] {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() < out[j].Severity.Rank()
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}

func (r *fakeRepo) Statistics(_ context.Context, _ time.Time) (*domain.Statistics, error) {
	return &domain.Statistics{TotalFindings: len(r.findings)}, nil
}

// reposStub records the last soft-reference update.
type reposStub struct {
	repoName string
	scanID   string
	findings int
}

func (s *reposStub) Upsert(_ context.Context, _ *domrepos.Repository) error { return nil }

func (s *reposStub) Get(_ context.Context, _ string) (*domrepos.Repository, error) {
	return nil, domrepos.ErrNotFound
}

func (s *reposStub) RecordScan(_ context.Context, repoName, scanID string, _ time.Time, findings int) error {
	s.repoName = repoName
	s.scanID = scanID
	s.findings = findings
	return nil
}

type fakeScanStore struct {
	appended []*domscans.Run
}

func (s *fakeScanStore) Append(_ context.Context, run *domscans.Run) error {
	s.appended = append(s.appended, run)
	return nil
}

func (s *fakeScanStore) ListByRepo(_ context.Context, _ string, _ int) ([]*domscans.Run, error) {
	return nil, nil
}

func newService(repo *fakeRepo, clock fixedClock) *Service {
	return &Service{
		Repo:  repo,
		Repos: &reposStub{},
		Scans: &fakeScanStore{},
		Clock: clock,
	}
}

func TestIngestGeneratesFindingID(t *testing.T) {
	repo := newFakeRepo()
	clock := fixedClock{at: time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)}
	svc := newService(repo, clock)

	result, err := svc.Ingest(context.Background(), &domain.Finding{
		RepoName:          "solana-lending-program",
		Title:             "Unchecked arithmetic",
		VulnerabilityType: "integer-overflow",
		Severity:          domain.SeverityHigh,
		Confidence:        72,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.FindingID != "FND-20250315-solana-len" {
		t.Errorf("FindingID = %q, want FND-20250315-solana-len", result.FindingID)
	}
	if result.Seq != 1 {
		t.Errorf("Seq = %d, want 1", result.Seq)
	}

	stored, err := repo.GetByID(context.Background(), result.FindingID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("Status = %q, want pending", stored.Status)
	}
	if !stored.CreatedAt.Equal(clock.at) || !stored.UpdatedAt.Equal(clock.at) {
		t.Errorf("timestamps = %v/%v, want %v", stored.CreatedAt, stored.UpdatedAt, clock.at)
	}
}

func TestIngestShortRepoNameKeptWhole(t *testing.T) {
	repo := newFakeRepo()
	clock := fixedClock{at: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)}
	svc := newService(repo, clock)

	result, err := svc.Ingest(context.Background(), &domain.Finding{
		RepoName:          "dex",
		Title:             "t",
		VulnerabilityType: "x",
		Severity:          domain.SeverityLow,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.FindingID != "FND-20250315-dex" {
		t.Errorf("FindingID = %q, want FND-20250315-dex", result.FindingID)
	}
}

func TestIngestRejectsInvalid(t *testing.T) {
	svc := newService(newFakeRepo(), fixedClock{at: time.Now()})

	_, err := svc.Ingest(context.Background(), &domain.Finding{
		RepoName: "solana-dex",
		Severity: domain.SeverityHigh,
	})
	if !errors.Is(err, domain.ErrInvalidFinding) {
		t.Errorf("error = %v, want ErrInvalidFinding", err)
	}
}

func TestIngestSameDaySameRepoCollides(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, fixedClock{at: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)})

	f := func() *domain.Finding {
		return &domain.Finding{
			RepoName:          "solana-dex",
			Title:             "t",
			VulnerabilityType: "x",
			Severity:          domain.SeverityLow,
		}
	}
	if _, err := svc.Ingest(context.Background(), f()); err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	if _, err := svc.Ingest(context.Background(), f()); !errors.Is(err, domain.ErrDuplicateID) {
		t.Errorf("second Ingest() error = %v, want ErrDuplicateID", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := newFakeRepo()
	clock := fixedClock{at: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
	svc := newService(repo, clock)

	result, err := svc.Ingest(context.Background(), &domain.Finding{
		RepoName:          "solana-amm",
		Title:             "t",
		VulnerabilityType: "x",
		Severity:          domain.SeverityCritical,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), result.FindingID, "approved", "looks real"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	f, _ := repo.GetByID(context.Background(), result.FindingID)
	if f.Status != domain.StatusApproved {
		t.Errorf("Status = %q, want approved", f.Status)
	}
	if f.Notes != "looks real" {
		t.Errorf("Notes = %q, want %q", f.Notes, "looks real")
	}

	// empty notes must pass nil so the store keeps the existing ones
	if err := svc.UpdateStatus(context.Background(), result.FindingID, "submitted", ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if repo.lastNotes != nil {
		t.Errorf("notes pointer = %v, want nil for empty notes", *repo.lastNotes)
	}

	// out-of-order transition is logged, never refused
	if err := svc.UpdateStatus(context.Background(), result.FindingID, "pending", ""); err != nil {
		t.Errorf("out-of-order UpdateStatus() error = %v, want nil", err)
	}
}

func TestUpdateStatusInvalid(t *testing.T) {
	svc := newService(newFakeRepo(), fixedClock{at: time.Now()})

	err := svc.UpdateStatus(context.Background(), "FND-x", "shipped", "")
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("bad status: error = %v, want ErrInvalidStatus", err)
	}

	err = svc.UpdateStatus(context.Background(), "FND-missing", "approved", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing finding: error = %v, want ErrNotFound", err)
	}
}

func TestPendingAboveOrdering(t *testing.T) {
	repo := newFakeRepo()
	clock := fixedClock{at: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
	svc := newService(repo, clock)

	severities := []domain.Severity{
		domain.SeverityCritical,
		domain.SeverityLow,
		domain.SeverityHigh,
		domain.SeverityMedium,
	}
	for i, sev := range severities {
		_, err := svc.Ingest(context.Background(), &domain.Finding{
			FindingID:         string(sev),
			RepoName:          "solana-dex",
			Title:             "t",
			VulnerabilityType: "x",
			Severity:          sev,
			Confidence:        float64(50 + i),
		})
		if err != nil {
			t.Fatalf("Ingest(%s) error = %v", sev, err)
		}
	}

	list, err := svc.PendingAbove(context.Background(), "Medium")
	if err != nil {
		t.Fatalf("PendingAbove() error = %v", err)
	}
	want := []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium}
	if len(list) != len(want) {
		t.Fatalf("got %d findings, want %d", len(list), len(want))
	}
	for i, f := range list {
		if f.Severity != want[i] {
			t.Errorf("list[%d].Severity = %q, want %q", i, f.Severity, want[i])
		}
	}

	// unknown min degrades to all severities
	all, err := svc.PendingAbove(context.Background(), "bogus")
	if err != nil {
		t.Fatalf("PendingAbove(bogus) error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("PendingAbove(bogus) returned %d findings, want 4", len(all))
	}
}

func TestRecordScan(t *testing.T) {
	repo := newFakeRepo()
	scans := &fakeScanStore{}
	linker := &reposStub{}
	clock := fixedClock{at: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	svc := &Service{Repo: repo, Repos: linker, Scans: scans, Clock: clock}

	id, err := svc.RecordScan(context.Background(), &domscans.Run{
		RepoName:        "solana-dex",
		SemgrepFindings: 3,
		LLMFindings:     2,
	})
	if err != nil {
		t.Fatalf("RecordScan() error = %v", err)
	}
	if len(id) <= len("SCAN-") {
		t.Errorf("scan id %q not generated", id)
	}
	if len(scans.appended) != 1 {
		t.Fatalf("appended %d runs, want 1", len(scans.appended))
	}
	run := scans.appended[0]
	if run.Status != domscans.StatusCompleted {
		t.Errorf("Status = %q, want completed", run.Status)
	}
	if !run.ScanDate.Equal(clock.at) {
		t.Errorf("ScanDate = %v, want %v", run.ScanDate, clock.at)
	}
	if linker.findings != 5 {
		t.Errorf("linked findings = %d, want 5", linker.findings)
	}
	if linker.repoName != "solana-dex" {
		t.Errorf("linked repo = %q, want solana-dex", linker.repoName)
	}

	_, err = svc.RecordScan(context.Background(), &domscans.Run{})
	if err == nil {
		t.Error("RecordScan() with no repo_name: expected error")
	}
}
