package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/bounty-hunter/internal/application"
	appdiscovery "github.com/bryanwahyu/bounty-hunter/internal/application/discovery"
	appfindings "github.com/bryanwahyu/bounty-hunter/internal/application/findings"
	appreports "github.com/bryanwahyu/bounty-hunter/internal/application/reports"
	"github.com/bryanwahyu/bounty-hunter/internal/config"
	domfindings "github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
	"github.com/bryanwahyu/bounty-hunter/internal/domain/notify"
	domrepos "github.com/bryanwahyu/bounty-hunter/internal/domain/repos"
	domscans "github.com/bryanwahyu/bounty-hunter/internal/domain/scans"
	openaiclient "github.com/bryanwahyu/bounty-hunter/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/bounty-hunter/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/bounty-hunter/internal/infra/db/postgres"
	"github.com/bryanwahyu/bounty-hunter/internal/infra/github"
	"github.com/bryanwahyu/bounty-hunter/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/bounty-hunter/internal/infra/storage"
	"github.com/bryanwahyu/bounty-hunter/internal/infra/telegram"
)

const defaultDiscoveryOutput = "discovered_repos.json"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, command, args); err != nil {
		log.Printf("%s: %v", command, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	switch command {
	case "init":
		return cmdInit(ctx, cfg)
	case "add":
		return cmdAdd(ctx, cfg, args)
	case "list":
		return cmdList(ctx, cfg, args)
	case "pending":
		return cmdPending(ctx, cfg, args)
	case "update-status":
		return cmdUpdateStatus(ctx, cfg, args)
	case "stats":
		return cmdStats(ctx, cfg)
	case "discover":
		return cmdDiscover(ctx, cfg, args)
	case "notify":
		return cmdNotify(ctx, cfg, args)
	case "draft":
		return cmdDraft(ctx, cfg, args)
	case "scan-record":
		return cmdScanRecord(ctx, cfg, args)
	case "repo":
		return cmdRepo(ctx, cfg, args)
	case "serve":
		return cmdServe(ctx, cfg)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: hunter <command> [flags]

commands:
  init           create database schema
  add            record a new finding
  list           list findings (filter by severity/status/repo)
  pending        pending findings at or above a severity
  update-status  move a finding through the review workflow
  stats          aggregate statistics
  discover       search GitHub for audit candidates
  notify         send a Telegram notification
  draft          draft a bounty submission for a finding
  scan-record    append a scan run to the history
  repo           show a repository and its scan history
  serve          run the HTTP API`)
}

// store bundles the driver-specific repositories behind the domain ports.
type store struct {
	db       *sql.DB
	findings domfindings.Repository
	repos    domrepos.Store
	scans    domscans.Store
	initFn   func(context.Context, *sql.DB) error
}

func (s *store) Close() { _ = s.db.Close() }

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		return &store{
			db:       db,
			findings: postgresp.NewFindingRepository(db),
			repos:    postgresp.NewRepoRepository(db),
			scans:    postgresp.NewScanRepository(db),
			initFn:   postgresp.InitSchema,
		}, nil
	case "mysql", "":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		return &store{
			db:       db,
			findings: mysqlp.NewFindingRepository(db),
			repos:    mysqlp.NewRepoRepository(db),
			scans:    mysqlp.NewScanRepository(db),
			initFn:   mysqlp.InitSchema,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func findingService(st *store) *appfindings.Service {
	return &appfindings.Service{
		Repo:  st.findings,
		Repos: st.repos,
		Scans: st.scans,
		Clock: application.SystemClock{},
	}
}

func cmdInit(ctx context.Context, cfg *config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.initFn(ctx, st.db); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	fmt.Println("✅ Database initialized")
	return nil
}

func cmdAdd(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	file := fs.String("file", "", "read the finding from a JSON file (analyzer output)")
	repo := fs.String("repo", "", "repository name (required)")
	repoURL := fs.String("repo-url", "", "repository URL")
	owner := fs.String("owner", "", "repository owner")
	title := fs.String("title", "", "finding title (required)")
	vulnType := fs.String("type", "", "vulnerability type (required)")
	severity := fs.String("severity", "Medium", "Critical|High|Medium|Low|Informational")
	description := fs.String("description", "", "finding description")
	impact := fs.String("impact", "", "impact statement")
	recommendation := fs.String("recommendation", "", "remediation advice")
	filePath := fs.String("path", "", "source file path")
	line := fs.Int("line", 0, "line number")
	snippet := fs.String("snippet", "", "code snippet")
	confidence := fs.Float64("confidence", 0, "analyzer confidence 0-100")
	analyzer := fs.String("analyzer", "", "originating analyzer")
	scanID := fs.String("scan-id", "", "scan that produced the finding")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var f *domfindings.Finding
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		f = &domfindings.Finding{}
		if err := json.Unmarshal(data, f); err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}
	} else {
		sev, err := domfindings.ParseSeverity(*severity)
		if err != nil {
			return err
		}
		f = &domfindings.Finding{
			RepoName:          *repo,
			RepoURL:           *repoURL,
			RepoOwner:         *owner,
			FilePath:          *filePath,
			LineNumber:        *line,
			VulnerabilityType: *vulnType,
			Title:             *title,
			Description:       *description,
			Severity:          sev,
			Impact:            *impact,
			Recommendation:    *recommendation,
			CodeSnippet:       *snippet,
			Confidence:        *confidence,
			Analyzer:          *analyzer,
			ScanID:            *scanID,
		}
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := findingService(st).Ingest(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Added finding %s (#%d)\n", result.FindingID, result.Seq)
	return nil
}

func cmdList(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	severity := fs.String("severity", "", "filter by severity")
	status := fs.String("status", "", "filter by status")
	repo := fs.String("repo", "", "filter by repository")
	limit := fs.Int("limit", 0, "max rows (default 50)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := findingService(st).List(ctx, domfindings.Filter{
		Severity: domfindings.Severity(*severity),
		Status:   domfindings.Status(*status),
		RepoName: *repo,
	}, *limit)
	if err != nil {
		return err
	}
	printFindings(list)
	return nil
}

func cmdPending(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("pending", flag.ExitOnError)
	minSeverity := fs.String("min-severity", "High", "lowest severity to include")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := findingService(st).PendingAbove(ctx, *minSeverity)
	if err != nil {
		return err
	}
	fmt.Printf("📋 %d pending finding(s) at %s or above\n\n", len(list), *minSeverity)
	printFindings(list)
	return nil
}

func cmdUpdateStatus(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("update-status", flag.ExitOnError)
	findingID := fs.String("finding-id", "", "finding identifier (required)")
	status := fs.String("status", "", "new status (required)")
	notes := fs.String("notes", "", "review notes to append")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *findingID == "" || *status == "" {
		return fmt.Errorf("both --finding-id and --status are required")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := findingService(st).UpdateStatus(ctx, *findingID, *status, *notes); err != nil {
		return err
	}
	fmt.Printf("✅ %s -> %s\n", *findingID, *status)
	return nil
}

func cmdStats(ctx context.Context, cfg *config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := findingService(st).Statistics(ctx)
	if err != nil {
		return err
	}
	printStats(stats)
	return nil
}

func cmdDiscover(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	maxRepos := fs.Int("max-repos", 0, "max candidates to return (default 10)")
	minStars := fs.Int("min-stars", 0, "star floor (default 50)")
	days := fs.Int("days", 0, "recent-push window in days (default 7)")
	output := fs.String("output", defaultDiscoveryOutput, "output file for the candidate list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.GitHub.Token == "" {
		log.Printf("discover: GITHUB_TOKEN not set, searching at unauthenticated rate limits")
	}

	provider := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token)
	svc := appdiscovery.NewService(provider, application.SystemClock{})

	candidates, err := svc.Discover(ctx, appdiscovery.Options{
		MaxRepos:        *maxRepos,
		MinStars:        *minStars,
		DaysSinceUpdate: *days,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *output, err)
	}

	// persist candidates so scan tooling can pick them up later
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now().UTC()
	for i := range candidates {
		c := &candidates[i]
		if err := st.repos.Upsert(ctx, &domrepos.Repository{
			RepoName:      c.FullName,
			RepoURL:       c.URL,
			Owner:         c.Owner,
			Stars:         c.Stars,
			Forks:         c.Forks,
			AuditPriority: c.AuditPriority,
			Status:        domrepos.StatusActive,
			CreatedAt:     now,
		}); err != nil {
			return fmt.Errorf("upsert %s: %w", c.FullName, err)
		}
	}

	fmt.Printf("🔍 Discovered %d candidate(s), written to %s\n\n", len(candidates), *output)
	for i := range candidates {
		c := &candidates[i]
		fmt.Printf("  [%3d] ⭐ %-6d %s\n", c.AuditPriority, c.Stars, c.FullName)
	}
	return nil
}

func cmdNotify(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("notify", flag.ExitOnError)
	findingID := fs.String("finding-id", "", "send a finding alert")
	approval := fs.Bool("approval", false, "send an approval request instead of an alert")
	summary := fs.Bool("summary", false, "send the statistics summary")
	message := fs.String("message", "", "send a raw message")
	scanComplete := fs.Bool("scan-complete", false, "announce a finished scan")
	repo := fs.String("repo", "", "repository for --scan-complete")
	count := fs.Int("count", 0, "finding count for --scan-complete")
	scanDir := fs.String("scan-dir", "", "output directory for --scan-complete")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tg, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		return err
	}
	var notifier notify.Notifier = tg

	if *message != "" {
		if err := notifier.SendMessage(ctx, *message); err != nil {
			return err
		}
		fmt.Println("✅ Message sent")
		return nil
	}
	if *scanComplete {
		if *repo == "" {
			return fmt.Errorf("--repo is required with --scan-complete")
		}
		if err := notifier.SendScanComplete(ctx, *repo, *count, *scanDir); err != nil {
			return err
		}
		fmt.Println("✅ Notification sent")
		return nil
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	svc := findingService(st)

	switch {
	case *summary:
		stats, err := svc.Statistics(ctx)
		if err != nil {
			return err
		}
		if err := notifier.SendSummary(ctx, stats); err != nil {
			return err
		}
	case *findingID != "":
		f, err := svc.Get(ctx, *findingID)
		if err != nil {
			return err
		}
		if *approval {
			err = notifier.SendApprovalRequest(ctx, f)
		} else {
			err = notifier.SendFinding(ctx, f)
		}
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("one of --finding-id, --summary, --message or --scan-complete is required")
	}
	fmt.Println("✅ Notification sent")
	return nil
}

func cmdDraft(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("draft", flag.ExitOnError)
	findingID := fs.String("finding-id", "", "finding to draft a submission for (required)")
	archive := fs.Bool("archive", false, "store the draft in object storage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *findingID == "" {
		return fmt.Errorf("--finding-id is required")
	}
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := &appreports.Service{
		Findings: st.findings,
		AI:       openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model),
		Clock:    application.SystemClock{},
	}
	if *archive {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		svc.Archive = store
	}

	draft, err := svc.DraftSubmission(ctx, *findingID)
	if err != nil {
		return err
	}
	fmt.Println(draft)

	if *archive {
		url, err := svc.ArchiveDraft(ctx, *findingID, draft)
		if err != nil {
			return err
		}
		fmt.Printf("\n📦 Archived: %s\n", url)
	}
	return nil
}

func cmdScanRecord(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("scan-record", flag.ExitOnError)
	file := fs.String("file", "", "read the scan summary from a JSON file")
	repo := fs.String("repo", "", "repository that was scanned (required)")
	scanID := fs.String("scan-id", "", "scan identifier (generated when empty)")
	semgrep := fs.Int("semgrep", 0, "semgrep finding count")
	cargo := fs.Int("cargo", 0, "cargo-audit vulnerability count")
	llm := fs.Int("llm", 0, "LLM finding count")
	files := fs.Int("files", 0, "files scanned")
	lines := fs.Int("lines", 0, "lines scanned")
	duration := fs.Int("duration", 0, "scan duration in seconds")
	status := fs.String("status", "completed", "running|completed|failed")
	errMsg := fs.String("error", "", "failure message")
	scanDir := fs.String("scan-dir", "", "directory holding the raw scan output")
	announce := fs.Bool("notify", false, "announce the scan over Telegram")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	run := &domscans.Run{}
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, run); err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}
	} else {
		run = &domscans.Run{
			ScanID:               domscans.ScanID(*scanID),
			RepoName:             *repo,
			SemgrepFindings:      *semgrep,
			CargoVulnerabilities: *cargo,
			LLMFindings:          *llm,
			FilesScanned:         *files,
			LinesScanned:         *lines,
			DurationSeconds:      *duration,
			Status:               domscans.Status(*status),
			ErrorMessage:         *errMsg,
		}
	}
	id, err := findingService(st).RecordScan(ctx, run)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Recorded %s (%d finding(s))\n", id, run.TotalFindings())

	if *announce {
		var notifier notify.Notifier
		notifier, err = telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return err
		}
		if err := notifier.SendScanComplete(ctx, run.RepoName, run.TotalFindings(), *scanDir); err != nil {
			return fmt.Errorf("announce scan: %w", err)
		}
	}
	return nil
}

func cmdRepo(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("repo", flag.ExitOnError)
	name := fs.String("name", "", "repository name (required)")
	limit := fs.Int("limit", 0, "max scan rows (default 20)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.repos.Get(ctx, *name)
	if err != nil {
		return err
	}
	printRepository(rec)

	runs, err := st.scans.ListByRepo(ctx, *name, *limit)
	if err != nil {
		return err
	}
	printScanRuns(runs)
	return nil
}

func cmdServe(ctx context.Context, cfg *config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var discoverySvc *appdiscovery.Service
	if cfg.GitHub.Token != "" {
		provider := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token)
		discoverySvc = appdiscovery.NewService(provider, application.SystemClock{})
	}

	handler := httpserver.NewRouter(findingService(st), discoverySvc, st.db, cfg.Server.APIKey)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx2)
}
