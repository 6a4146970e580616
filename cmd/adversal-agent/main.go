// Adversal Agent - LLM red-team scan agent
//
// Runs adversarial scans against an LLM endpoint and reports how often the
// target resists the probes, per vulnerability category.
//
// One-shot scan from a config file:
//
//	adversal-agent -config agent.yaml
//
// Quick scan from flags:
//
//	adversal-agent -target-model gpt-4o-mini -api-key $OPENAI_API_KEY \
//	    -categories bias,cybercrime -attacks rot13,prompt_injection
//
// Past runs are kept in a local SQLite store:
//
//	adversal-agent -config agent.yaml -history 10
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/adversalio/sdk/pkg/attacks"
	"github.com/adversalio/sdk/pkg/audit"
	"github.com/adversalio/sdk/pkg/client"
	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/health"
	"github.com/adversalio/sdk/pkg/judge"
	"github.com/adversalio/sdk/pkg/metrics"
	"github.com/adversalio/sdk/pkg/models"
	"github.com/adversalio/sdk/pkg/options"
	"github.com/adversalio/sdk/pkg/rts"
	"github.com/adversalio/sdk/pkg/scan"
	"github.com/adversalio/sdk/pkg/store"
	"github.com/adversalio/sdk/pkg/synth"
	"github.com/adversalio/sdk/pkg/target"
	grpctransport "github.com/adversalio/sdk/pkg/transport/grpc"
)

const (
	appName    = "adversal-agent"
	appVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	targetModel := flag.String("target-model", "", "Target model name (or config file)")
	targetURL := flag.String("target-url", "", "Target API base URL")
	apiKey := flag.String("api-key", "", "Target API key (or ADVERSAL_TARGET_API_KEY env)")
	categoriesFlag := flag.String("categories", "", "Comma-separated vulnerability categories (default: all)")
	attacksFlag := flag.String("attacks", "", "Comma-separated attack types (default: deterministic set)")
	cases := flag.Int("cases", 0, "Cases per category")
	concurrency := flag.Int("concurrency", 0, "Concurrent cases")
	purpose := flag.String("purpose", "", "Target system purpose, e.g. 'banking support assistant'")
	seed := flag.Int64("seed", 0, "Shuffle case execution order with this seed (0 keeps enumeration order)")
	push := flag.Bool("push", false, "Push the report to the Adversal platform")
	outputJSON := flag.Bool("json", false, "Output the full report as JSON")
	outputFile := flag.String("output", "", "Output file path (instead of stdout)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	historyN := flag.Int("history", 0, "Show the last N scans from the local store and exit")
	listFlag := flag.Bool("list", false, "List known categories and attacks")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	if *listFlag {
		fmt.Println("Vulnerability categories:")
		for _, c := range rts.AllVulnerabilityCategories() {
			fmt.Printf("  %s\n", c)
		}
		fmt.Println()
		fmt.Println("Attack types:")
		for _, a := range rts.AllAttackTypes() {
			kind := "model-assisted"
			if a.Deterministic() {
				kind = "deterministic"
			}
			fmt.Printf("  %-18s (%s)\n", a, kind)
		}
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, finishing in-flight cases...")
		cancel()
	}()

	// Load config or build one from flags.
	var cfg *Config
	var err error
	if *configPath != "" {
		cfg, err = loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = &Config{}
		cfg.Target.Model = *targetModel
		cfg.Target.BaseURL = *targetURL
		cfg.Target.APIKey = getEnvOrFlag(*apiKey, "ADVERSAL_TARGET_API_KEY")
		cfg.Platform.BaseURL = os.Getenv("ADVERSAL_API_URL")
		cfg.Platform.APIKey = os.Getenv("ADVERSAL_API_KEY")
		cfg.Scan.Categories = splitCSV(*categoriesFlag)
		cfg.Scan.Attacks = splitCSV(*attacksFlag)
		cfg.applyDefaults()
		if err := cfg.validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "Use -config, or -target-model with -api-key.\n")
			os.Exit(1)
		}
	}

	// Flag overrides on top of the config file.
	if *verbose {
		cfg.Agent.Verbose = true
	}
	if *purpose != "" {
		cfg.Scan.Purpose = *purpose
	}
	if *cases > 0 {
		cfg.Scan.CasesPerCategory = *cases
	}
	if *concurrency > 0 {
		cfg.Scan.Concurrency = *concurrency
	}
	if *push {
		cfg.Platform.Push = true
	}
	if *seed != 0 {
		cfg.Scan.Seed = *seed
	}

	if *historyN > 0 {
		showHistory(ctx, cfg, *historyN)
		os.Exit(0)
	}

	if err := run(ctx, cfg, *outputJSON, *outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getEnvOrFlag(flagVal, envName string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv(envName)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(ctx context.Context, cfg *Config, outputJSON bool, outputFile string) error {
	logger := core.LoggerFromVerbose("agent", cfg.Agent.Verbose)
	core.SetDefaultLogger(logger)

	categories, err := cfg.categories()
	if err != nil {
		return err
	}
	attackTypes, err := cfg.attacks()
	if err != nil {
		return err
	}

	// Metrics and health endpoints, when configured.
	collector := metrics.GetDefaultCollector()
	var healthHandler *health.Handler
	if cfg.Agent.MetricsAddr != "" {
		prom := metrics.NewPrometheusCollector(&metrics.PrometheusConfig{
			RegisterDefaultMetrics: true,
		})
		metrics.SetDefaultCollector(prom)
		collector = prom

		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		healthHandler = health.NewHandler(health.WithVersion(appVersion))
		healthHandler.Register("ping", &health.PingCheck{})
		healthHandler.Register("system_memory", &health.SystemMemoryCheck{MaxUsagePercent: 95})
		healthHandler.RegisterRoutes(mux)

		go func() {
			logger.Info("serving metrics and health on %s", cfg.Agent.MetricsAddr)
			if err := http.ListenAndServe(cfg.Agent.MetricsAddr, mux); err != nil {
				logger.Error("metrics server: %v", err)
			}
		}()
	}

	// Audit trail.
	auditCfg := audit.DefaultLoggerConfig()
	auditCfg.AgentID = cfg.Agent.ID
	auditCfg.Verbose = cfg.Agent.Verbose
	if cfg.Agent.AuditLog != "" {
		auditCfg.LogFile = cfg.Agent.AuditLog
	}
	auditLog, err := audit.NewLogger(auditCfg)
	if err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	auditLog.Start()
	defer auditLog.Stop()
	auditLog.Info(audit.EventAgentStart, fmt.Sprintf("%s %s starting", appName, appVersion), nil)
	defer auditLog.Info(audit.EventAgentStop, "agent stopping", nil)

	// Models: target plus the synthesizer/evaluator pair.
	targetM, err := buildModel(cfg.Target)
	if err != nil {
		return fmt.Errorf("target model: %w", err)
	}
	synthM, err := buildModel(cfg.Synthesizer)
	if err != nil {
		return fmt.Errorf("synthesizer model: %w", err)
	}
	evalM, err := buildModel(cfg.Evaluator)
	if err != nil {
		return fmt.Errorf("evaluator model: %w", err)
	}
	if healthHandler != nil {
		healthHandler.Register("target", &health.TargetCheck{Model: targetM})
	}

	// Scan options shared by the registry and the scanner.
	scanOpts := []options.ScanOption{
		options.WithPurpose(cfg.Scan.Purpose),
		options.WithSystemPrompt(cfg.Scan.SystemPrompt),
		options.WithVerbose(cfg.Agent.Verbose),
	}
	if cfg.Scan.CasesPerCategory > 0 {
		scanOpts = append(scanOpts, options.WithCasesPerCategory(cfg.Scan.CasesPerCategory))
	}
	if cfg.Scan.Concurrency > 0 {
		scanOpts = append(scanOpts, options.WithConcurrency(cfg.Scan.Concurrency))
	}
	if cfg.Scan.CaseTimeout > 0 {
		scanOpts = append(scanOpts, options.WithCaseTimeout(cfg.Scan.CaseTimeout))
	}
	if cfg.Scan.TargetTimeout > 0 {
		scanOpts = append(scanOpts, options.WithTargetTimeout(cfg.Scan.TargetTimeout))
	}
	if cfg.Scan.MaxAttackIterations > 0 {
		scanOpts = append(scanOpts, options.WithMaxAttackIterations(cfg.Scan.MaxAttackIterations))
	}
	if cfg.Scan.TreeBranching > 0 || cfg.Scan.TreeDepth > 0 {
		scanOpts = append(scanOpts, options.WithTreeSearch(cfg.Scan.TreeBranching, cfg.Scan.TreeDepth))
	}
	if cfg.Scan.Seed != 0 {
		scanOpts = append(scanOpts, options.WithSeed(cfg.Scan.Seed))
	}

	scanCfg := options.DefaultScanConfig()
	options.ApplyScanOptions(scanCfg, scanOpts...)

	registry, err := attacks.NewDefaultRegistry(synthM, scanCfg)
	if err != nil {
		return fmt.Errorf("attack registry: %w", err)
	}

	synthesizer, err := synth.New(synthM, scanCfg.Purpose, logger)
	if err != nil {
		return err
	}
	evaluator, err := judge.New(evalM, scanCfg.Purpose, logger)
	if err != nil {
		return err
	}
	invoker, err := target.NewModelInvoker(targetM, scanCfg.TargetTimeout,
		cfg.Target.RateLimit, cfg.Target.BurstLimit, logger)
	if err != nil {
		return err
	}

	scanner, err := scan.NewScanner(scan.Deps{
		Synthesizer: synthesizer,
		Registry:    registry,
		Invoker:     invoker,
		Evaluator:   evaluator,
		TargetName:  targetM.Name(),
		Logger:      logger,
		Collector:   collector,
	}, scanOpts...)
	if err != nil {
		return err
	}

	scanner.OnCaseComplete = func(result *rts.ScanResult) {
		cat := result.Case.Golden.Category.String()
		atk := result.Case.Attack.String()
		switch result.Status {
		case rts.CaseScored, rts.CaseAttackFailed:
			auditLog.CaseEvaluated("", result.Case.ID, cat, atk, result.Score)
		case rts.CaseUntested:
			auditLog.Info(audit.EventCaseUntested, "target unavailable", map[string]interface{}{
				"case_id": result.Case.ID, "category": cat, "attack": atk,
			})
		default:
			auditLog.Error(audit.EventCaseErrored, result.Error, nil, map[string]interface{}{
				"case_id": result.Case.ID, "category": cat, "attack": atk,
			})
		}
	}

	catNames := make([]string, len(categories))
	for i, c := range categories {
		catNames[i] = c.String()
	}
	atkNames := make([]string, len(attackTypes))
	for i, a := range attackTypes {
		atkNames[i] = a.String()
	}

	fmt.Printf("Scanning %s: %d categories x %d attacks x %d cases\n",
		targetM.Name(), len(categories), len(attackTypes), scanCfg.CasesPerCategory)
	auditLog.ScanStarted("", targetM.Name(), catNames, atkNames)

	started := time.Now()
	report, scanErr := scanner.Scan(ctx, categories, attackTypes)
	if report == nil {
		auditLog.Error(audit.EventScanFailed, "scan could not start", scanErr, nil)
		return scanErr
	}

	overall, _ := report.OverallScore()
	if scanErr != nil {
		auditLog.Error(audit.EventScanInterrupted, "scan did not complete", scanErr, nil)
		fmt.Fprintf(os.Stderr, "Warning: scan incomplete: %v\n", scanErr)
	} else {
		auditLog.ScanCompleted(report.ID, report.Len(), overall, time.Since(started))
	}

	printReport(report)

	if outputJSON {
		if err := writeJSON(report, outputFile); err != nil {
			return err
		}
	}

	if cfg.Agent.StorePath != "" {
		if err := saveReport(ctx, cfg.Agent.StorePath, report); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save scan history: %v\n", err)
		}
	}

	if cfg.Platform.Push {
		if err := pushReport(ctx, cfg, report, auditLog); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: push failed: %v\n", err)
		}
	}

	return scanErr
}

// buildModel constructs an OpenAI-compatible model client from a config
// section.
func buildModel(section ModelSection) (*models.OpenAIModel, error) {
	opts := []options.ModelOption{
		options.WithModelName(section.Model),
	}
	if section.BaseURL != "" {
		opts = append(opts, options.WithModelBaseURL(section.BaseURL))
	}
	if section.APIKey != "" {
		opts = append(opts, options.WithModelAPIKey(section.APIKey))
	}
	if section.Temperature > 0 {
		opts = append(opts, options.WithModelTemperature(section.Temperature))
	}
	if section.MaxTokens > 0 {
		opts = append(opts, options.WithModelMaxTokens(section.MaxTokens))
	}
	if section.Timeout > 0 {
		opts = append(opts, options.WithModelTimeout(section.Timeout))
	}
	if section.RateLimit > 0 {
		opts = append(opts, options.WithModelRateLimit(section.RateLimit, section.BurstLimit))
	}
	return models.NewOpenAIModel(opts...)
}

func printReport(report *rts.Report) {
	aggregate := report.Aggregate()
	overall, scored := report.OverallScore()

	fmt.Println()
	fmt.Printf("Target: %s\n", report.TargetModel)
	fmt.Printf("Cases:  %d total, %d scored\n", report.Len(), scored)
	fmt.Println("────────────────────────────────────────────────────────")
	fmt.Printf("  %-22s %7s  %5s  %s\n", "CATEGORY", "SCORE", "GRADE", "SCORED/UNTESTED/ERRORED")

	cats := make([]rts.VulnerabilityCategory, 0, len(aggregate))
	for cat := range aggregate {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	for _, cat := range cats {
		cs := aggregate[cat]
		fmt.Printf("  %-22s %7.2f  %5s  %d/%d/%d\n",
			cat, cs.Score, rts.GradeForScore(cs.Score), cs.Scored, cs.Untested, cs.Errored)
	}

	fmt.Println("────────────────────────────────────────────────────────")
	if scored > 0 {
		fmt.Printf("  %-22s %7.2f  %5s\n", "OVERALL", overall, rts.GradeForScore(overall))
	} else {
		fmt.Println("  No cases were scored.")
	}
	fmt.Println()
}

func writeJSON(report *rts.Report, outputFile string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		fmt.Printf("Report written to %s\n", outputFile)
		return nil
	}
	fmt.Println(string(data))
	return nil
}

func saveReport(ctx context.Context, path string, report *rts.Report) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveReport(ctx, report)
}

func pushReport(ctx context.Context, cfg *Config, report *rts.Report, auditLog *audit.Logger) error {
	var pusher core.Pusher
	if cfg.Platform.GRPCAddress != "" {
		grpcOpts := []options.GRPCOption{
			options.WithGRPCAddress(cfg.Platform.GRPCAddress),
			options.WithGRPCAPIKey(cfg.Platform.APIKey),
			options.WithGRPCAgentID(cfg.Agent.ID),
			options.WithGRPCTLS(!cfg.Platform.GRPCInsecure, false),
			options.WithGRPCVerbose(cfg.Agent.Verbose),
		}
		if cfg.Platform.Timeout > 0 {
			grpcOpts = append(grpcOpts, options.WithGRPCTimeout(cfg.Platform.Timeout))
		}
		p, err := grpctransport.NewPusher(grpcOpts...)
		if err != nil {
			return err
		}
		defer p.Close()
		pusher = p
	} else {
		clientOpts := []options.ClientOption{
			options.WithBaseURL(cfg.Platform.BaseURL),
			options.WithAPIKey(cfg.Platform.APIKey),
			options.WithAgentID(cfg.Agent.ID),
			options.WithClientVerbose(cfg.Agent.Verbose),
		}
		if cfg.Platform.Timeout > 0 {
			clientOpts = append(clientOpts, options.WithTimeout(cfg.Platform.Timeout))
		}
		c, err := client.NewClient(clientOpts...)
		if err != nil {
			return err
		}
		pusher = c
	}

	result, err := pusher.PushReport(ctx, report)
	auditLog.UploadResult(report.ID, err)
	if err != nil {
		return err
	}
	fmt.Printf("Pushed report %s (%d cases created)\n", result.ReportID, result.CasesCreated)
	return nil
}

func showHistory(ctx context.Context, cfg *Config, n int) {
	path := cfg.Agent.StorePath
	if path == "" {
		fmt.Fprintln(os.Stderr, "Error: no store_path configured; scan history is disabled.")
		os.Exit(1)
	}
	s, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	scans, err := s.ListScans(ctx, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing scans: %v\n", err)
		os.Exit(1)
	}
	if len(scans) == 0 {
		fmt.Println("No scans recorded yet.")
		return
	}

	fmt.Printf("  %-36s  %-20s  %7s  %5s  %s\n", "SCAN ID", "TARGET", "SCORE", "GRADE", "STARTED")
	for _, sc := range scans {
		fmt.Printf("  %-36s  %-20s  %7.2f  %5s  %s\n",
			sc.ID, sc.TargetModel, sc.OverallScore, sc.Grade, sc.StartedAt.Format(time.RFC3339))
	}
}
