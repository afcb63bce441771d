package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Siloq-app/siloq-api/internal/logger"
	"github.com/Siloq-app/siloq-api/internal/output"
	"github.com/Siloq-app/siloq-api/internal/state"
	"github.com/Siloq-app/siloq-api/pkg/cannibalization"
)

var version = "1.0.0"

var (
	trafficFile     string
	lookbackDays    int
	strictMode      bool
	outFile         string
	stateFile       string
	siteID          int
	brandName       string
	homepageTitle   string
	pretty          bool
	redirectCSVFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "cannibalize",
		Short:   "Keyword-cannibalization detection engine",
		Long:    "Classifies a site's pages, detects groups competing for the same search intent, validates against search traffic, and emits prioritized, recommended-action clusters.",
		Version: version,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [pages.json]",
		Short: "Run the seven-phase analysis over a pages export",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	showCmd := &cobra.Command{
		Use:   "show [run.db]",
		Short: "Show the latest persisted run for a site",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	analyzeCmd.Flags().StringVar(&trafficFile, "traffic", "", "Search-console traffic fixture (JSON), enables P4/P5")
	analyzeCmd.Flags().IntVar(&lookbackDays, "lookback-days", 90, "Traffic lookback window in days")
	analyzeCmd.Flags().BoolVar(&strictMode, "strict", false, "Use the stricter pipeline config preset")
	analyzeCmd.Flags().StringVar(&outFile, "out", "", "Output file for the full result (default: stdout)")
	analyzeCmd.Flags().StringVar(&stateFile, "state", "", "BoltDB file to persist the run to")
	analyzeCmd.Flags().IntVar(&siteID, "site-id", 1, "Site ID to stamp onto the run")
	analyzeCmd.Flags().StringVar(&brandName, "brand", "", "Brand name, used to exclude branded queries in P4/P5")
	analyzeCmd.Flags().StringVar(&homepageTitle, "homepage-title", "", "Homepage title, used by the branded-query filter")
	analyzeCmd.Flags().BoolVar(&pretty, "pretty", true, "Pretty-print JSON output")
	analyzeCmd.Flags().StringVar(&redirectCSVFile, "redirect-csv", "", "Also write a canonical-redirect CSV to this path")

	showCmd.Flags().IntVar(&siteID, "site-id", 1, "Site ID whose latest run to show")
	showCmd.Flags().BoolVar(&pretty, "pretty", true, "Pretty-print JSON output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(showCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	pagesPath := args[0]

	log := logger.NewDefault().WithComponent("cmd")

	pages, err := loadPageSource(pagesPath)
	if err != nil {
		return err
	}

	cfg := cannibalization.DefaultPipelineConfig()
	if strictMode {
		cfg = cannibalization.StrictPipelineConfig()
	}

	opts := []cannibalization.Option{
		cannibalization.WithConfig(cfg),
		cannibalization.WithPageSource(pages),
		cannibalization.WithSiteMetadata(staticSiteMetadata{brand: brandName, homepageTitle: homepageTitle}),
	}

	includeTraffic := trafficFile != ""
	if includeTraffic {
		traffic, err := loadTrafficSource(trafficFile)
		if err != nil {
			return err
		}
		opts = append(opts, cannibalization.WithTrafficSource(traffic))
	}

	var sink *state.BoltStore
	if stateFile != "" {
		sink, err = state.NewBoltStore(stateFile)
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}
		defer sink.Close()
		opts = append(opts, cannibalization.WithResultSink(sink))
	}

	pipeline, err := cannibalization.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nreceived interrupt signal, output will not be written once the running analysis returns")
		cancel()
	}()

	runID := uuid.New()
	log.WithRun(runID.String()).Info("starting analysis")

	result, runErr := pipeline.RunAnalysis(runID, siteID, includeTraffic, lookbackDays)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		log.WithError(runErr).Error("analysis failed")
	}

	if err := writeResult(result); err != nil {
		return err
	}

	if redirectCSVFile != "" && runErr == nil {
		classifications := cannibalization.ClassifyPages(pages.pages, cfg)
		byID := cannibalization.IndexByID(classifications)
		if err := writeRedirectCSV(result, byID); err != nil {
			return err
		}
	}

	return runErr
}

func runShow(cmd *cobra.Command, args []string) error {
	dbPath := args[0]

	store, err := state.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer store.Close()

	result, err := store.LoadLatest(siteID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if result == nil {
		return fmt.Errorf("no run recorded for site %d", siteID)
	}

	summary := output.Summarize(result)

	var data []byte
	if pretty {
		data, err = json.MarshalIndent(summary, "", "  ")
	} else {
		data, err = json.Marshal(summary)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Println(string(data))
	return err
}

func writeResult(result *cannibalization.AnalysisRunResult) error {
	var w *os.File
	if outFile == "" {
		w = os.Stdout
	} else {
		f, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	writer := output.NewWriter(w, output.Config{Format: "json", Pretty: pretty})
	defer writer.Close()

	return writer.WriteResult(result)
}
