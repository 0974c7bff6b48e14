package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"toolcheck"
	"toolcheck/internal/config"
	"toolcheck/internal/logging"
	"toolcheck/internal/notify"
	"toolcheck/internal/server"
	"toolcheck/pkg/annotations"
	"toolcheck/pkg/client"
	"toolcheck/pkg/clipserver"
	"toolcheck/pkg/detection"
	"toolcheck/pkg/ollama"
	"toolcheck/pkg/processing"
	"toolcheck/pkg/report"
	"toolcheck/pkg/types"
)

func main() {
	var imagePath, annotationPath, configPath, outDir string
	var backend, url, model string
	var overlay, serve, sendAlerts bool

	flag.StringVar(&imagePath, "image", "", "toolbox photo path or URL (jpg/png/webp)")
	flag.StringVar(&annotationPath, "annotations", "", "COCO-style annotation file with tool slot regions")
	flag.StringVar(&configPath, "config", "config.yaml", "configuration file")
	flag.StringVar(&outDir, "out", "", "report output directory (overrides config)")
	flag.StringVar(&backend, "backend", "", "scoring backend: clipserver or ollama (overrides config)")
	flag.StringVar(&url, "url", "", "scoring server URL (overrides config)")
	flag.StringVar(&model, "model", "", "model name (overrides config)")
	flag.BoolVar(&overlay, "overlay", false, "write a status overlay image next to the report")
	flag.BoolVar(&serve, "serve", false, "run the HTTP check endpoint instead of a one-shot check")
	flag.BoolVar(&sendAlerts, "notify", false, "send Telegram alerts after the check")
	flag.Parse()

	if annotationPath == "" || (!serve && imagePath == "") {
		fmt.Fprintf(os.Stderr, "usage: %s -annotations slots.json -image toolbox.jpg [-config config.yaml] [-backend clipserver|ollama] [-out dir] [-overlay] [-serve] [-notify]\n",
			filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if backend != "" {
		cfg.Scorer.Backend = backend
	}
	if url != "" {
		cfg.Scorer.URL = url
	}
	if model != "" {
		cfg.Scorer.Model = model
	}
	if outDir != "" {
		cfg.Output.ReportDir = outDir
	}
	if overlay {
		cfg.Output.Overlay = true
	}
	if sendAlerts {
		cfg.Notify.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	scorer, err := buildScorer(cfg.Scorer)
	if err != nil {
		logger.Fatal("failed to create score client", zap.Error(err))
	}

	opts := detection.Options{
		Model:       cfg.Scorer.Model,
		SendFormat:  cfg.Scorer.SendFormat,
		SendMaxDim:  cfg.Scorer.SendMaxDim,
		SendQuality: cfg.Scorer.SendQuality,
	}
	checker, err := toolcheck.New(scorer, cfg.Classify, cfg.Buckets, opts, logger)
	if err != nil {
		logger.Fatal("failed to create checker", zap.Error(err))
	}

	anns, err := annotations.Load(annotationPath)
	if err != nil {
		logger.Fatal("failed to load annotations", zap.Error(err))
	}
	logger.Info("annotations loaded",
		zap.String("path", annotationPath),
		zap.Int("regions", len(anns)))

	if serve {
		srv := server.New(checker, anns, cfg.Server, logger)
		if err := srv.Run(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
		return
	}

	processor := processing.NewProcessor()
	img, err := processor.LoadImageSmart(imagePath)
	if err != nil {
		logger.Fatal("failed to load image", zap.Error(err))
	}

	start := time.Now()
	rep, err := checker.CheckImage(context.Background(), img, anns)
	if err != nil {
		logger.Fatal("check failed", zap.Error(err))
	}
	logger.Info("check complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("regions", rep.TotalCount),
		zap.String("overall", rep.OverallStatus))

	reportPath, err := report.Write(cfg.Output.ReportDir, rep, report.RunInfo{
		Backend:             cfg.Scorer.Backend,
		Model:               cfg.Scorer.Model,
		ConfidenceThreshold: cfg.Classify.ConfidenceThreshold,
		AbsenceMargin:       cfg.Classify.AbsenceMargin,
		Image:               imagePath,
		Annotations:         annotationPath,
	})
	if err != nil {
		logger.Fatal("failed to write report", zap.Error(err))
	}

	if cfg.Output.Overlay {
		overlayImg := checker.RenderOverlay(img, rep)
		ext := strings.ToLower(cfg.Output.OverlayFormat)
		overlayPath := strings.TrimSuffix(reportPath, ".json") + "_overlay." + ext
		if err := processor.SaveImage(overlayImg, overlayPath, ext, cfg.Output.OverlayQuality, false); err != nil {
			logger.Warn("failed to save overlay", zap.Error(err))
		} else {
			logger.Info("overlay written", zap.String("path", overlayPath))
		}
	}

	printSummary(rep, reportPath)

	if cfg.Notify.Enabled {
		notifier, err := notify.NewTelegramNotifier(cfg.Notify.TelegramToken(), cfg.Notify.ChatID)
		if err != nil {
			logger.Warn("notifier unavailable", zap.Error(err))
		} else if err := notifier.SendReport(rep); err != nil {
			logger.Warn("failed to send alerts", zap.Error(err))
		}
	}

	if rep.MissingCount > 0 || rep.ErrorCount > 0 {
		os.Exit(1)
	}
}

// buildScorer creates the scoring backend named by the configuration.
func buildScorer(cfg config.ScorerConfig) (client.ScoreClient, error) {
	switch cfg.Backend {
	case "ollama":
		url := cfg.URL
		if url == "" {
			url = "http://localhost:11434"
		}
		return ollama.NewClient(url)
	default:
		return clipserver.NewClient(cfg.URL)
	}
}

func printSummary(rep types.ToolboxReport, reportPath string) {
	fmt.Printf("toolbox check: %s\n", rep.OverallStatus)
	fmt.Printf("  total:      %d\n", rep.TotalCount)
	fmt.Printf("  present:    %d\n", rep.PresentCount)
	fmt.Printf("  missing:    %d\n", rep.MissingCount)
	fmt.Printf("  uncertain:  %d\n", rep.UncertainCount)
	fmt.Printf("  errors:     %d\n", rep.ErrorCount)
	fmt.Printf("  complete:   %.1f%%\n", rep.CompletenessPct)
	for _, r := range rep.Regions {
		fmt.Printf("  [%s] region %d %s (score %+.4f)\n", r.Status, r.RegionID, r.Category, r.Score)
	}
	fmt.Printf("report written to %s\n", reportPath)
}
