package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"toolcheck/pkg/types"
)

// formatVersion identifies the report file schema.
const formatVersion = "1.0"

// RunInfo echoes the configuration the report was produced with, so a
// report file can be interpreted without the config that generated it.
type RunInfo struct {
	Backend             string  `json:"backend"`
	Model               string  `json:"model"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	AbsenceMargin       float64 `json:"absence_margin"`
	Image               string  `json:"image,omitempty"`
	Annotations         string  `json:"annotations,omitempty"`
}

// fileEnvelope is the on-disk report schema.
type fileEnvelope struct {
	Timestamp string              `json:"timestamp"`
	Version   string              `json:"version"`
	Run       RunInfo             `json:"run"`
	Report    types.ToolboxReport `json:"report"`
}

// Write serializes a report to dir as a timestamped JSON file and returns
// the file path.
func Write(dir string, rep types.ToolboxReport, run RunInfo) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("detection_report_%s.json", now.Format("20060102_150405")))

	data, err := json.MarshalIndent(fileEnvelope{
		Timestamp: now.Format(time.RFC3339),
		Version:   formatVersion,
		Run:       run,
		Report:    rep,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
