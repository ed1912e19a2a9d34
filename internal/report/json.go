package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dharmasatrya/weekendfares/internal/models"
)

// FileName returns flight_report_<YYYYMMDD_HHMMSS>.json for a generation time.
func FileName(generatedAt time.Time) string {
	return "flight_report_" + generatedAt.UTC().Format("20060102_150405") + ".json"
}

func Encode(w io.Writer, report models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Save writes the report into dir and returns the file path.
func Save(dir string, report models.Report) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, FileName(report.Metadata.GeneratedAt))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if err := Encode(f, report); err != nil {
		f.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	return path, nil
}

func Load(path string) (models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Report{}, err
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return models.Report{}, fmt.Errorf("decode report %s: %w", path, err)
	}
	return report, nil
}

var ErrNoReportFile = errors.New("no report file found")

// FindLatest returns the newest report file in dir. File names sort by
// generation time.
func FindLatest(dir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "flight_report_*.json"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoReportFile
	}
	return slices.Max(files), nil
}
