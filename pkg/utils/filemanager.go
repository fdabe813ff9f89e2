// =============================================================================
// CSV to Tally Sync - File Manager Utility
// =============================================================================
//
// This module provides the file helpers used around a sync run:
//   - Checking whether a file exists (optional config file)
//   - Directory management for the report directory
//   - Report file naming and writing
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultReportFileFormat names run report files.
const DefaultReportFileFormat = "sync_report_{timestamp}_{uuid}.txt"

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectory creates dir and any missing parents.
func EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateFileName generates a unique file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID, unless params supplies one
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//   - params: Additional or overriding placeholder values.
//
// EXAMPLE:
//
//	format: "sync_report_{date}_{uuid}.txt"
//	output: "sync_report_20240401_a1b2c3d4-e5f6-7890-abcd-ef1234567890.txt"
func GenerateFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// =============================================================================
// RUN REPORT
// =============================================================================

// WriteRunReport writes a rendered run report into dir, creating dir if
// needed. The file is named after the run id.
//
// RETURNS:
//   - The path to the report file.
//   - An error if writing fails.
func WriteRunReport(dir string, runID uuid.UUID, content string) (string, error) {
	if err := EnsureDirectory(dir); err != nil {
		return "", err
	}

	name := GenerateFileName(DefaultReportFileFormat, map[string]string{"uuid": runID.String()})
	reportPath := filepath.Join(dir, name)

	file, err := os.Create(reportPath)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.WriteString(content); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush report file: %w", err)
	}

	return reportPath, nil
}
