// Package output provides the record batch and the dataset writers for the harvester.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Supported dataset formats.
const (
	FormatCSV    = "csv"
	FormatJSONL  = "jsonl"
	FormatSQLite = "sqlite"
)

// Writer defines the interface for dataset writers.
type Writer interface {
	// WriteRecords appends records to the dataset
	WriteRecords(records []Record) error

	// Close closes the writer
	Close() error
}

// Config holds output configuration.
type Config struct {
	Format   string `yaml:"format" json:"format"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// NewWriter creates a new dataset writer for the configured format.
func NewWriter(config Config) (Writer, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("output file path is required")
	}

	switch strings.ToLower(config.Format) {
	case "", FormatCSV:
		return NewCSVWriter(config.FilePath), nil
	case FormatJSONL, "json":
		file, err := openAppend(config.FilePath)
		if err != nil {
			return nil, err
		}
		return NewJSONLWriter(file), nil
	case FormatSQLite:
		return NewSQLiteWriter(config.FilePath)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// openAppend opens path for appending, creating it and its directory if needed.
func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return file, nil
}
