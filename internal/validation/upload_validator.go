// Package validation checks uploaded register files before they reach
// the ingestion pipeline.
package validation

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Upload size is additionally enforced at the HTTP layer; the cap here
// guards direct service callers.

// UploadValidator validates dataset uploads by name, size, and encoding
type UploadValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// allowedExtensions maps accepted upload extensions to whether the
// payload is a spreadsheet workbook rather than plain CSV.
var allowedExtensions = map[string]bool{
	".csv":  false,
	".xlsx": true,
}

// NewUploadValidator creates a new upload validator
func NewUploadValidator(logger *slog.Logger, maxBytes int64) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		logger:   logger.With(slog.String("component", "upload_validator")),
		maxBytes: maxBytes,
	}
}

// ValidateName checks the uploaded filename and reports whether the
// payload should be parsed as a workbook.
func (v *UploadValidator) ValidateName(filename string) (workbook bool, err error) {
	base := filepath.Base(filename)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return false, fmt.Errorf("missing filename")
	}

	ext := strings.ToLower(filepath.Ext(base))
	isWorkbook, ok := allowedExtensions[ext]
	if !ok {
		v.logger.Warn("rejected upload with unsupported extension",
			slog.String("filename", base),
			slog.String("extension", ext))
		return false, fmt.Errorf("unsupported file type %q: expected .csv or .xlsx", ext)
	}

	return isWorkbook, nil
}

// ValidateSize checks the declared upload size against the configured cap
func (v *UploadValidator) ValidateSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("empty upload")
	}
	if size > v.maxBytes {
		v.logger.Warn("rejected oversized upload",
			slog.Int64("size", size),
			slog.Int64("limit", v.maxBytes))
		return fmt.Errorf("upload of %d bytes exceeds limit of %d bytes", size, v.maxBytes)
	}
	return nil
}

// ValidateCSVPayload checks that a CSV payload is valid UTF-8.
// Workbook payloads are binary and skip this check.
func (v *UploadValidator) ValidateCSVPayload(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty upload")
	}
	if !utf8.Valid(data) {
		v.logger.Warn("rejected upload with invalid encoding")
		return fmt.Errorf("file is not valid UTF-8")
	}
	return nil
}
