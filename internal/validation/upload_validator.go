package validation

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// UploadValidator checks uploaded workbook files before they are parsed.
type UploadValidator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadValidator creates an upload validator with a per-file size cap.
func NewUploadValidator(maxBytes int64, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "upload_validator")),
	}
}

// allowedExtensions are the formats the ingest layer can read. The legacy
// binary .xls format is rejected with a pointer to re-saving as .xlsx.
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// ValidateWorkbook checks an uploaded file's name and size. field names
// the form field for error messages.
func (v *UploadValidator) ValidateWorkbook(field string, header *multipart.FileHeader) error {
	if header == nil {
		return fmt.Errorf("no file uploaded for %s", field)
	}

	name := filepath.Base(header.Filename)
	if strings.HasPrefix(name, "~$") {
		v.logger.Warn("rejecting temporary Excel file",
			slog.String("field", field),
			slog.String("filename", name))
		return fmt.Errorf("%s is an Excel temporary file; upload the original workbook", name)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".xls" {
		return fmt.Errorf("the legacy .xls format is not supported; re-save %s as .xlsx", name)
	}
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file type %q for %s; expected .xlsx or .csv", ext, field)
	}

	if v.maxBytes > 0 && header.Size > v.maxBytes {
		v.logger.Warn("rejecting oversized upload",
			slog.String("field", field),
			slog.String("filename", name),
			slog.Int64("size", header.Size),
			slog.Int64("limit", v.maxBytes))
		return fmt.Errorf("%s exceeds the %d MB upload limit", name, v.maxBytes>>20)
	}

	if header.Size == 0 {
		return fmt.Errorf("%s is empty", name)
	}

	v.logger.Debug("upload validated",
		slog.String("field", field),
		slog.String("filename", name),
		slog.Int64("size", header.Size))
	return nil
}
