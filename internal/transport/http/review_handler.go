package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"scopustriage/internal/config"
	"scopustriage/internal/dataprocessing"
	apierrors "scopustriage/internal/errors"
	"scopustriage/internal/services"
	"scopustriage/internal/validation"
)

// ReviewServiceInterface abstracts the review service for testing
type ReviewServiceInterface interface {
	Run(ctx context.Context, req services.ReviewRequest) (*services.Review, error)
	Get(ctx context.Context, id string) (*services.Review, error)
	Workbook(ctx context.Context, id string) ([]byte, string, error)
}

// ReviewHandler handles review-related HTTP requests with RFC 7807 compliance
type ReviewHandler struct {
	service      ReviewServiceInterface
	uploads      *validation.UploadValidator
	processing   config.ProcessingConfig
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBytes     int64
}

// NewReviewHandler creates a new review handler with RFC 7807 error handling
func NewReviewHandler(service ReviewServiceInterface, uploads *validation.UploadValidator, processing config.ProcessingConfig, maxBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReviewHandler {
	return &ReviewHandler{
		service:      service,
		uploads:      uploads,
		processing:   processing,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "review_handler")),
		errorHandler: errorHandler,
		maxBytes:     maxBytes,
	}
}

// Routes returns the review routes with proper Chi patterns
func (h *ReviewHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateReview)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.ReviewCtx)
		r.Get("/", h.GetReview)
		r.Get("/download", h.DownloadReview)
	})

	return r
}

// ReviewCtx middleware validates the review ID parameter
func (h *ReviewHandler) ReviewCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Review ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateReview handles POST /api/reviews. The request is a multipart form
// with two required workbooks (scopus, united), an optional department
// mapping workbook (departments), and the processing options as form
// values.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(
			fmt.Errorf("expected multipart form data: %w", err)))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	scopus, scopusHeader, err := h.formFile(r, "scopus", true)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer scopus.Close()

	united, unitedHeader, err := h.formFile(r, "united", true)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer united.Close()

	req := services.ReviewRequest{
		Scopus: services.UploadFile{Name: scopusHeader.Filename, Reader: scopus},
		United: services.UploadFile{Name: unitedHeader.Filename, Reader: united},
	}

	departments, depHeader, err := h.formFile(r, "departments", false)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if departments != nil {
		defer departments.Close()
		req.Departments = &services.UploadFile{Name: depHeader.Filename, Reader: departments}
	}

	opts, err := h.parseOptions(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	req.Options = opts

	req.UnitedSheet = h.processing.UnitedSheet
	if sheet := strings.TrimSpace(r.FormValue("united_sheet")); sheet != "" {
		req.UnitedSheet = sheet
		req.SheetExplicit = true
	}

	h.logger.InfoContext(ctx, "review requested",
		slog.String("scopus_file", scopusHeader.Filename),
		slog.String("united_file", unitedHeader.Filename),
		slog.Bool("has_departments", req.Departments != nil),
		slog.Int("threshold", opts.Threshold),
	)

	review, err := h.service.Run(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "review failed",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, mapServiceError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   review,
	})
}

// GetReview handles GET /api/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	review, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrReviewNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.ErrReviewNotFound)
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   review,
	})
}

// DownloadReview handles GET /api/reviews/{id}/download
func (h *ReviewHandler) DownloadReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	workbook, filename, err := h.service.Workbook(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReviewNotFound):
			h.errorHandler.HandleError(w, r, apierrors.ErrReviewNotFound)
		case errors.Is(err, services.ErrNoResult):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"NO_RESULT",
				"The review produced no new articles; there is nothing to download",
			))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(workbook)))
	w.WriteHeader(http.StatusOK)
	w.Write(workbook)
}

// formFile fetches and validates an uploaded workbook. A missing optional
// upload returns (nil, nil, nil).
func (h *ReviewHandler) formFile(r *http.Request, field string, required bool) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if required {
				return nil, nil, apierrors.ErrValidation(field, fmt.Sprintf("The %s workbook is required", field))
			}
			return nil, nil, nil
		}
		return nil, nil, apierrors.UploadError(field, err)
	}

	if err := h.uploads.ValidateWorkbook(field, header); err != nil {
		file.Close()
		return nil, nil, apierrors.ErrValidation(field, err.Error())
	}

	return file, header, nil
}

// parseOptions builds processing options from the form, falling back to
// the configured defaults field by field.
func (h *ReviewHandler) parseOptions(r *http.Request) (dataprocessing.Options, error) {
	opts := dataprocessing.Options{
		Threshold:           h.processing.FuzzyThreshold,
		TitleExcludes:       h.processing.TitleExcludeKeywords,
		AffiliationKeywords: h.processing.AffiliationKeywords,
		AffiliationExcludes: h.processing.AffiliationExcludes,
	}

	if raw := strings.TrimSpace(r.FormValue("threshold")); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil {
			return opts, apierrors.ErrValidation("threshold", "Threshold must be an integer between 0 and 100")
		}
		opts.Threshold = threshold
	}

	if raw := strings.TrimSpace(r.FormValue("years")); raw != "" {
		years, err := parseYearList(raw)
		if err != nil {
			return opts, apierrors.ErrValidation("years", err.Error())
		}
		opts.Years = years
	}

	if values, ok := formList(r, "title_excludes"); ok {
		opts.TitleExcludes = values
	}
	if values, ok := formList(r, "affiliation_keywords"); ok {
		opts.AffiliationKeywords = values
	}
	if values, ok := formList(r, "affiliation_excludes"); ok {
		opts.AffiliationExcludes = values
	}

	if err := h.validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]apierrors.ValidationError, 0, len(verrs))
			for _, verr := range verrs {
				fields = append(fields, apierrors.ValidationError{
					Field:   verr.Field(),
					Message: fmt.Sprintf("failed %q validation", verr.Tag()),
				})
			}
			return opts, apierrors.NewValidationErrors(fields)
		}
		return opts, apierrors.InvalidRequestWithError(err)
	}

	return opts, nil
}

// mapServiceError turns workbook parse failures into client errors; the
// user uploaded the file, so the fix is on their side.
func mapServiceError(err error) error {
	var missingCol *dataprocessing.MissingColumnError
	var sheetErr *dataprocessing.SheetNotFoundError
	switch {
	case errors.As(err, &missingCol), errors.As(err, &sheetErr),
		errors.Is(err, dataprocessing.ErrEmptyWorkbook):
		return apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"UPLOAD_UNPROCESSABLE",
			err.Error(),
			nil,
		)
	case strings.Contains(err.Error(), "failed to open workbook"):
		return apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"UPLOAD_UNPROCESSABLE",
			"The uploaded file is not a readable workbook",
			err.Error(),
		)
	}
	return err
}

// parseYearList parses a comma-separated year filter like "2023, 2024".
func parseYearList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	years := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		year, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q: years must be integers", part)
		}
		years = append(years, year)
	}
	return years, nil
}

// formList reads a newline- or semicolon-separated list field. The second
// return reports whether the field was present at all, so an absent field
// keeps the configured default while an empty one clears it.
func formList(r *http.Request, field string) ([]string, bool) {
	if r.MultipartForm == nil {
		return nil, false
	}
	raw, ok := r.MultipartForm.Value[field]
	if !ok || len(raw) == 0 {
		return nil, false
	}

	var values []string
	for _, entry := range raw {
		for _, part := range strings.FieldsFunc(entry, func(r rune) bool {
			return r == '\n' || r == ';'
		}) {
			part = strings.TrimSpace(part)
			if part != "" {
				values = append(values, part)
			}
		}
	}
	return values, true
}
