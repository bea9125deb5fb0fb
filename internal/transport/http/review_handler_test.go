package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scopustriage/internal/config"
	"scopustriage/internal/dataprocessing"
	apierrors "scopustriage/internal/errors"
	"scopustriage/internal/services"
	"scopustriage/internal/validation"
)

// stubReviewService implements ReviewServiceInterface for handler tests.
type stubReviewService struct {
	review   *services.Review
	runErr   error
	getErr   error
	workbook []byte
	filename string
	wbErr    error

	lastRequest *services.ReviewRequest
}

func (s *stubReviewService) Run(ctx context.Context, req services.ReviewRequest) (*services.Review, error) {
	s.lastRequest = &req
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.review, nil
}

func (s *stubReviewService) Get(ctx context.Context, id string) (*services.Review, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.review, nil
}

func (s *stubReviewService) Workbook(ctx context.Context, id string) ([]byte, string, error) {
	if s.wbErr != nil {
		return nil, "", s.wbErr
	}
	return s.workbook, s.filename, nil
}

func newTestHandler(svc ReviewServiceInterface) *ReviewHandler {
	logger := slog.Default()
	return NewReviewHandler(
		svc,
		validation.NewUploadValidator(10<<20, logger),
		config.Default().Processing,
		10<<20,
		logger,
		apierrors.NewErrorHandler(logger, false),
	)
}

// multipartBody builds a multipart form with the given file uploads and
// plain fields.
func multipartBody(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := w.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for field, value := range fields {
		require.NoError(t, w.WriteField(field, value))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func sampleReview() *services.Review {
	return &services.Review{
		ID:       "11111111-2222-3333-4444-555555555555",
		Filename: "new_articles_all_years_2026-08-30_12-00-00.xlsx",
		RowCount: 1,
		Stats:    dataprocessing.Stats{SourceTotal: 2, NewArticles: 1, DuplicatesFound: 1},
		Preview:  []dataprocessing.ResultRow{{Title: "Some Title", Source: "Scopus"}},
	}
}

func TestCreateReview(t *testing.T) {
	svc := &stubReviewService{review: sampleReview()}
	h := newTestHandler(svc)

	body, contentType := multipartBody(t,
		map[string][]byte{
			"scopus": []byte("Title\nX\n"),
			"united": []byte("Title\nY\n"),
		},
		map[string]string{
			"threshold": "85",
			"years":     "2024, 2025",
		},
	)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Status string          `json:"status"`
		Data   services.Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, svc.review.ID, resp.Data.ID)
	assert.Equal(t, 1, resp.Data.RowCount)

	require.NotNil(t, svc.lastRequest)
	assert.Equal(t, 85, svc.lastRequest.Options.Threshold)
	assert.Equal(t, []int{2024, 2025}, svc.lastRequest.Options.Years)
	assert.Equal(t, "Last", svc.lastRequest.UnitedSheet)
	assert.False(t, svc.lastRequest.SheetExplicit)
	assert.Nil(t, svc.lastRequest.Departments)
	// Configured defaults apply when the form omits the keywords.
	assert.Equal(t, config.DefaultAffiliationKeywords, svc.lastRequest.Options.AffiliationKeywords)
}

func TestCreateReviewTitleExcludes(t *testing.T) {
	files := map[string][]byte{"scopus": []byte("x"), "united": []byte("y")}

	tests := []struct {
		name   string
		fields map[string]string
		want   []string
	}{
		{
			name:   "absent field keeps configured defaults",
			fields: map[string]string{},
			want:   config.DefaultTitleExcludeKeywords,
		},
		{
			name:   "empty field turns the filter off",
			fields: map[string]string{"title_excludes": ""},
			want:   nil,
		},
		{
			name:   "provided keywords replace the defaults",
			fields: map[string]string{"title_excludes": "Retracted:\nEditorial note"},
			want:   []string{"Retracted:", "Editorial note"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubReviewService{review: sampleReview()}
			h := newTestHandler(svc)

			body, contentType := multipartBody(t, files, tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			require.Equal(t, http.StatusCreated, rec.Code)
			require.NotNil(t, svc.lastRequest)
			assert.Equal(t, tt.want, svc.lastRequest.Options.TitleExcludes)
		})
	}
}

func TestCreateReviewExplicitSheet(t *testing.T) {
	svc := &stubReviewService{review: sampleReview()}
	h := newTestHandler(svc)

	body, contentType := multipartBody(t,
		map[string][]byte{"scopus": []byte("x"), "united": []byte("y")},
		map[string]string{"united_sheet": "2025"},
	)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2025", svc.lastRequest.UnitedSheet)
	assert.True(t, svc.lastRequest.SheetExplicit)
}

func TestCreateReviewMissingUpload(t *testing.T) {
	h := newTestHandler(&stubReviewService{})

	body, contentType := multipartBody(t,
		map[string][]byte{"scopus": []byte("x")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "united")
	assert.Contains(t, rec.Body.String(), "/errors/validation")
}

func TestCreateReviewBadThreshold(t *testing.T) {
	h := newTestHandler(&stubReviewService{})

	body, contentType := multipartBody(t,
		map[string][]byte{"scopus": []byte("x"), "united": []byte("y")},
		map[string]string{"threshold": "very fuzzy"},
	)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "threshold")
}

func TestCreateReviewThresholdOutOfRange(t *testing.T) {
	h := newTestHandler(&stubReviewService{})

	body, contentType := multipartBody(t,
		map[string][]byte{"scopus": []byte("x"), "united": []byte("y")},
		map[string]string{"threshold": "150"},
	)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReviewNotMultipart(t *testing.T) {
	h := newTestHandler(&stubReviewService{})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"threshold":90}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReview(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &stubReviewService{review: sampleReview()}
		h := newTestHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/"+svc.review.ID, nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), svc.review.ID)
	})

	t.Run("not found", func(t *testing.T) {
		h := newTestHandler(&stubReviewService{getErr: services.ErrReviewNotFound})

		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "/errors/review/not-found")
	})
}

func TestDownloadReview(t *testing.T) {
	t.Run("serves workbook as attachment", func(t *testing.T) {
		svc := &stubReviewService{
			workbook: []byte("xlsx-bytes"),
			filename: "new_articles_2024_2026-08-30_12-00-00.xlsx",
		}
		h := newTestHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/abc/download", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			rec.Header().Get("Content-Type"))
		assert.Equal(t,
			fmt.Sprintf("attachment; filename=%q", svc.filename),
			rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "xlsx-bytes", rec.Body.String())
	})

	t.Run("no result", func(t *testing.T) {
		h := newTestHandler(&stubReviewService{wbErr: services.ErrNoResult})

		req := httptest.NewRequest(http.MethodGet, "/abc/download", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "nothing to download")
	})

	t.Run("unknown review", func(t *testing.T) {
		h := newTestHandler(&stubReviewService{wbErr: services.ErrReviewNotFound})

		req := httptest.NewRequest(http.MethodGet, "/abc/download", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
