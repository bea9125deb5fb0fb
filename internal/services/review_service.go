package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scopustriage/internal/dataprocessing"
	"scopustriage/internal/exporter"
	"scopustriage/internal/infrastructure"
)

// UploadFile is one uploaded workbook: its original filename (used to
// pick the parser) and its content stream.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// ReviewRequest carries everything one review run needs.
type ReviewRequest struct {
	Scopus      UploadFile
	United      UploadFile
	Departments *UploadFile // optional; nil means an empty directory

	UnitedSheet   string
	SheetExplicit bool // the user named the sheet; do not fall back silently

	Options dataprocessing.Options
}

// Review is a completed run retained for download.
type Review struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Filename  string                 `json:"filename"`
	Stats     dataprocessing.Stats   `json:"stats"`
	RowCount  int                    `json:"row_count"`
	Preview   []dataprocessing.ResultRow `json:"preview"`

	workbook []byte
}

// HasWorkbook reports whether the run produced downloadable rows.
func (r *Review) HasWorkbook() bool {
	return len(r.workbook) > 0
}

// previewLimit caps how many result rows the summary response carries.
const previewLimit = 10

// ReviewService runs the pipeline over uploaded workbooks and retains the
// outcome for download.
type ReviewService struct {
	processor *dataprocessing.Processor
	writer    *exporter.ExcelWriter
	store     *ReviewStore
	metrics   *infrastructure.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewReviewService creates a review service. metrics may be nil.
func NewReviewService(writer *exporter.ExcelWriter, store *ReviewStore, metrics *infrastructure.Metrics, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{
		processor: dataprocessing.NewProcessor(logger),
		writer:    writer,
		store:     store,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "review_service")),
		now:       time.Now,
	}
}

// Run parses the uploads, executes the pipeline and stores the outcome.
// The three workbooks are independent streams, so they are parsed
// concurrently.
func (s *ReviewService) Run(ctx context.Context, req ReviewRequest) (*Review, error) {
	started := s.now()

	var (
		source    []dataprocessing.Article
		united    []dataprocessing.Article
		directory *dataprocessing.Directory
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		source, err = dataprocessing.ReadArticles(req.Scopus.Reader, req.Scopus.Name, "", false)
		if err != nil {
			return fmt.Errorf("scopus export: %w", err)
		}
		return gctx.Err()
	})

	g.Go(func() error {
		var err error
		united, err = dataprocessing.ReadArticles(req.United.Reader, req.United.Name, req.UnitedSheet, req.SheetExplicit)
		if err != nil {
			return fmt.Errorf("united database: %w", err)
		}
		return gctx.Err()
	})

	g.Go(func() error {
		var err error
		if req.Departments == nil {
			directory, err = dataprocessing.ReadDirectory(nil, "")
		} else {
			directory, err = dataprocessing.ReadDirectory(req.Departments.Reader, req.Departments.Name)
		}
		if err != nil {
			return fmt.Errorf("department mapping: %w", err)
		}
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "workbooks loaded",
		slog.Int("scopus_articles", len(source)),
		slog.Int("united_articles", len(united)),
		slog.Int("directory_authors", directory.Len()))

	rows, stats, err := s.processor.Process(ctx, source, united, directory, req.Options)
	if err != nil {
		return nil, err
	}

	review := &Review{
		ID:        uuid.New().String(),
		CreatedAt: s.now(),
		Filename:  exporter.BuildFilename(req.Options.Years, s.now()),
		Stats:     stats,
		RowCount:  len(rows),
	}

	if n := len(rows); n > 0 {
		limit := n
		if limit > previewLimit {
			limit = previewLimit
		}
		review.Preview = rows[:limit]

		var buf bytes.Buffer
		if err := s.writer.Write(&buf, rows); err != nil {
			return nil, fmt.Errorf("failed to render workbook: %w", err)
		}
		review.workbook = buf.Bytes()
	}

	s.store.Put(review)

	if s.metrics != nil {
		s.metrics.ReviewsProcessed.Inc()
		s.metrics.ReviewDuration.Observe(s.now().Sub(started).Seconds())
	}

	s.logger.InfoContext(ctx, "review complete",
		slog.String("review_id", review.ID),
		slog.Int("rows", review.RowCount),
		slog.Int("new_articles", stats.NewArticles),
		slog.Int("duplicates", stats.DuplicatesFound),
		slog.Duration("elapsed", s.now().Sub(started)))

	return review, nil
}

// Get returns a stored review by ID.
func (s *ReviewService) Get(ctx context.Context, id string) (*Review, error) {
	review, ok := s.store.Get(id)
	if !ok {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

// Workbook returns the rendered xlsx bytes and filename for a stored
// review.
func (s *ReviewService) Workbook(ctx context.Context, id string) ([]byte, string, error) {
	review, ok := s.store.Get(id)
	if !ok {
		return nil, "", ErrReviewNotFound
	}
	if !review.HasWorkbook() {
		return nil, "", ErrNoResult
	}
	return review.workbook, review.Filename, nil
}
