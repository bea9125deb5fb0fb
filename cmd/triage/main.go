package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"scopustriage/internal/config"
	"scopustriage/internal/dataprocessing"
	"scopustriage/internal/exporter"
	"scopustriage/internal/infrastructure"
)

func main() {
	scopusPath := flag.String("scopus", "", "path to the Scopus export (.xlsx or .csv)")
	unitedPath := flag.String("united", "", "path to the united database workbook")
	departmentsPath := flag.String("departments", "", "path to the author-to-department mapping workbook (optional)")
	sheet := flag.String("sheet", "", "united database sheet name (default from config, normally \"Last\")")
	outPath := flag.String("out", "", "output .xlsx path (default: generated name in the current directory)")
	csvOut := flag.Bool("csv", false, "write CSV instead of xlsx")
	threshold := flag.Int("threshold", -1, "title similarity threshold 0-100 (default from config)")
	years := flag.String("years", "", "comma-separated publication years to keep (empty keeps all)")
	keywords := flag.String("keywords", "", "semicolon-separated affiliation keywords (default from config)")
	excludes := flag.String("excludes", "", "semicolon-separated affiliation exclusions")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if *scopusPath == "" || *unitedPath == "" {
		fmt.Fprintln(os.Stderr, "both -scopus and -united are required")
		flag.Usage()
		os.Exit(2)
	}

	opts, err := buildOptions(cfg.Processing, *threshold, *years, *keywords, *excludes)
	if err != nil {
		logger.Error("Invalid options", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	start := time.Now()

	sheetName := cfg.Processing.UnitedSheet
	sheetExplicit := false
	if *sheet != "" {
		sheetName = *sheet
		sheetExplicit = true
	}

	source, err := readArticles(*scopusPath, "", false)
	if err != nil {
		logger.Error("Failed to read Scopus export", "path", *scopusPath, "error", err)
		os.Exit(1)
	}

	united, err := readArticles(*unitedPath, sheetName, sheetExplicit)
	if err != nil {
		logger.Error("Failed to read united database", "path", *unitedPath, "error", err)
		os.Exit(1)
	}

	directory, err := readDirectory(*departmentsPath)
	if err != nil {
		logger.Error("Failed to read department mapping", "path", *departmentsPath, "error", err)
		os.Exit(1)
	}

	logger.Info("Workbooks loaded",
		"scopus_articles", len(source),
		"united_articles", len(united),
		"directory_authors", directory.Len())

	processor := dataprocessing.NewProcessor(logger)
	rows, stats, err := processor.Process(ctx, source, united, directory, opts)
	if err != nil {
		logger.Error("Processing failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Processing complete",
		"new_articles", stats.NewArticles,
		"duplicates", stats.DuplicatesFound,
		"no_affiliated_authors", stats.NoAffiliatedAuthors,
		"rows", len(rows),
		"elapsed", time.Since(start).String())

	if len(rows) == 0 {
		logger.Info("No new articles found, nothing to write")
		return
	}

	target := *outPath
	if target == "" {
		target = exporter.BuildFilename(opts.Years, time.Now())
		if *csvOut {
			target = strings.TrimSuffix(target, ".xlsx") + ".csv"
		}
	}

	out, err := os.Create(target)
	if err != nil {
		logger.Error("Failed to create output file", "path", target, "error", err)
		os.Exit(1)
	}
	defer out.Close()

	if *csvOut {
		err = exporter.WriteCSV(out, rows)
	} else {
		err = exporter.NewExcelWriter(cfg.Processing.HighlightColor, logger).Write(out, rows)
	}
	if err != nil {
		logger.Error("Failed to write output", "path", target, "error", err)
		os.Exit(1)
	}

	logger.Info("Output written", "path", target, "rows", len(rows))
}

func readArticles(path, sheet string, explicit bool) ([]dataprocessing.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataprocessing.ReadArticles(f, path, sheet, explicit)
}

func readDirectory(path string) (*dataprocessing.Directory, error) {
	if path == "" {
		return dataprocessing.ReadDirectory(nil, "")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataprocessing.ReadDirectory(f, path)
}

func buildOptions(processing config.ProcessingConfig, threshold int, years, keywords, excludes string) (dataprocessing.Options, error) {
	opts := dataprocessing.Options{
		Threshold:           processing.FuzzyThreshold,
		TitleExcludes:       processing.TitleExcludeKeywords,
		AffiliationKeywords: processing.AffiliationKeywords,
		AffiliationExcludes: processing.AffiliationExcludes,
	}

	if threshold >= 0 {
		if threshold > 100 {
			return opts, fmt.Errorf("threshold must be between 0 and 100, got %d", threshold)
		}
		opts.Threshold = threshold
	}

	if years != "" {
		for _, part := range strings.Split(years, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			year, err := strconv.Atoi(part)
			if err != nil {
				return opts, fmt.Errorf("invalid year %q", part)
			}
			opts.Years = append(opts.Years, year)
		}
	}

	if keywords != "" {
		opts.AffiliationKeywords = splitList(keywords)
	}
	if excludes != "" {
		opts.AffiliationExcludes = splitList(excludes)
	}

	if len(opts.AffiliationKeywords) == 0 {
		return opts, fmt.Errorf("at least one affiliation keyword is required")
	}

	return opts, nil
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}
	return values
}
