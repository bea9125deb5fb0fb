// Package dataprocessing implements the review pipeline: ingesting
// Scopus export and united master workbooks, fuzzy duplicate detection by
// title, affiliated-author extraction and department mapping.
//
// The pipeline entry point is Processor.Process. Workbook ingestion lives
// in workbook.go and locates header rows dynamically, so exports with
// banner rows or reordered columns still parse.
package dataprocessing
