// Package exporter writes review results as styled xlsx workbooks or CSV.
package exporter
