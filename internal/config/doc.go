// Package config loads and validates application configuration.
//
// Configuration is layered: struct-tag defaults, then an optional
// config.yaml, then SCOPUS_* environment variables, with later layers
// winning. The Processing section holds the review-run defaults the
// upload form is pre-filled with (fuzzy threshold, affiliation keywords,
// title exclusion substrings, highlight color, united sheet name).
package config
