// Package config loads, normalizes, and validates latinize configuration data.
//
// It supplies repository defaults (including the romanization prompt), expands
// user paths, reads TOML files, and honours environment fallbacks such as
// LATINIZE_API_KEY and a .env file in the working directory. The Config type
// centralizes the endpoint, cache location, library scan, and logging knobs
// so the CLI discovers everything in one pass.
package config
