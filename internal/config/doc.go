// Package config loads, normalizes, and validates dvd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YOUTUBE_COOKIES and DVD_DATABASE_ROOT. The Config type is passed explicitly
// into the loader, subtitle fetcher, and frame decoder; nothing reads global
// settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
