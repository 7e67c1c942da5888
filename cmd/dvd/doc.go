// Package main hosts the dvd CLI entrypoint and command graph.
//
// The Cobra command tree maps the three ingest operations onto subcommands:
// load stores a video (and optionally its subtitle and frames), subtitle
// fetches an SRT for a YouTube URL, and frames samples a stored video into
// JPEGs. status and config cover environment checks and scaffolding.
//
// Commands stay thin: they resolve configuration and logging through the
// shared commandContext and hand off to the internal packages.
package main
