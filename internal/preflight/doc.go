// Package preflight provides readiness checks for the filesystem paths,
// cookie file, and external tools dvd depends on.
//
// The CLI "dvd status" command renders these results; "dvd load" refuses to
// start when the database root check fails.
package preflight
