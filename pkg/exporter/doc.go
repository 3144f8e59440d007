// Package exporter delivers rendered posts to a note-taking application.
//
// The synchronization loop only sees the Exporter interface. Two backends
// exist: DayOne shells out to the Day One CLI and Writer prints entries for
// a dry run.
package exporter
