package storage

import "comic-market-watch/models"

// ReportWriter is the interface every rendered artifact must satisfy.
// Write fully replaces the artifact at Path.
type ReportWriter interface {
	Write(report *models.Report) error
	Path() string
}
