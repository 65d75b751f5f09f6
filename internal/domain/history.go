package domain

import "time"

// HistoryEntry records one batch conversion that produced at least one output.
type HistoryEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	FilesCount   int       `json:"files_count"`
	OutputFormat string    `json:"output_format"`
	Files        []string  `json:"files"`
}
