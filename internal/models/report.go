package models

import "time"

// Report is a generated activity report as listed by a report store.
type Report struct {
	Path        string    `bson:"path" json:"path"`
	Title       string    `bson:"title" json:"title"`
	GeneratedAt time.Time `bson:"generated_at" json:"generated_at"`
}
