package models

import "time"

// Backup is an index entry describing a backup file written by POST /backup.
type Backup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"-"` // Internal use, not exposed to client
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
