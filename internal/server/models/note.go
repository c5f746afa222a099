package models

import "time"

// Note is a titled text document owned by exactly one user. Filename is
// unique per owner and acts as the note's durable identity. DriveFileID is
// the last known remote file id ("" until the first successful sync); the
// remote store remains the authority for the file's existence.
type Note struct {
	ID          string
	UserID      string
	Filename    string
	Title       string
	Content     string
	DriveFileID string
	Pinned      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
