package models

type Note struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	// Author is an opaque identity id (clients manage meaning); default empty string
	Author string      `json:"author"`
	Body   interface{} `json:"body,omitempty"`
	// Created timestamp (ns)
	CreatedTS int64 `json:"created_ts,omitempty"`
	// Updated timestamp (ns) - last time the note content changed
	UpdatedTS int64 `json:"updated_ts,omitempty"`
	// Deleted marks a note as soft-deleted; DeletedTS records deletion time (ns)
	Deleted   bool  `json:"deleted,omitempty"`
	DeletedTS int64 `json:"deleted_ts,omitempty"`
}
