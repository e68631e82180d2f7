package model

import "time"

// Post is a single blog entry.
//
// IDs are sqlite rowids: strictly increasing, stable for the life of the
// row. That makes "id DESC" a deterministic tie-break when two posts share
// a creation timestamp.
//
// Author is the owner's username. CreatedAt never changes after insert;
// LastEditedAt starts equal to CreatedAt and advances on every edit.
type Post struct {
	ID           int64     `json:"id"`
	Author       string    `json:"author"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	LastEditedAt time.Time `json:"lastEditedAt"`
}
