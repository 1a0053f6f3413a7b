package model

import (
	"time"
)

// Image is a record of one completed generation. Records are
// append-only and never mutated after creation.
type Image struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Prompt    string    `json:"prompt"`
	DataURI   string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateImageParams struct {
	UserID  string
	Prompt  string
	DataURI string
}
