// Package model holds the records persisted by the store and returned by the API.
package model

import "time"

// DefaultLanguage is stored when a snippet is created without a language.
const DefaultLanguage = "text"

type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Tags        Tags      `json:"tags"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SnippetFilter narrows a list query. Empty fields match everything.
type SnippetFilter struct {
	UserID   string
	Language string
	Tag      string
}
