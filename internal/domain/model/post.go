package model

import (
	"time"
)

const MaxPostTitleLength = 100

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	OwnerID   string    `json:"userId"`
	IsDraft   bool      `json:"isDraft"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostPatch carries the mutable fields of a post; nil means "leave unchanged".
// The owner is deliberately absent.
type PostPatch struct {
	Title   *string
	Slug    *string
	Content *string
	IsDraft *bool
}

func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.IsDraft == nil
}

// Apply copies the set fields onto post.
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Slug != nil {
		post.Slug = *p.Slug
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.IsDraft != nil {
		post.IsDraft = *p.IsDraft
	}
}
