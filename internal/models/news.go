package models

import "time"

// NewsPost is an authored article shown on the admin portal; unpublished
// drafts stay hidden from listings that ask for published posts only.
type NewsPost struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Published bool      `db:"published" json:"published"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewsPostDetail extends NewsPost with the author's display name.
type NewsPostDetail struct {
	NewsPost
	AuthorName string `db:"author_name" json:"author_name"`
}

// NewsFilter scopes news listings.
type NewsFilter struct {
	PublishedOnly bool
	Page          int
	PageSize      int
}
