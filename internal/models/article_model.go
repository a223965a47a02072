package models

import "time"

// Article is owned by the CMS; the queue reads headline, image and the
// canonical link bundled with every post.
type Article struct {
	ID           string    `db:"id" json:"id"`
	Headline     string    `db:"headline" json:"headline"`
	ImageURL     string    `db:"image_url" json:"image_url,omitempty"`
	CanonicalURL string    `db:"canonical_url" json:"canonical_url"`
	PublishedAt  time.Time `db:"published_at" json:"published_at"`
}
