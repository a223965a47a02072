package models

import "time"

type Platform string

const (
	PlatformX           Platform = "x"
	PlatformFacebook    Platform = "facebook"
	PlatformTruthSocial Platform = "truth_social"
	PlatformInstagram   Platform = "instagram"
)

func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformX, PlatformFacebook, PlatformTruthSocial, PlatformInstagram:
		return true
	}
	return false
}

// SocialAccount is owned by the directory service; the queue reads it
// for grouping and display only.
type SocialAccount struct {
	ID          string    `db:"id" json:"id"`
	Platform    Platform  `db:"platform" json:"platform"`
	Handle      string    `db:"handle" json:"handle"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
