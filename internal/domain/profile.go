package domain

import (
	"strings"
	"time"
)

// Profile is the public record of a user.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns "First Last", falling back to the email local part.
func (p *Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok {
		return local
	}
	return "Someone"
}

// Summary returns the display subset of p.
func (p *Profile) Summary() *ProfileSummary {
	return &ProfileSummary{FirstName: p.FirstName, LastName: p.LastName, AvatarURL: p.AvatarURL}
}

// Viewer is the signed-in user acting on the application.
type Viewer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
