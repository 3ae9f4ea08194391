package domain

import (
	"math"
	"time"
)

// MaxReviewImages is the most images a review may carry.
const MaxReviewImages = 3

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Review is a cigar review owned by its author.
type Review struct {
	ID         string          `json:"id"`
	AuthorID   string          `json:"author_id"`
	CigarName  string          `json:"cigar_name"`
	Rating     float64         `json:"rating"`
	Notes      string          `json:"notes"`
	ReviewDate time.Time       `json:"review_date"`
	Images     []string        `json:"images"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Author     *ProfileSummary `json:"author,omitempty"`
}

// ProfileSummary is the part of a profile shown next to content.
type ProfileSummary struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ValidRating reports whether r lies in [0, 5] on a half-star step.
func ValidRating(r float64) bool {
	if r < 0 || r > 5 || math.IsNaN(r) {
		return false
	}
	return r*2 == math.Trunc(r*2)
}

// Date truncates t to a calendar date at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// HalfStarValue maps a pointer position over star index (0-based) of a
// rating widget to the rating it selects: the left half picks index+0.5, the
// right half index+1.
func HalfStarValue(index int, offsetX, width float64) float64 {
	if width > 0 && offsetX < width/2 {
		return float64(index) + 0.5
	}
	return float64(index + 1)
}
