package domain

import "time"

// Comment is a reply on a review.
type Comment struct {
	ID        string          `json:"id"`
	ReviewID  string          `json:"review_id"`
	AuthorID  string          `json:"author_id"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Author    *ProfileSummary `json:"author,omitempty"`
}

// Like records that a user liked a review.
type Like struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeState is a review's like count as seen by one viewer.
type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Follow is a directed relation from follower to following.
type Follow struct {
	ID          string    `json:"id"`
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowStats counts a user's followers and followees.
type FollowStats struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// FollowState is whether the viewer follows a subject.
type FollowState struct {
	Following bool   `json:"following"`
	FollowID  string `json:"follow_id,omitempty"`
}

// FanOutResult reports a new-post notification fan-out. Total counts the
// followers that could be emailed; Sent those the sink accepted.
type FanOutResult struct {
	Sent  int `json:"notifications_sent"`
	Total int `json:"total_followers"`
}
