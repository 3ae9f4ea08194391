package sender

import (
	"context"
	"fmt"
	"strings"
)

// Message kinds.
const (
	KindFollow  = "follow"
	KindNewPost = "new_post"
)

// Message is one plain-text email.
type Message struct {
	// ID identifies the message for the provider's duplicate suppression.
	ID      string
	Kind    string
	To      string
	Subject string
	Text    string
}

// Sender delivers messages. delivered is false when the provider refused or
// could not be reached; err then says why.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg *Message) (delivered bool, err error)
}

// FollowMessage builds the email telling a user they have a new follower.
func FollowMessage(followerName, to, baseURL string) *Message {
	return &Message{
		Kind:    KindFollow,
		To:      to,
		Subject: fmt.Sprintf("%s started following you on Puros!", followerName),
		Text: fmt.Sprintf("%s started following you on Puros! They'll now see your cigar reviews in their feed. Visit %s/home to view your profile.",
			followerName, strings.TrimRight(baseURL, "/")),
	}
}

// NewPostMessage builds the email telling a follower about a new review.
func NewPostMessage(authorName, cigarName string, rating float64, to, postURL string) *Message {
	return &Message{
		Kind:    KindNewPost,
		To:      to,
		Subject: fmt.Sprintf("%s reviewed %s on Puros!", authorName, cigarName),
		Text: fmt.Sprintf("%s just reviewed %s and gave it %g/5 stars! Visit %s to read the full review.",
			authorName, cigarName, rating, postURL),
	}
}
