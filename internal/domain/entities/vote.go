package entities

import (
	"errors"
	"time"
)

// VoteType is a user's one-time attestation about a reported site.
type VoteType string

const (
	VoteTypeConfirm VoteType = "confirm" // "still there"
	VoteTypeDismiss VoteType = "dismiss" // "gone"
)

var ErrInvalidVoteType = errors.New("invalid vote type")

// ParseVoteType validates a wire-level vote type string. The legacy mobile
// clients sent "still"/"gone"; both spellings are accepted on input and
// normalized to the canonical constants.
func ParseVoteType(s string) (VoteType, error) {
	switch s {
	case "confirm", "still":
		return VoteTypeConfirm, nil
	case "dismiss", "gone":
		return VoteTypeDismiss, nil
	default:
		return "", ErrInvalidVoteType
	}
}

// Vote is the per-(report, user) idempotency record. It is created once
// inside the voting transaction, never updated and never deleted — its mere
// existence is what makes a retried vote a safe no-op.
type Vote struct {
	UserID    string    `json:"user_id" firestore:"-"`
	ReportID  string    `json:"report_id" firestore:"-"`
	Type      VoteType  `json:"type" firestore:"type"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// NewVote creates the idempotency record for one user's vote on one report.
func NewVote(reportID, userID string, voteType VoteType) *Vote {
	return &Vote{
		UserID:    userID,
		ReportID:  reportID,
		Type:      voteType,
		CreatedAt: time.Now(),
	}
}
