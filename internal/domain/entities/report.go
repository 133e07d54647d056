package entities

import (
	"errors"
	"time"
)

// ReportStatus represents the current lifecycle state of a dumping-site
// report. The lifecycle is deliberately small:
//
//	open ⇄ maybe_gone (reopened by a fresh "still there" vote)
//	open → closed, maybe_gone → closed (enough "gone" votes)
//
// closed is terminal for this engine — reopening a closed report is an
// administrative action, not a voting outcome.
type ReportStatus string

const (
	ReportStatusOpen      ReportStatus = "open"
	ReportStatusMaybeGone ReportStatus = "maybe_gone"
	ReportStatusClosed    ReportStatus = "closed"
)

// validTransitions defines which status changes are allowed from each state.
// This map IS the state machine — CanTransitionTo() simply looks up the
// current status and checks whether the target is in the slice. The
// asymmetry matters: maybe_gone can go back to open, closed goes nowhere.
var validTransitions = map[ReportStatus][]ReportStatus{
	ReportStatusOpen:      {ReportStatusMaybeGone, ReportStatusClosed},
	ReportStatusMaybeGone: {ReportStatusOpen, ReportStatusClosed},
	ReportStatusClosed:    {},
}

var ErrInvalidTransition = errors.New("invalid report status transition")

// Report is the central shared mutable entity: one reported dumping site.
// Location and the provenance fields (Category, PhotoURL, UID, CreatedAt)
// are written once by the reporting flow and never touched again; the
// counters and status are only ever mutated inside a store transaction.
type Report struct {
	ID            string       `json:"id" firestore:"-"`
	Location      Location     `json:"location" firestore:"location"`
	Geohash       string       `json:"geohash" firestore:"geohash"`
	Status        ReportStatus `json:"status" firestore:"status"`
	Confirmations int          `json:"confirmations" firestore:"confirmations"`
	Dismissals    int          `json:"dismissals" firestore:"dismissals"`
	Category      string       `json:"category" firestore:"category"`
	PhotoURL      string       `json:"photo_url,omitempty" firestore:"photoUrl"`
	UID           string       `json:"uid" firestore:"uid"`
	CreatedAt     time.Time    `json:"created_at" firestore:"createdAt"`

	LastConfirmedAt time.Time `json:"last_confirmed_at,omitempty" firestore:"lastConfirmedAt,omitempty"`
	LastDismissedAt time.Time `json:"last_dismissed_at,omitempty" firestore:"lastDismissedAt,omitempty"`
}

// NewReport creates a Report in the open state with zeroed counters.
// The geohash parameter should be pre-computed by the geo package.
func NewReport(id, uid, category, photoURL string, loc Location, geohash string) *Report {
	return &Report{
		ID:        id,
		Location:  loc,
		Geohash:   geohash,
		Status:    ReportStatusOpen,
		Category:  category,
		PhotoURL:  photoURL,
		UID:       uid,
		CreatedAt: time.Now(),
	}
}

// CanTransitionTo checks if moving to newStatus is a valid state change.
func (r *Report) CanTransitionTo(newStatus ReportStatus) bool {
	allowed, exists := validTransitions[r.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo attempts to move the report to newStatus. Returns
// ErrInvalidTransition if the transition table does not allow it.
func (r *Report) TransitionTo(newStatus ReportStatus) error {
	if !r.CanTransitionTo(newStatus) {
		return ErrInvalidTransition
	}
	r.Status = newStatus
	return nil
}

// ApplyVote folds one vote into the report: it bumps the matching counter,
// stamps the matching last-voted timestamp, and runs the status rules from
// the transition table. dismissThreshold is the dismissal count at which an
// open (or maybe_gone) report auto-closes.
//
// Must only be called from inside a store transaction — see the consensus
// service.
func (r *Report) ApplyVote(voteType VoteType, at time.Time, dismissThreshold int) error {
	switch voteType {
	case VoteTypeConfirm:
		r.Confirmations++
		r.LastConfirmedAt = at
		// A fresh "still there" sighting reopens a report that had
		// started trending toward closure.
		if r.Status == ReportStatusMaybeGone {
			return r.TransitionTo(ReportStatusOpen)
		}
		return nil
	case VoteTypeDismiss:
		r.Dismissals++
		r.LastDismissedAt = at
		if r.Dismissals >= dismissThreshold && r.Status != ReportStatusClosed {
			return r.TransitionTo(ReportStatusClosed)
		}
		return nil
	default:
		return ErrInvalidVoteType
	}
}

// IsClosed reports whether the site has been collectively declared gone.
func (r *Report) IsClosed() bool {
	return r.Status == ReportStatusClosed
}
