// Package repository defines the storage contract for reports and votes.
//
// The engine only asks three things of its document store: range queries
// ordered by the geohash string field, serializable read-modify-write
// transactions over a report document and its per-user vote sub-record, and
// timestamps. Two implementations exist — Firestore for production and an
// in-memory store for tests and local runs.
package repository

import (
	"context"
	"errors"

	"dumpwatch/internal/domain/entities"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrVoteExists     = errors.New("vote already exists")
)

// VoteTx is the transactional view handed to the consensus service. Reads
// reflect the state of the report and the caller's vote record at
// transaction start; writes are buffered and applied atomically on commit.
// On write-write conflict the whole function is retried by the store
// runtime, so the callback must be side-effect free.
type VoteTx interface {
	// Vote returns the caller's existing vote record for this report,
	// if one exists. Its presence makes the transaction a no-op.
	Vote() (*entities.Vote, bool)
	// Report returns the report document as read inside the transaction.
	Report() *entities.Report
	// CreateVote buffers creation of the per-user vote record.
	CreateVote(v *entities.Vote) error
	// UpdateReport buffers the rewritten report document.
	UpdateReport(r *entities.Report) error
}

// ReportStore is the document-store surface consumed by the services.
type ReportStore interface {
	// CreateReport stores a new report document keyed by its id.
	CreateReport(ctx context.Context, report *entities.Report) error

	// GetReport fetches one report, or ErrReportNotFound.
	GetReport(ctx context.Context, id string) (*entities.Report, error)

	// QueryGeohashRange returns up to limit reports whose geohash falls in
	// [start, end], ordered by geohash. Bounds are inclusive; the usual end
	// bound is a prefix plus the '~' sentinel.
	QueryGeohashRange(ctx context.Context, start, end string, limit int) ([]*entities.Report, error)

	// RunVoteTransaction executes fn atomically against the report
	// identified by reportID and the vote sub-record keyed by userID.
	// Returns ErrReportNotFound if the report does not exist.
	RunVoteTransaction(ctx context.Context, reportID, userID string, fn func(tx VoteTx) error) error
}
