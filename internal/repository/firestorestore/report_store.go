// Package firestorestore implements repository.ReportStore on Cloud
// Firestore. Reports live in the "reports" collection with their geohash on
// the document, which is all the indexing the range queries need; votes are
// sub-documents at reports/{id}/votes/{userID} so that one user's vote on
// one report has exactly one possible document path.
package firestorestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"dumpwatch/internal/domain/entities"
	"dumpwatch/internal/repository"
)

const (
	reportsCollection = "reports"
	votesCollection   = "votes"
)

// ReportStore talks to one Firestore project.
type ReportStore struct {
	client *firestore.Client
}

// New connects a Firestore client for the given project. Credentials come
// from the environment unless an explicit option (e.g. a credentials file)
// is supplied.
func New(ctx context.Context, projectID string, opts ...option.ClientOption) (*ReportStore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting firestore: %w", err)
	}
	return &ReportStore{client: client}, nil
}

// Close releases the underlying client connection.
func (s *ReportStore) Close() error {
	return s.client.Close()
}

func (s *ReportStore) reportRef(id string) *firestore.DocumentRef {
	return s.client.Collection(reportsCollection).Doc(id)
}

func (s *ReportStore) CreateReport(ctx context.Context, report *entities.Report) error {
	if _, err := s.reportRef(report.ID).Create(ctx, report); err != nil {
		return fmt.Errorf("creating report %s: %w", report.ID, err)
	}
	return nil
}

func (s *ReportStore) GetReport(ctx context.Context, id string) (*entities.Report, error) {
	snap, err := s.reportRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrReportNotFound
		}
		return nil, fmt.Errorf("fetching report %s: %w", id, err)
	}
	return reportFromSnapshot(snap)
}

// QueryGeohashRange issues one ordered range query with inclusive bounds.
// This maps directly onto Firestore's single-field index on "geohash" — no
// composite or 2-D index is involved.
func (s *ReportStore) QueryGeohashRange(ctx context.Context, start, end string, limit int) ([]*entities.Report, error) {
	query := s.client.Collection(reportsCollection).
		OrderBy("geohash", firestore.Asc).
		StartAt(start).
		EndAt(end)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var reports []*entities.Report
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("geohash range [%s, %s]: %w", start, end, err)
		}
		report, err := reportFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// firestoreVoteTx adapts one *firestore.Transaction to repository.VoteTx.
// Both document reads happen before the callback runs — Firestore requires
// all reads to precede writes inside a transaction.
type firestoreVoteTx struct {
	t         *firestore.Transaction
	reportRef *firestore.DocumentRef
	voteRef   *firestore.DocumentRef
	report    *entities.Report
	vote      *entities.Vote
}

func (tx *firestoreVoteTx) Vote() (*entities.Vote, bool) {
	return tx.vote, tx.vote != nil
}

func (tx *firestoreVoteTx) Report() *entities.Report {
	return tx.report
}

func (tx *firestoreVoteTx) CreateVote(v *entities.Vote) error {
	if tx.vote != nil {
		return repository.ErrVoteExists
	}
	return tx.t.Create(tx.voteRef, v)
}

func (tx *firestoreVoteTx) UpdateReport(r *entities.Report) error {
	return tx.t.Set(tx.reportRef, r)
}

// RunVoteTransaction wraps client.RunTransaction. The Firestore runtime
// retries the whole callback on write-write conflict, so two users voting
// on the same report at once are both counted; callers just see the call
// take longer under contention.
func (s *ReportStore) RunVoteTransaction(ctx context.Context, reportID, userID string, fn func(tx repository.VoteTx) error) error {
	reportRef := s.reportRef(reportID)
	voteRef := reportRef.Collection(votesCollection).Doc(userID)

	return s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		var vote *entities.Vote
		voteSnap, err := t.Get(voteRef)
		switch {
		case err == nil:
			var v entities.Vote
			if err := voteSnap.DataTo(&v); err != nil {
				return fmt.Errorf("decoding vote %s/%s: %w", reportID, userID, err)
			}
			v.ReportID = reportID
			v.UserID = userID
			vote = &v
		case status.Code(err) == codes.NotFound:
			// First vote from this user — the expected path.
		default:
			return fmt.Errorf("reading vote %s/%s: %w", reportID, userID, err)
		}

		reportSnap, err := t.Get(reportRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repository.ErrReportNotFound
			}
			return fmt.Errorf("reading report %s: %w", reportID, err)
		}
		report, err := reportFromSnapshot(reportSnap)
		if err != nil {
			return err
		}

		return fn(&firestoreVoteTx{
			t:         t,
			reportRef: reportRef,
			voteRef:   voteRef,
			report:    report,
			vote:      vote,
		})
	})
}

func reportFromSnapshot(snap *firestore.DocumentSnapshot) (*entities.Report, error) {
	var report entities.Report
	if err := snap.DataTo(&report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", snap.Ref.ID, err)
	}
	report.ID = snap.Ref.ID
	return &report, nil
}
