// Package memory implements repository.ReportStore on plain maps. It backs
// every test and local runs without a Firestore project. Semantics mirror
// the Firestore store: geohash-ordered inclusive range queries, and vote
// transactions that serialize per report.
package memory

import (
	"context"
	"sort"
	"sync"

	"dumpwatch/internal/domain/entities"
	"dumpwatch/internal/repository"
)

// ReportStore stores reports and vote records in memory.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]*entities.Report
	votes   map[string]map[string]*entities.Vote // reportID -> userID -> vote
	txLocks *keyLock
}

func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[string]*entities.Report),
		votes:   make(map[string]map[string]*entities.Vote),
		txLocks: newKeyLock(),
	}
}

func (s *ReportStore) CreateReport(ctx context.Context, report *entities.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

func (s *ReportStore) GetReport(ctx context.Context, id string) (*entities.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.reports[id]
	if !exists {
		return nil, repository.ErrReportNotFound
	}
	cp := *report
	return &cp, nil
}

// QueryGeohashRange scans all reports and returns those whose geohash falls
// in [start, end], ordered by geohash and capped at limit. An O(n) scan is
// fine here — this store only ever holds test fixtures and local data.
func (s *ReportStore) QueryGeohashRange(ctx context.Context, start, end string, limit int) ([]*entities.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*entities.Report
	for _, report := range s.reports {
		if report.Geohash >= start && report.Geohash <= end {
			cp := *report
			matches = append(matches, &cp)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Geohash < matches[j].Geohash
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// memoryVoteTx is the transactional view over one (report, user) pair.
// Reads were taken under the per-report lock; writes are buffered and
// applied on commit.
type memoryVoteTx struct {
	report    *entities.Report
	vote      *entities.Vote
	newVote   *entities.Vote
	newReport *entities.Report
}

func (t *memoryVoteTx) Vote() (*entities.Vote, bool) {
	return t.vote, t.vote != nil
}

func (t *memoryVoteTx) Report() *entities.Report {
	return t.report
}

func (t *memoryVoteTx) CreateVote(v *entities.Vote) error {
	if t.vote != nil {
		return repository.ErrVoteExists
	}
	cp := *v
	t.newVote = &cp
	return nil
}

func (t *memoryVoteTx) UpdateReport(r *entities.Report) error {
	cp := *r
	t.newReport = &cp
	return nil
}

// RunVoteTransaction serializes all transactions touching the same report
// behind a per-report lock, which gives the same guarantee the Firestore
// runtime provides through optimistic retries: two simultaneous votes from
// different users are both counted, in some order.
func (s *ReportStore) RunVoteTransaction(ctx context.Context, reportID, userID string, fn func(tx repository.VoteTx) error) error {
	s.txLocks.Lock(reportID)
	defer s.txLocks.Unlock(reportID)

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	report, exists := s.reports[reportID]
	var reportCopy *entities.Report
	if exists {
		cp := *report
		reportCopy = &cp
	}
	var voteCopy *entities.Vote
	if userVotes, ok := s.votes[reportID]; ok {
		if vote, ok := userVotes[userID]; ok {
			cp := *vote
			voteCopy = &cp
		}
	}
	s.mu.RUnlock()

	if !exists {
		return repository.ErrReportNotFound
	}

	tx := &memoryVoteTx{report: reportCopy, vote: voteCopy}
	if err := fn(tx); err != nil {
		return err
	}

	// Commit buffered writes.
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.newVote != nil {
		if _, ok := s.votes[reportID]; !ok {
			s.votes[reportID] = make(map[string]*entities.Vote)
		}
		s.votes[reportID][userID] = tx.newVote
	}
	if tx.newReport != nil {
		s.reports[reportID] = tx.newReport
	}
	return nil
}

// VoteCount returns the number of vote records stored for a report.
// Used by tests to assert idempotency.
func (s *ReportStore) VoteCount(reportID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.votes[reportID])
}
