package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"dumpwatch/internal/config"
	"dumpwatch/internal/domain/entities"
	"dumpwatch/internal/repository"
)

var (
	// ErrUnauthenticated is returned when a vote arrives without a user id.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAlreadyVoted marks the idempotent no-op path: the user's vote
	// record already exists, nothing was mutated. Not a failure — callers
	// that retried after a transient error land here safely.
	ErrAlreadyVoted = errors.New("already voted")
)

// ConsensusService registers "still there"/"gone" votes. All counter and
// status mutation on a report goes through this service's transactional
// path — no other component ever reads-then-writes those fields.
type ConsensusService struct {
	store   repository.ReportStore
	rewards Rewarder
	cfg     *config.Config
	log     *logrus.Logger
}

func NewConsensusService(store repository.ReportStore, rewards Rewarder, cfg *config.Config, log *logrus.Logger) *ConsensusService {
	return &ConsensusService{
		store:   store,
		rewards: rewards,
		cfg:     cfg,
		log:     log,
	}
}

// Vote records one user's vote on one report, exactly once. Inside a single
// store transaction it:
//
//  1. Reads the per-user vote record; if present, returns with no mutation.
//  2. Creates the vote record (creation only, never updated).
//  3. Increments the matching counter and stamps the matching timestamp.
//  4. Applies the status transition table: confirm reopens maybe_gone,
//     a dismissal reaching the threshold closes the report.
//
// Write-write conflicts are retried by the store runtime; the transaction
// callback is therefore side-effect free and the reward award happens only
// after the commit, best-effort.
func (s *ConsensusService) Vote(ctx context.Context, reportID, userID string, voteType entities.VoteType) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if voteType != entities.VoteTypeConfirm && voteType != entities.VoteTypeDismiss {
		return entities.ErrInvalidVoteType
	}

	var (
		duplicate bool
		voted     *entities.Report
	)
	err := s.store.RunVoteTransaction(ctx, reportID, userID, func(tx repository.VoteTx) error {
		duplicate = false
		voted = nil

		if _, exists := tx.Vote(); exists {
			duplicate = true
			return nil
		}

		report := tx.Report()
		vote := entities.NewVote(reportID, userID, voteType)
		if err := tx.CreateVote(vote); err != nil {
			return err
		}
		if err := report.ApplyVote(voteType, vote.CreatedAt, s.cfg.Consensus.DismissThreshold); err != nil {
			return err
		}
		if err := tx.UpdateReport(report); err != nil {
			return err
		}
		voted = report
		return nil
	})
	if err != nil {
		return err
	}
	if duplicate {
		return ErrAlreadyVoted
	}

	s.log.WithFields(logrus.Fields{
		"module": "consensus",
		"report": reportID,
		"type":   voteType,
		"status": voted.Status,
	}).Info("vote recorded")

	// Post-commit side effects: missed awards are not retried and never
	// roll back the vote.
	s.rewards.Award(userID, s.cfg.Reward.VoterPoints)
	if voteType == entities.VoteTypeConfirm && voted.UID != "" && voted.UID != userID {
		s.rewards.Award(voted.UID, s.cfg.Reward.ReporterPoints)
	}
	return nil
}
