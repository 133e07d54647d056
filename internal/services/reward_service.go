package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rewarder is the point-award hook consumed by the consensus service.
// Awards are fire-and-forget: implementations never block the voting path
// on the outcome and this engine does not retry missed awards.
type Rewarder interface {
	Award(userID string, points int64)
}

// RewardService accumulates per-user point totals in Redis. Without a
// configured client it degrades to log-only, which keeps local runs and
// tests free of infrastructure.
type RewardService struct {
	rdb *redis.Client
	log *logrus.Logger
}

func NewRewardService(rdb *redis.Client, log *logrus.Logger) *RewardService {
	return &RewardService{
		rdb: rdb,
		log: log,
	}
}

// Award credits points to a user. The Redis increment runs on its own
// goroutine with its own deadline so a slow hop never stalls a vote.
func (s *RewardService) Award(userID string, points int64) {
	if s.rdb == nil {
		s.log.WithFields(logrus.Fields{
			"module": "reward",
			"user":   userID,
			"points": points,
		}).Info("points awarded")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.rdb.IncrBy(ctx, "points:"+userID, points).Err(); err != nil {
			s.log.WithFields(logrus.Fields{
				"module": "reward",
				"user":   userID,
			}).WithError(err).Warn("point award failed")
		}
	}()
}
