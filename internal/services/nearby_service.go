package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"dumpwatch/internal/config"
	"dumpwatch/internal/domain/entities"
	"dumpwatch/internal/geo"
	"dumpwatch/internal/repository"
	"dumpwatch/pkg/utils"
)

// ErrQueryFailed signals that at least one per-range sub-query failed. The
// call degrades to "no results" instead of returning a silently-incomplete
// set — callers must treat it as "try again later", never as a confirmed
// absence of nearby reports.
var ErrQueryFailed = errors.New("nearby query failed")

// NearbyService answers "which reports are near this point" with the
// superset-then-exact-filter strategy:
//
//  1. Coarse: cover the search disc with geohash ranges and issue one
//     capped range query per range, all concurrently.
//  2. Merge: dedupe rows returned by overlapping ranges, keyed by id.
//  3. Fine: drop reports older than the age cutoff, then drop everything
//     whose exact great-circle distance exceeds the radius.
type NearbyService struct {
	store repository.ReportStore
	cfg   *config.Config
	log   *logrus.Logger
}

func NewNearbyService(store repository.ReportStore, cfg *config.Config, log *logrus.Logger) *NearbyService {
	return &NearbyService{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

type rangeResult struct {
	reports []*entities.Report
	err     error
}

// FindNearby returns all reports within radiusM meters of center created no
// longer than maxAge ago, sorted nearest first. perBoundCap caps each
// sub-query to bound worst-case cost; zero values for maxAge or perBoundCap
// fall back to the configured defaults, and radiusM is clamped to the
// configured maximum.
//
// The returned reports carry only stored fields — display distance and any
// other derived values are the caller's concern.
func (s *NearbyService) FindNearby(ctx context.Context, center entities.Location, radiusM float64, maxAge time.Duration, perBoundCap int) ([]*entities.Report, error) {
	if maxAge <= 0 {
		maxAge = s.cfg.Query.MaxReportAge
	}
	if perBoundCap <= 0 {
		perBoundCap = s.cfg.Query.PerBoundCap
	}
	// An oversized radius would degrade the cover to near-planet-wide
	// cells and turn the range queries into full-collection scans.
	if s.cfg.Query.MaxRadiusM > 0 && radiusM > s.cfg.Query.MaxRadiusM {
		radiusM = s.cfg.Query.MaxRadiusM
	}

	ranges := geo.CoverRadius(center.Latitude, center.Longitude, radiusM)

	// The ranges are independent side-effect-free reads, typically 1-9 of
	// them — fire all, await all.
	results := make(chan rangeResult, len(ranges))
	for _, r := range ranges {
		go func(r geo.Range) {
			reports, err := s.store.QueryGeohashRange(ctx, r.Start, r.End, perBoundCap)
			results <- rangeResult{reports: reports, err: err}
		}(r)
	}

	byID := make(map[string]*entities.Report)
	var queryErr error
	for range ranges {
		res := <-results
		if res.err != nil {
			queryErr = res.err
			continue
		}
		for _, report := range res.reports {
			byID[report.ID] = report
		}
	}
	if queryErr != nil {
		// Fail closed: a partial result set is indistinguishable from
		// "nothing nearby" to the caller, which is worse than no answer.
		s.log.WithFields(logrus.Fields{
			"module": "nearby",
			"ranges": len(ranges),
		}).WithError(queryErr).Warn("sub-query failed, degrading to no results")
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, queryErr)
	}

	cutoff := time.Now().Add(-maxAge)

	type scored struct {
		report    *entities.Report
		distanceM float64
	}
	var survivors []scored
	for _, report := range byID {
		if report.CreatedAt.Before(cutoff) {
			continue
		}
		d := utils.HaversineDistance(
			center.Latitude, center.Longitude,
			report.Location.Latitude, report.Location.Longitude,
		)
		if d > radiusM {
			continue
		}
		survivors = append(survivors, scored{report: report, distanceM: d})
	}

	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].distanceM < survivors[j].distanceM
	})

	reports := make([]*entities.Report, len(survivors))
	for i, sc := range survivors {
		reports[i] = sc.report
	}
	return reports, nil
}
