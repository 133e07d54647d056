package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"dumpwatch/internal/config"
	"dumpwatch/internal/domain/entities"
	"dumpwatch/internal/geo"
	"dumpwatch/internal/repository"
	"dumpwatch/pkg/utils"
)

var ErrInvalidLocation = errors.New("invalid location")

// ReportService is the thin creation/read edge of the reporting flow. The
// one rule it owns: the geohash is derived from the location exactly once,
// at creation, and never recomputed.
type ReportService struct {
	store repository.ReportStore
	cfg   *config.Config
	log   *logrus.Logger
}

func NewReportService(store repository.ReportStore, cfg *config.Config, log *logrus.Logger) *ReportService {
	return &ReportService{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// CreateReport stores a new open report with zeroed counters for the given
// reporter.
func (s *ReportService) CreateReport(ctx context.Context, uid, category, photoURL string, loc entities.Location) (*entities.Report, error) {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return nil, ErrInvalidLocation
	}

	hash := geo.Encode(loc.Latitude, loc.Longitude, s.cfg.Geo.GeohashPrecision)
	report := entities.NewReport(utils.GenerateID(), uid, category, photoURL, loc, hash)

	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"module":  "report",
		"report":  report.ID,
		"geohash": hash,
	}).Info("report created")
	return report, nil
}

// GetReport fetches one report by id.
func (s *ReportService) GetReport(ctx context.Context, id string) (*entities.Report, error) {
	return s.store.GetReport(ctx, id)
}
