package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"dumpwatch/internal/config"
	"dumpwatch/internal/domain/entities"
	"dumpwatch/internal/geo"
	"dumpwatch/internal/repository"
	"dumpwatch/internal/repository/memory"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedReportAt(t *testing.T, store repository.ReportStore, id string, lat, lng float64, age time.Duration) *entities.Report {
	t.Helper()
	hash := geo.Encode(lat, lng, geo.DefaultPrecision)
	report := entities.NewReport(id, "reporter", "tires", "", entities.NewLocation(lat, lng), hash)
	report.CreatedAt = time.Now().Add(-age)
	if err := store.CreateReport(context.Background(), report); err != nil {
		t.Fatalf("seeding report %s failed: %v", id, err)
	}
	return report
}

func TestFindNearbyEndToEnd(t *testing.T) {
	store := memory.NewReportStore()
	service := NewNearbyService(store, config.NewDefaultConfig(), testLogger())
	ctx := context.Background()

	center := entities.NewLocation(-26.2041, 28.0473)
	seedReportAt(t, store, "r1", -26.2041, 28.0473, time.Hour)

	reports, err := service.FindNearby(ctx, center, 3000, 0, 0)
	if err != nil {
		t.Fatalf("FindNearby failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != "r1" {
		t.Fatalf("got %v, want exactly r1", reports)
	}

	// Tightening the age cutoff to 30 minutes excludes the 1-hour-old report.
	reports, err = service.FindNearby(ctx, center, 3000, 1800*time.Second, 0)
	if err != nil {
		t.Fatalf("FindNearby with age cutoff failed: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("got %d reports, want 0 after age cutoff", len(reports))
	}
}

func TestFindNearbyDistanceFilter(t *testing.T) {
	store := memory.NewReportStore()
	service := NewNearbyService(store, config.NewDefaultConfig(), testLogger())
	ctx := context.Background()

	center := entities.NewLocation(-26.2041, 28.0473)
	// ~0.045° of latitude ≈ 5 km: inside the geohash cover for a 3 km
	// radius at precision 5, but outside the exact-distance filter.
	seedReportAt(t, store, "far", -26.2041+0.045, 28.0473, time.Hour)
	seedReportAt(t, store, "near", -26.2041+0.001, 28.0473, time.Hour)

	reports, err := service.FindNearby(ctx, center, 3000, 0, 0)
	if err != nil {
		t.Fatalf("FindNearby failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != "near" {
		t.Fatalf("exact-distance post-filter failed: got %v", reports)
	}
}

func TestFindNearbySortedByDistance(t *testing.T) {
	store := memory.NewReportStore()
	service := NewNearbyService(store, config.NewDefaultConfig(), testLogger())
	ctx := context.Background()

	center := entities.NewLocation(-26.2041, 28.0473)
	seedReportAt(t, store, "farther", -26.2041+0.002, 28.0473, time.Hour)
	seedReportAt(t, store, "nearest", -26.2041+0.0005, 28.0473, time.Hour)

	reports, err := service.FindNearby(ctx, center, 3000, 0, 0)
	if err != nil {
		t.Fatalf("FindNearby failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].ID != "nearest" {
		t.Errorf("results not sorted nearest first: %s, %s", reports[0].ID, reports[1].ID)
	}
}

func TestFindNearbyClampsRadius(t *testing.T) {
	store := memory.NewReportStore()
	cfg := config.NewDefaultConfig()
	service := NewNearbyService(store, cfg, testLogger())
	ctx := context.Background()

	center := entities.NewLocation(-26.2041, 28.0473)
	// ~60 km north, beyond the 50 km radius cap.
	seedReportAt(t, store, "beyond-cap", -26.2041+0.54, 28.0473, time.Hour)

	reports, err := service.FindNearby(ctx, center, 1e9, 0, 0)
	if err != nil {
		t.Fatalf("FindNearby failed: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("got %d reports, want 0: an absurd radius must clamp to %v m", len(reports), cfg.Query.MaxRadiusM)
	}
}

// flakyStore fails range queries on demand and can return the same report
// from every range, to exercise fail-closed semantics and deduplication.
type flakyStore struct {
	failQueries bool
	duplicate   *entities.Report
}

func (s *flakyStore) CreateReport(ctx context.Context, report *entities.Report) error {
	return nil
}

func (s *flakyStore) GetReport(ctx context.Context, id string) (*entities.Report, error) {
	return nil, repository.ErrReportNotFound
}

func (s *flakyStore) QueryGeohashRange(ctx context.Context, start, end string, limit int) ([]*entities.Report, error) {
	if s.failQueries {
		return nil, errors.New("store unavailable")
	}
	if s.duplicate != nil {
		return []*entities.Report{s.duplicate}, nil
	}
	return nil, nil
}

func (s *flakyStore) RunVoteTransaction(ctx context.Context, reportID, userID string, fn func(tx repository.VoteTx) error) error {
	return repository.ErrReportNotFound
}

func TestFindNearbyFailsClosed(t *testing.T) {
	store := &flakyStore{failQueries: true}
	service := NewNearbyService(store, config.NewDefaultConfig(), testLogger())

	reports, err := service.FindNearby(context.Background(), entities.NewLocation(-26.2041, 28.0473), 3000, 0, 0)
	if !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
	if reports != nil {
		t.Errorf("fail-closed call returned partial results: %v", reports)
	}
}

func TestFindNearbyDeduplicates(t *testing.T) {
	report := entities.NewReport("dup", "reporter", "tires", "",
		entities.NewLocation(-26.2041, 28.0473),
		geo.Encode(-26.2041, 28.0473, geo.DefaultPrecision))
	store := &flakyStore{duplicate: report}
	service := NewNearbyService(store, config.NewDefaultConfig(), testLogger())

	// Every range sub-query returns the same row; the merge keyed by id
	// must collapse them to one.
	reports, err := service.FindNearby(context.Background(), entities.NewLocation(-26.2041, 28.0473), 3000, 0, 0)
	if err != nil {
		t.Fatalf("FindNearby failed: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("got %d reports, want 1 after dedupe", len(reports))
	}
}
