// Package alert implements the movement-adaptive alerting loop that runs on
// behalf of one device session. It samples pushed position updates,
// classifies the movement regime, drives the geospatial query service at the
// regime's cadence and radius, and decides which newly-seen reports are
// worth interrupting the user for.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dumpwatch/internal/config"
	"dumpwatch/internal/domain/entities"
	"dumpwatch/pkg/utils"
)

// Mode is the user-selected alerting mode. Auto sub-classifies into the
// drive or walk regime from observed speed; the others pin the regime.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeDrive Mode = "drive"
	ModeWalk  Mode = "walk"
	ModeOff   Mode = "off"
)

// PositionUpdate is one device position sample, pushed by the host's
// location subscription.
type PositionUpdate struct {
	Location entities.Location
	SpeedMS  float64
	At       time.Time
}

// Candidate is a nearby still-open report that cleared every alert filter.
// The hosting UI either forwards the user's decision to the consensus
// service or does nothing; the controller has no further involvement.
type Candidate struct {
	Report    *entities.Report
	DistanceM float64
}

// NearbyFinder is the slice of the geospatial query service the controller
// consumes.
type NearbyFinder interface {
	FindNearby(ctx context.Context, center entities.Location, radiusM float64, maxAge time.Duration, perBoundCap int) ([]*entities.Report, error)
}

// Controller owns all per-session alert state: which reports have already
// been surfaced, where the last query ran, and the current mode. Everything
// is instance state — two controllers (say, under test) never share a
// deduplication set.
//
// One goroutine owns the loop. Position updates and mode changes arrive as
// channel messages, so an update landing while a query is in flight is
// queued and processed afterwards — never dropped, never run concurrently.
type Controller struct {
	cfg         *config.Config
	finder      NearbyFinder
	onCandidate func(Candidate)
	log         *logrus.Logger

	positions chan PositionUpdate
	modes     chan Mode
	done      chan struct{}
	stopOnce  sync.Once
	permOnce  sync.Once

	// Loop-owned state. Only the run goroutine touches these.
	mode         Mode
	regime       Mode
	lastPosition *PositionUpdate
	lastQueryPos *entities.Location
	alerted      map[string]struct{}
}

// NewController creates a stopped controller in auto mode. onCandidate is
// invoked from the loop goroutine and must not block for long — a prompt
// shown to the user belongs on the host's side of the callback.
func NewController(cfg *config.Config, finder NearbyFinder, onCandidate func(Candidate), log *logrus.Logger) *Controller {
	return &Controller{
		cfg:         cfg,
		finder:      finder,
		onCandidate: onCandidate,
		log:         log,
		positions:   make(chan PositionUpdate, 16),
		modes:       make(chan Mode, 4),
		done:        make(chan struct{}),
		mode:        ModeAuto,
		regime:      ModeWalk,
		alerted:     make(map[string]struct{}),
	}
}

// Start launches the loop goroutine.
func (c *Controller) Start() {
	go c.run()
}

// Stop tears the session down: the loop exits, the backstop timer is
// released, and any in-flight query result is discarded so no late prompt
// appears after the user turned alerts off. Idempotent.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// SubmitPosition queues a position sample for the loop. Safe to call after
// Stop; the sample is then discarded.
func (c *Controller) SubmitPosition(p PositionUpdate) {
	select {
	case c.positions <- p:
	case <-c.done:
	}
}

// SetMode queues a mode change.
func (c *Controller) SetMode(m Mode) {
	select {
	case c.modes <- m:
	case <-c.done:
	}
}

// PermissionDenied degrades the controller to a no-op after the host's
// location permission was refused. Logged once; there is no automatic
// retry — the host restarts the controller if the user grants access later.
func (c *Controller) PermissionDenied() {
	c.permOnce.Do(func() {
		c.log.WithField("module", "alert").Warn("location permission denied, alerts disabled")
		c.Stop()
	})
}

func (c *Controller) run() {
	ticker := time.NewTicker(c.policy().PollInterval)
	defer ticker.Stop()

	for {
		select {
		case p := <-c.positions:
			c.handlePosition(p, ticker)
		case m := <-c.modes:
			c.mode = m
			if m != ModeAuto {
				c.regime = m
			}
			ticker.Reset(c.policy().PollInterval)
			c.log.WithFields(logrus.Fields{
				"module": "alert",
				"mode":   m,
			}).Info("alert mode changed")
		case <-ticker.C:
			// Backstop: catch reports created near a stationary user.
			// Bypasses the movement debounce on purpose.
			if c.lastPosition != nil {
				c.query(c.lastPosition.Location)
			}
		case <-c.done:
			return
		}
	}
}

// handlePosition runs one alert evaluation for a fresh position sample.
// The regime's movement threshold debounces low-speed jitter: if the device
// has not moved far enough since the last successful query, no new query is
// issued this cycle.
func (c *Controller) handlePosition(p PositionUpdate, ticker *time.Ticker) {
	c.lastPosition = &p

	if next := c.classify(p); next != c.regime {
		c.regime = next
		ticker.Reset(c.policy().PollInterval)
	}
	pol := c.policy()

	if c.lastQueryPos != nil {
		moved := utils.HaversineDistance(
			p.Location.Latitude, p.Location.Longitude,
			c.lastQueryPos.Latitude, c.lastQueryPos.Longitude,
		)
		if moved < pol.RequeryThresholdM {
			return
		}
	}

	c.query(p.Location)
}

// classify resolves the effective movement regime for a sample.
func (c *Controller) classify(p PositionUpdate) Mode {
	if c.mode != ModeAuto {
		return c.mode
	}
	if p.SpeedMS > c.cfg.Alert.DriveSpeedThresholdMS {
		return ModeDrive
	}
	return ModeWalk
}

// policy returns the cadence row for the current regime.
func (c *Controller) policy() config.RegimePolicy {
	switch c.regime {
	case ModeDrive:
		return c.cfg.Alert.Drive
	case ModeOff:
		return c.cfg.Alert.Off
	default:
		return c.cfg.Alert.Walk
	}
}

// query runs the discovery search and surfaces surviving candidates.
//
// The search radius is for discovery; AlertDistanceM is the far tighter
// cutoff for actually interrupting the user. Candidates are recorded in the
// session set before the callback fires (mark-before-prompt), so a dismissed
// prompt — or a crash mid-prompt — never re-fires for the same report within
// this session.
func (c *Controller) query(center entities.Location) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Alert.QueryTimeout)
	defer cancel()

	reports, err := c.finder.FindNearby(ctx, center, c.policy().SearchRadiusM, c.cfg.Query.MaxReportAge, c.cfg.Query.PerBoundCap)

	// The controller may have been stopped while the query was in flight;
	// a late result must not turn into a late prompt.
	select {
	case <-c.done:
		return
	default:
	}

	if err != nil {
		// Transient by assumption — the next movement or backstop trigger
		// retries naturally, so this stays silent beyond the log.
		c.log.WithField("module", "alert").WithError(err).Debug("query failed this cycle")
		return
	}

	c.lastQueryPos = &center

	for _, report := range reports {
		if report.IsClosed() {
			continue
		}
		d := utils.HaversineDistance(
			center.Latitude, center.Longitude,
			report.Location.Latitude, report.Location.Longitude,
		)
		if d > c.cfg.Alert.AlertDistanceM {
			continue
		}
		if _, seen := c.alerted[report.ID]; seen {
			continue
		}
		c.alerted[report.ID] = struct{}{}

		c.log.WithFields(logrus.Fields{
			"module":   "alert",
			"report":   report.ID,
			"distance": d,
		}).Info("surfacing report")
		if c.onCandidate != nil {
			c.onCandidate(Candidate{Report: report, DistanceM: d})
		}
	}
}
