package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dumpwatch/internal/api/middleware"
	"dumpwatch/internal/domain/entities"
	"dumpwatch/internal/repository"
	"dumpwatch/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	nearbyService *services.NearbyService
}

func NewReportHandler(reportService *services.ReportService, nearbyService *services.NearbyService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		nearbyService: nearbyService,
	}
}

type CreateReportRequest struct {
	Location LocationRequest `json:"location" binding:"required"`
	Category string          `json:"category" binding:"required"`
	PhotoURL string          `json:"photo_url"`
}

type LocationRequest struct {
	Lat float64 `json:"lat" binding:"min=-90,max=90"`
	Lng float64 `json:"lng" binding:"min=-180,max=180"`
}

// CreateReport handles POST /reports
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uid := middleware.GetUserID(c)

	report, err := h.reportService.CreateReport(
		c.Request.Context(),
		uid,
		req.Category,
		req.PhotoURL,
		entities.NewLocation(req.Location.Lat, req.Location.Lng),
	)
	if err != nil {
		if err == services.ErrInvalidLocation {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// GetReport handles GET /reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == repository.ErrReportNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// FindNearby handles GET /reports/nearby?lat=&lng=&radius_m=&max_age_s=
//
// An empty list means "nothing found this cycle", a 503 means the query
// failed closed — clients must not interpret either as a confirmed absence.
func (h *ReportHandler) FindNearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	radiusM := 1000.0
	if raw := c.Query("radius_m"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius_m"})
			return
		}
		radiusM = r
	}

	var maxAge time.Duration
	if raw := c.Query("max_age_s"); raw != "" {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || secs <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_age_s"})
			return
		}
		maxAge = time.Duration(secs) * time.Second
	}

	reports, err := h.nearbyService.FindNearby(
		c.Request.Context(),
		entities.NewLocation(lat, lng),
		radiusM,
		maxAge,
		0,
	)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "nearby query unavailable, try again later"})
		return
	}
	if reports == nil {
		reports = []*entities.Report{}
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
