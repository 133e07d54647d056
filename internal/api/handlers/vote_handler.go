package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dumpwatch/internal/api/middleware"
	"dumpwatch/internal/domain/entities"
	"dumpwatch/internal/repository"
	"dumpwatch/internal/services"
)

type VoteHandler struct {
	consensusService *services.ConsensusService
}

func NewVoteHandler(consensusService *services.ConsensusService) *VoteHandler {
	return &VoteHandler{
		consensusService: consensusService,
	}
}

type VoteRequest struct {
	Type string `json:"type" binding:"required"`
}

// SubmitVote handles POST /reports/:id/votes
//
// A repeated vote from the same user is a 200 like the first one — the
// consensus path makes duplicates a safe no-op, so a client retry after a
// flaky network round-trip needs no special handling.
func (h *VoteHandler) SubmitVote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voteType, err := entities.ParseVoteType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be confirm or dismiss"})
		return
	}

	userID := middleware.GetUserID(c)
	reportID := c.Param("id")

	err = h.consensusService.Vote(c.Request.Context(), reportID, userID, voteType)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "counted"})
	case errors.Is(err, services.ErrAlreadyVoted):
		c.JSON(http.StatusOK, gin.H{"status": "already_voted"})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.Is(err, repository.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
