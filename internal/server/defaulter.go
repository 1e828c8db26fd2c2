package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List Defaulters
// @Description  Students with dues past the grace period, worst first
// @Tags         fees
// @Produce      json
// @Param        school_id  query     string  true  "School ID"
// @Success      200  {object}  []feecollectiondomain.DefaulterRow
// @Router       /fees/defaulters [get]
func (s *Server) GetDefaulters(c *gin.Context) {
	schoolID, err := parseID(c.Query("school_id"))
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}

	rows, err := s.feeSvc.GetDefaulters(c.Request.Context(), schoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

type syncDefaultersRequest struct {
	SchoolID string `json:"school_id" binding:"required"`
}

// @Summary      Sync Defaulters
// @Description  Rebuild the defaulter index for a school on demand
// @Tags         fees
// @Accept       json
// @Produce      json
// @Param        request body syncDefaultersRequest true "Sync Defaulters Request"
// @Success      200  {object}  defaulterdomain.SyncResult
// @Router       /fees/defaulters/sync [post]
func (s *Server) SyncDefaulters(c *gin.Context) {
	var req syncDefaultersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	schoolID, err := parseID(req.SchoolID)
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}

	result, err := s.defaulterSvc.SyncDefaultersForSchool(c.Request.Context(), schoolID, s.cfg.DefaulterGraceDays)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
