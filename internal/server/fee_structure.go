package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/schoolworks/feeledger/internal/academic"
	feestructuredomain "github.com/schoolworks/feeledger/internal/feestructure/domain"
)

type feeComponentRequest struct {
	FeeType string `json:"fee_type" binding:"required"`
	Amount  int64  `json:"amount" binding:"min=0"`
	OneTime bool   `json:"one_time"`
}

type createFeeStructureRequest struct {
	SchoolID      string                `json:"school_id" binding:"required"`
	Grade         string                `json:"grade" binding:"required"`
	AcademicYear  string                `json:"academic_year" binding:"required"`
	MonthlyAmount int64                 `json:"monthly_amount" binding:"required,gt=0"`
	DueDay        int                   `json:"due_day"`
	Components    []feeComponentRequest `json:"components" binding:"dive"`
}

// @Summary      Create Fee Structure
// @Description  Publish a new fee schedule for a grade and academic year
// @Tags         fee-structures
// @Accept       json
// @Produce      json
// @Param        request body createFeeStructureRequest true "Create Fee Structure Request"
// @Success      200  {object}  feestructuredomain.FeeStructure
// @Router       /fee-structures [post]
func (s *Server) CreateFeeStructure(c *gin.Context) {
	var req createFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	schoolID, err := parseID(req.SchoolID)
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}
	if err := academic.Validate(req.AcademicYear); err != nil {
		AbortWithError(c, err)
		return
	}

	components := make([]feestructuredomain.FeeComponent, 0, len(req.Components))
	for _, comp := range req.Components {
		components = append(components, feestructuredomain.FeeComponent{
			FeeType: strings.TrimSpace(comp.FeeType),
			Amount:  comp.Amount,
			OneTime: comp.OneTime,
		})
	}

	structure := &feestructuredomain.FeeStructure{
		ID:            s.node.Generate(),
		SchoolID:      schoolID,
		Grade:         strings.TrimSpace(req.Grade),
		AcademicYear:  req.AcademicYear,
		MonthlyAmount: req.MonthlyAmount,
		DueDay:        req.DueDay,
		Components:    components,
		IsActive:      true,
	}
	if err := s.structureRepo.Create(c.Request.Context(), s.db, structure); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": structure})
}

// @Summary      List Fee Structures
// @Description  List fee schedules for a school, optionally by year
// @Tags         fee-structures
// @Produce      json
// @Param        school_id      query     string  true   "School ID"
// @Param        academic_year  query     string  false  "Academic Year"
// @Success      200  {object}  []feestructuredomain.FeeStructure
// @Router       /fee-structures [get]
func (s *Server) ListFeeStructures(c *gin.Context) {
	schoolID, err := parseID(c.Query("school_id"))
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}

	structures, err := s.structureRepo.List(c.Request.Context(), s.db, schoolID, c.Query("academic_year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": structures})
}
