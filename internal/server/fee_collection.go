package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/schoolworks/feeledger/internal/auditcontext"
	feecollectiondomain "github.com/schoolworks/feeledger/internal/feecollection/domain"
	transactiondomain "github.com/schoolworks/feeledger/internal/transaction/domain"
)

type collectFeeRequest struct {
	StudentID      string `json:"student_id" binding:"required"`
	SchoolID       string `json:"school_id" binding:"required"`
	AcademicYear   string `json:"academic_year"`
	Month          int    `json:"month" binding:"required"`
	Amount         int64  `json:"amount" binding:"required"`
	PaymentMethod  string `json:"payment_method" binding:"required"`
	CollectedBy    string `json:"collected_by"`
	Remarks        string `json:"remarks"`
	IncludeLateFee bool   `json:"include_late_fee"`
}

// @Summary      Collect Fee
// @Description  Collect a payment against a student's monthly fee slot
// @Tags         fees
// @Accept       json
// @Produce      json
// @Param        request body collectFeeRequest true "Collect Fee Request"
// @Success      200  {object}  feecollectiondomain.CollectFeeResponse
// @Router       /fees/collect [post]
func (s *Server) CollectFee(c *gin.Context) {
	var req collectFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseID(req.StudentID)
	if err != nil {
		AbortWithError(c, newValidationError("student_id", "invalid_id", "student_id must be a valid id"))
		return
	}
	schoolID, err := parseID(req.SchoolID)
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}
	var collectedBy snowflake.ID
	if req.CollectedBy != "" {
		if collectedBy, err = parseID(req.CollectedBy); err != nil {
			AbortWithError(c, newValidationError("collected_by", "invalid_id", "collected_by must be a valid id"))
			return
		}
	}

	ctx := auditcontext.WithCollector(c.Request.Context(), req.CollectedBy)
	resp, err := s.feeSvc.CollectFee(ctx, feecollectiondomain.CollectFeeRequest{
		StudentID:      studentID,
		SchoolID:       schoolID,
		AcademicYear:   strings.TrimSpace(req.AcademicYear),
		Month:          req.Month,
		Amount:         req.Amount,
		PaymentMethod:  transactiondomain.PaymentMethod(req.PaymentMethod),
		CollectedBy:    collectedBy,
		Remarks:        strings.TrimSpace(req.Remarks),
		IncludeLateFee: req.IncludeLateFee,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type validateFeeRequest struct {
	StudentID      string `json:"student_id" binding:"required"`
	SchoolID       string `json:"school_id" binding:"required"`
	AcademicYear   string `json:"academic_year"`
	Month          int    `json:"month" binding:"required"`
	Amount         int64  `json:"amount" binding:"required"`
	IncludeLateFee bool   `json:"include_late_fee"`
}

// @Summary      Validate Fee Collection
// @Description  Run collection rules without writing anything
// @Tags         fees
// @Accept       json
// @Produce      json
// @Param        request body validateFeeRequest true "Validate Fee Request"
// @Success      200  {object}  feecollectiondomain.ValidationResult
// @Router       /fees/validate [post]
func (s *Server) ValidateFeeCollection(c *gin.Context) {
	var req validateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseID(req.StudentID)
	if err != nil {
		AbortWithError(c, newValidationError("student_id", "invalid_id", "student_id must be a valid id"))
		return
	}
	schoolID, err := parseID(req.SchoolID)
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}

	result, err := s.feeSvc.ValidateFeeCollection(c.Request.Context(), feecollectiondomain.ValidateFeeRequest{
		StudentID:      studentID,
		SchoolID:       schoolID,
		AcademicYear:   strings.TrimSpace(req.AcademicYear),
		Month:          req.Month,
		Amount:         req.Amount,
		IncludeLateFee: req.IncludeLateFee,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

type collectOneTimeFeeRequest struct {
	StudentID     string `json:"student_id" binding:"required"`
	SchoolID      string `json:"school_id" binding:"required"`
	AcademicYear  string `json:"academic_year"`
	FeeType       string `json:"fee_type" binding:"required"`
	Amount        int64  `json:"amount" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	CollectedBy   string `json:"collected_by"`
	Remarks       string `json:"remarks"`
}

// @Summary      Collect One-Time Fee
// @Description  Settle a named one-time fee outside the monthly flow
// @Tags         fees
// @Accept       json
// @Produce      json
// @Param        request body collectOneTimeFeeRequest true "Collect One-Time Fee Request"
// @Success      200  {object}  feecollectiondomain.CollectOneTimeFeeResponse
// @Router       /fees/one-time/collect [post]
func (s *Server) CollectOneTimeFee(c *gin.Context) {
	var req collectOneTimeFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseID(req.StudentID)
	if err != nil {
		AbortWithError(c, newValidationError("student_id", "invalid_id", "student_id must be a valid id"))
		return
	}
	schoolID, err := parseID(req.SchoolID)
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}
	var collectedBy snowflake.ID
	if req.CollectedBy != "" {
		if collectedBy, err = parseID(req.CollectedBy); err != nil {
			AbortWithError(c, newValidationError("collected_by", "invalid_id", "collected_by must be a valid id"))
			return
		}
	}

	ctx := auditcontext.WithCollector(c.Request.Context(), req.CollectedBy)
	resp, err := s.feeSvc.CollectOneTimeFee(ctx, feecollectiondomain.CollectOneTimeFeeRequest{
		StudentID:     studentID,
		SchoolID:      schoolID,
		AcademicYear:  strings.TrimSpace(req.AcademicYear),
		FeeType:       strings.TrimSpace(req.FeeType),
		Amount:        req.Amount,
		PaymentMethod: transactiondomain.PaymentMethod(req.PaymentMethod),
		CollectedBy:   collectedBy,
		Remarks:       strings.TrimSpace(req.Remarks),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Student Fee Status
// @Description  Full ledger view for one student in an academic year
// @Tags         fees
// @Produce      json
// @Param        id             path      string  true   "Student ID"
// @Param        school_id      query     string  true   "School ID"
// @Param        academic_year  query     string  false  "Academic Year"
// @Success      200  {object}  feecollectiondomain.StudentFeeStatus
// @Router       /fees/students/{id}/status [get]
func (s *Server) GetStudentFeeStatus(c *gin.Context) {
	studentID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "student id must be a valid id"))
		return
	}
	schoolID, err := parseID(c.Query("school_id"))
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}

	status, err := s.feeSvc.GetStudentFeeStatus(c.Request.Context(), studentID, schoolID, c.Query("academic_year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
