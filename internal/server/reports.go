package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// @Summary      Accountant Dashboard
// @Description  Operational totals for the collection desk
// @Tags         fees
// @Produce      json
// @Param        school_id  query     string  true  "School ID"
// @Success      200  {object}  feecollectiondomain.AccountantDashboard
// @Router       /fees/dashboard [get]
func (s *Server) GetAccountantDashboard(c *gin.Context) {
	schoolID, err := parseID(c.Query("school_id"))
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}

	dashboard, err := s.feeSvc.GetAccountantDashboard(c.Request.Context(), schoolID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dashboard})
}

// @Summary      Financial Reports
// @Description  Collections over a date range broken down by method, type and day
// @Tags         fees
// @Produce      json
// @Param        school_id  query     string  true   "School ID"
// @Param        from       query     string  false  "From date (YYYY-MM-DD)"
// @Param        to         query     string  false  "To date (YYYY-MM-DD)"
// @Success      200  {object}  feecollectiondomain.FinancialReport
// @Router       /fees/reports [get]
func (s *Server) GetFinancialReports(c *gin.Context) {
	schoolID, err := parseID(c.Query("school_id"))
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}

	from, err := parseDateQuery(c.Query("from"), time.Time{})
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_date", "from must be YYYY-MM-DD"))
		return
	}
	to, err := parseDateQuery(c.Query("to"), time.Now().UTC())
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_date", "to must be YYYY-MM-DD"))
		return
	}

	report, err := s.feeSvc.GetFinancialReports(c.Request.Context(), schoolID, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// @Summary      Students By Grade and Section
// @Description  Roster of students with their fee status for a grade/section
// @Tags         fees
// @Produce      json
// @Param        school_id      query     string  true   "School ID"
// @Param        grade          query     string  true   "Grade"
// @Param        section        query     string  false  "Section"
// @Param        academic_year  query     string  false  "Academic Year"
// @Success      200  {object}  []feecollectiondomain.StudentFeeSummary
// @Router       /fees/students [get]
func (s *Server) GetStudentsByGradeSection(c *gin.Context) {
	schoolID, err := parseID(c.Query("school_id"))
	if err != nil {
		AbortWithError(c, newValidationError("school_id", "invalid_id", "school_id must be a valid id"))
		return
	}
	grade := c.Query("grade")
	if grade == "" {
		AbortWithError(c, newValidationError("grade", "required", "grade is required"))
		return
	}

	summaries, err := s.feeSvc.GetStudentsByGradeSection(
		c.Request.Context(), schoolID, grade, c.Query("section"), c.Query("academic_year"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func parseDateQuery(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", raw)
}
