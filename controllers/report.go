// controllers/report.go
package controllers

import (
	"net/http"
	"strconv"

	"bizpro-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportController handles the dashboard and the sales report
type ReportController struct {
	reports *services.ReportService
	logger  *zap.SugaredLogger
}

func NewReportController(reports *services.ReportService, logger *zap.SugaredLogger) *ReportController {
	return &ReportController{reports: reports, logger: logger}
}

func (rc *ReportController) GetDashboardOverview(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	overview, err := rc.reports.GetDashboardOverview(c.Request.Context(), companyID)
	if err != nil {
		respondWithServiceError(c, rc.logger, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetSalesReport returns the monthly sales summary; ?top= limits the
// ranking (default 4).
func (rc *ReportController) GetSalesReport(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	top, err := strconv.Atoi(c.DefaultQuery("top", "4"))
	if err != nil || top < 0 {
		top = 4
	}

	report, err := rc.reports.GetSalesReport(c.Request.Context(), companyID, top)
	if err != nil {
		respondWithServiceError(c, rc.logger, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
