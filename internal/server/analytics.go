package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/internal/analytics"
)

// AnalyticsServer is the HTTP surface of the analytics service.
type AnalyticsServer struct {
	logger  *zap.Logger
	svc     *analytics.Service
	started time.Time
}

// NewAnalyticsServer creates the analytics HTTP server.
func NewAnalyticsServer(logger *zap.Logger, svc *analytics.Service) *AnalyticsServer {
	return &AnalyticsServer{logger: logger, svc: svc, started: time.Now()}
}

// Router builds the gin engine with all analytics-service routes.
func (s *AnalyticsServer) Router() *gin.Engine {
	router := newRouter(s.logger, "analytics")

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		analyticsGroup := api.Group("/analytics")
		{
			analyticsGroup.GET("/dashboard", s.handleDashboard)
			analyticsGroup.GET("/metrics", s.handleMetrics)
			analyticsGroup.GET("/insights", s.handleInsights)
			analyticsGroup.GET("/comparison", s.handleComparison)
			analyticsGroup.GET("/cohorts", s.handleCohorts)
			analyticsGroup.GET("/reports/:type", s.handleReport)
			analyticsGroup.POST("/consistency", s.handleConsistency)
		}

		syncGroup := api.Group("/sync")
		{
			syncGroup.GET("/user/:userId", s.handleSyncUser)
			syncGroup.GET("/orders/:userId", s.handleSyncUserOrders)
			syncGroup.GET("/all-users", s.handleSyncAllUsers)
			syncGroup.GET("/health-check", s.handleExternalHealth)
			syncGroup.GET("/stats-comparison", s.handleStatsComparison)
		}
	}

	return router
}

func (s *AnalyticsServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "analytics-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
	})
}

func (s *AnalyticsServer) handleDashboard(c *gin.Context) {
	dashboard, err := s.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, dashboard)
}

// handleMetrics serves the metric subset of the dashboard.
func (s *AnalyticsServer) handleMetrics(c *gin.Context) {
	dashboard, err := s.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"businessMetrics": dashboard.BusinessMetrics,
		"realTimeMetrics": dashboard.RealTimeMetrics,
		"lastUpdated":     dashboard.LastUpdated,
	})
}

func (s *AnalyticsServer) handleInsights(c *gin.Context) {
	report, err := s.svc.Insights(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, report)
}

func (s *AnalyticsServer) handleComparison(c *gin.Context) {
	dashboard, err := s.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"comparison": dashboard.PeriodComparison,
		"period":     "30 days",
	})
}

func (s *AnalyticsServer) handleCohorts(c *gin.Context) {
	dashboard, err := s.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"cohorts":     dashboard.CohortAnalysis,
		"description": "Monthly user cohorts showing retention and revenue patterns",
	})
}

func (s *AnalyticsServer) handleReport(c *gin.Context) {
	reportType := c.Param("type")
	if reportType != "daily" && reportType != "weekly" && reportType != "monthly" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "report type must be daily, weekly or monthly",
		})
		return
	}

	report, err := s.svc.Report(c.Request.Context(), reportType)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, report)
}

func (s *AnalyticsServer) handleConsistency(c *gin.Context) {
	result, err := s.svc.ValidateConsistency(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, result)
}

func (s *AnalyticsServer) handleSyncUser(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	user, err := s.svc.SyncUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "user not found in orders service",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
		"message": "user data synchronized successfully",
	})
}

func (s *AnalyticsServer) handleSyncUserOrders(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	orders, err := s.svc.SyncUserOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"count":   len(orders),
		"message": "order data synchronized successfully",
	})
}

func (s *AnalyticsServer) handleSyncAllUsers(c *gin.Context) {
	peerUsers, err := s.svc.SyncAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    peerUsers,
		"count":   len(peerUsers),
		"message": "all users synchronized successfully",
	})
}

// handleExternalHealth always answers 200; peer state is in the payload.
func (s *AnalyticsServer) handleExternalHealth(c *gin.Context) {
	respond(c, http.StatusOK, s.svc.ExternalHealth(c.Request.Context()))
}

func (s *AnalyticsServer) handleStatsComparison(c *gin.Context) {
	comparison, err := s.svc.StatsComparison(c.Request.Context())
	if err != nil {
		respondError(c, s.logger, err)
		return
	}
	respond(c, http.StatusOK, comparison)
}
