package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intransparency/platform-api/internal/dto"
	"github.com/intransparency/platform-api/internal/middleware"
	"github.com/intransparency/platform-api/internal/models"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
	"github.com/intransparency/platform-api/pkg/response"
)

type studentAnalyticsService interface {
	StudentAnalytics(ctx context.Context, userID string, tier models.SubscriptionTier, timeRange string) (*dto.StudentAnalyticsResponse, bool, error)
}

// AnalyticsHandler serves the student analytics dashboard endpoint.
type AnalyticsHandler struct {
	analytics studentAnalyticsService
}

// NewAnalyticsHandler constructs an analytics handler.
func NewAnalyticsHandler(analytics studentAnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// StudentAnalytics godoc
// @Summary Student analytics dashboard
// @Description Computes engagement, funnel and market metrics for the authenticated student, gated by subscription tier.
// @Tags analytics
// @Produce json
// @Param timeRange query string false "Time range" Enums(1month, 3months, 6months, 1year) default(1month)
// @Success 200 {object} response.Envelope{data=dto.StudentAnalyticsResponse}
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/student/analytics [get]
func (h *AnalyticsHandler) StudentAnalytics(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleStudent && claims.Role != models.RoleAdmin {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	timeRange := c.DefaultQuery("timeRange", "1month")

	analytics, cacheHit, err := h.analytics.StudentAnalytics(c.Request.Context(), claims.UserID, claims.Tier, timeRange)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, analytics, middleware.ExtractMeta(c))
}
