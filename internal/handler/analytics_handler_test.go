package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intransparency/platform-api/internal/dto"
	"github.com/intransparency/platform-api/internal/middleware"
	"github.com/intransparency/platform-api/internal/models"
	appErrors "github.com/intransparency/platform-api/pkg/errors"
)

type fakeAnalyticsSrv struct {
	resp *dto.StudentAnalyticsResponse
	hit  bool
	err  error

	lastUserID    string
	lastTier      models.SubscriptionTier
	lastTimeRange string
}

func (f *fakeAnalyticsSrv) StudentAnalytics(_ context.Context, userID string, tier models.SubscriptionTier, timeRange string) (*dto.StudentAnalyticsResponse, bool, error) {
	f.lastUserID = userID
	f.lastTier = tier
	f.lastTimeRange = timeRange
	return f.resp, f.hit, f.err
}

func analyticsTestContext(t *testing.T, claims *models.JWTClaims, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func studentClaims(tier models.SubscriptionTier) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent, Tier: tier}
}

func TestAnalyticsHandlerRequiresAuth(t *testing.T) {
	handler := NewAnalyticsHandler(&fakeAnalyticsSrv{})
	c, rec := analyticsTestContext(t, nil, "/api/v1/dashboard/student/analytics")

	handler.StudentAnalytics(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnalyticsHandlerRejectsRecruiters(t *testing.T) {
	srv := &fakeAnalyticsSrv{}
	handler := NewAnalyticsHandler(srv)
	claims := &models.JWTClaims{UserID: "rec-1", Role: models.RoleRecruiter, Tier: models.TierPremium}
	c, rec := analyticsTestContext(t, claims, "/api/v1/dashboard/student/analytics")

	handler.StudentAnalytics(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, srv.lastUserID)
}

func TestAnalyticsHandlerAllowsAdminOverride(t *testing.T) {
	srv := &fakeAnalyticsSrv{resp: &dto.StudentAnalyticsResponse{}}
	handler := NewAnalyticsHandler(srv)
	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, Tier: models.TierPremium}
	c, rec := analyticsTestContext(t, claims, "/api/v1/dashboard/student/analytics")

	handler.StudentAnalytics(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1", srv.lastUserID)
}

func TestAnalyticsHandlerDefaultsTimeRange(t *testing.T) {
	srv := &fakeAnalyticsSrv{resp: &dto.StudentAnalyticsResponse{}}
	handler := NewAnalyticsHandler(srv)
	c, rec := analyticsTestContext(t, studentClaims(models.TierFree), "/api/v1/dashboard/student/analytics")

	handler.StudentAnalytics(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1month", srv.lastTimeRange)
}

func TestAnalyticsHandlerPassesTimeRangeAndTier(t *testing.T) {
	srv := &fakeAnalyticsSrv{resp: &dto.StudentAnalyticsResponse{}}
	handler := NewAnalyticsHandler(srv)
	c, _ := analyticsTestContext(t, studentClaims(models.TierPremium), "/api/v1/dashboard/student/analytics?timeRange=6months")

	handler.StudentAnalytics(c)

	assert.Equal(t, "6months", srv.lastTimeRange)
	assert.Equal(t, models.TierPremium, srv.lastTier)
}

func TestAnalyticsHandlerSuccessPayload(t *testing.T) {
	srv := &fakeAnalyticsSrv{
		resp: &dto.StudentAnalyticsResponse{
			Overview:  dto.Overview{TotalProfileViews: 7},
			IsLimited: true,
		},
	}
	handler := NewAnalyticsHandler(srv)
	c, rec := analyticsTestContext(t, studentClaims(models.TierFree), "/api/v1/dashboard/student/analytics")

	handler.StudentAnalytics(c)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data dto.StudentAnalyticsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 7, envelope.Data.Overview.TotalProfileViews)
	assert.True(t, envelope.Data.IsLimited)
	assert.Nil(t, envelope.Data.Engagement)
}

func TestAnalyticsHandlerInternalError(t *testing.T) {
	srv := &fakeAnalyticsSrv{err: appErrors.Wrap(assert.AnError, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch analytics")}
	handler := NewAnalyticsHandler(srv)
	c, rec := analyticsTestContext(t, studentClaims(models.TierPremium), "/api/v1/dashboard/student/analytics")

	handler.StudentAnalytics(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to fetch analytics")
}
