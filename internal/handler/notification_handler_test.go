package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/middleware"
	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
)

type fakeNotificationSrv struct {
	list       *dto.NotificationList
	acceptErr  error
	acceptedID string
	declinedID string
}

func (f *fakeNotificationSrv) List(context.Context, *models.JWTClaims) (*dto.NotificationList, error) {
	return f.list, nil
}

func (f *fakeNotificationSrv) MarkAllRead(context.Context, *models.JWTClaims) error {
	return nil
}

func (f *fakeNotificationSrv) Accept(_ context.Context, _ *models.JWTClaims, id string) error {
	f.acceptedID = id
	return f.acceptErr
}

func (f *fakeNotificationSrv) Decline(_ context.Context, _ *models.JWTClaims, id string) error {
	f.declinedID = id
	return nil
}

func authedContext(rec *httptest.ResponseRecorder, method, target string) *gin.Context {
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Email: "student@example.com", Role: models.RoleStudent})
	return c
}

func TestNotificationHandlerAccept(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeNotificationSrv{}
	handler := NewNotificationHandler(srv)

	rec := httptest.NewRecorder()
	c := authedContext(rec, http.MethodPost, "/notifications/n1/accept")
	c.Params = gin.Params{{Key: "id", Value: "n1"}}

	handler.Accept(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "n1", srv.acceptedID)
}

func TestNotificationHandlerAcceptFailureSurfaces(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeNotificationSrv{acceptErr: appErrors.ErrForbidden}
	handler := NewNotificationHandler(srv)

	rec := httptest.NewRecorder()
	c := authedContext(rec, http.MethodPost, "/notifications/n1/accept")
	c.Params = gin.Params{{Key: "id", Value: "n1"}}

	handler.Accept(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotificationHandlerListUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNotificationHandler(&fakeNotificationSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/notifications", nil)

	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotificationHandlerDecline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeNotificationSrv{}
	handler := NewNotificationHandler(srv)

	rec := httptest.NewRecorder()
	c := authedContext(rec, http.MethodPost, "/notifications/n2/decline")
	c.Params = gin.Params{{Key: "id", Value: "n2"}}

	handler.Decline(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "n2", srv.declinedID)
}
