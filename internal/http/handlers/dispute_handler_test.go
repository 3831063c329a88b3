package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/escrow-arbitration/internal/http/middleware"
)

func TestDisputeHandler_FileDispute_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewDisputeHandler(nil, nil)
	r := gin.New()
	r.POST("/api/disputes", handler.FileDispute)

	body := bytes.NewBufferString(`{"deal_id":"` + uuid.New().String() + `"}`)
	req, _ := http.NewRequest("POST", "/api/disputes", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_Vote_InvalidUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewDisputeHandler(nil, nil)
	r := gin.New()
	r.POST("/api/disputes/:id/vote", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
	}, handler.Vote)

	body := bytes.NewBufferString(`{"side":"buyer"}`)
	req, _ := http.NewRequest("POST", "/api/disputes/invalid-uuid/vote", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_Escalate_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewDisputeHandler(nil, nil)
	r := gin.New()
	r.POST("/api/disputes/:id/escalate", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
	}, handler.Escalate)

	body := bytes.NewBufferString(`{"level":"не число"}`)
	req, _ := http.NewRequest("POST", "/api/disputes/"+uuid.New().String()+"/escalate", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisputeHandler_Override_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewDisputeHandler(nil, nil)
	r := gin.New()
	r.POST("/api/disputes/:id/override", handler.Override)

	body := bytes.NewBufferString(`{"action":"extend_deadline"}`)
	req, _ := http.NewRequest("POST", "/api/disputes/"+uuid.New().String()+"/override", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDisputeHandler_GetDispute_InvalidUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewDisputeHandler(nil, nil)
	r := gin.New()
	r.GET("/api/disputes/:id", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uuid.New())
	}, handler.GetDispute)

	req, _ := http.NewRequest("GET", "/api/disputes/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
