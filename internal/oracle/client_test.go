package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

func TestClient_Moderate_WithoutBaseURL(t *testing.T) {
	client := NewClient("")

	allowed, err := client.Moderate(context.Background(), "любой текст")

	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestClient_Moderate_RemoteRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/moderation/check", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"allowed": false}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	allowed, err := client.Moderate(context.Background(), "запрещённый текст")

	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestClient_Score_RemoteResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/triage/score", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"severity": 4, "risk_level": "high"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	severity, risk, err := client.Score(context.Background(), "исполнитель пропал")

	assert.NoError(t, err)
	assert.Equal(t, 4, severity)
	assert.Equal(t, models.RiskLevelHigh, risk)
}

func TestClient_Score_FallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	severity, risk, err := client.Score(context.Background(), "просрочка сдачи, возврат предоплаты")

	assert.NoError(t, err)
	assert.Equal(t, 3, severity)
	assert.Equal(t, models.RiskLevelMedium, risk)
}

func TestHeuristicScore(t *testing.T) {
	severity, risk := heuristicScore("мошенничество и подделка документов")
	assert.Equal(t, 5, severity)
	assert.Equal(t, models.RiskLevelHigh, risk)

	severity, risk = heuristicScore("подозреваю обман со стороны исполнителя")
	assert.Equal(t, 4, severity)
	assert.Equal(t, models.RiskLevelHigh, risk)

	severity, risk = heuristicScore("исполнитель не отвечает, прошу возврат")
	assert.Equal(t, 3, severity)
	assert.Equal(t, models.RiskLevelMedium, risk)

	severity, risk = heuristicScore("небольшое расхождение по объёму работ")
	assert.Equal(t, 1, severity)
	assert.Equal(t, models.RiskLevelLow, risk)
}
