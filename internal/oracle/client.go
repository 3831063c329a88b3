package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

// Client — HTTP-клиент сервиса модерации и скоринга споров.
// Реализует интерфейсы ModerationOracle и ScoringOracle из service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент оракула. Пустой baseURL допустим:
// модерация тогда пропускается, скоринг работает по эвристике.
func NewClient(baseURL string) *Client {
	apiKey := os.Getenv("MODERATION_ACCESS_TOKEN")
	if apiKey == "" {
		apiKey = os.Getenv("MODERATION_API_KEY")
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Moderate проверяет описание спора на допустимость.
// Без настроенного baseURL текст считается допустимым.
func (c *Client) Moderate(ctx context.Context, text string) (bool, error) {
	if c.baseURL == "" {
		return true, nil
	}

	result, err := c.post(ctx, "/moderation/check", map[string]any{"text": text})
	if err != nil {
		return false, err
	}

	allowed, ok := result["allowed"].(bool)
	if !ok {
		return false, fmt.Errorf("oracle: неожиданный формат ответа модерации")
	}
	return allowed, nil
}

// Score оценивает серьёзность и уровень риска описания.
// При недоступном сервисе отдаёт эвристическую оценку: классификация
// не должна блокировать подачу спора из-за деградации оракула.
func (c *Client) Score(ctx context.Context, text string) (int, string, error) {
	if c.baseURL == "" {
		severity, risk := heuristicScore(text)
		return severity, risk, nil
	}

	result, err := c.post(ctx, "/triage/score", map[string]any{"text": text})
	if err != nil {
		severity, risk := heuristicScore(text)
		return severity, risk, nil
	}

	severity, sevOK := result["severity"].(float64)
	risk, riskOK := result["risk_level"].(string)
	if !sevOK || !riskOK {
		return 0, "", fmt.Errorf("oracle: неожиданный формат ответа скоринга")
	}
	return int(severity), risk, nil
}

// post выполняет HTTP запрос к сервису оракула.
func (c *Client) post(ctx context.Context, path string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("oracle: код ответа %d", resp.StatusCode)
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result, nil
}

// Ключевые слова для эвристики. Чем тяжелее претензия, тем выше severity.
var (
	highRiskMarkers = []string{
		"мошенничество", "fraud", "scam", "обман", "кража", "украл",
		"угроза", "threat", "chargeback", "подделка",
	}
	mediumRiskMarkers = []string{
		"не выполнил", "не оплатил", "просрочка", "deadline", "refund",
		"возврат", "некачественно", "не отвечает", "пропал",
	}
)

// heuristicScore — резервная классификация без внешнего сервиса.
// Простая и детерминированная: считает маркеры тяжести в тексте.
func heuristicScore(text string) (int, string) {
	lower := strings.ToLower(text)

	high := 0
	for _, marker := range highRiskMarkers {
		if strings.Contains(lower, marker) {
			high++
		}
	}
	medium := 0
	for _, marker := range mediumRiskMarkers {
		if strings.Contains(lower, marker) {
			medium++
		}
	}

	switch {
	case high >= 2:
		return 5, models.RiskLevelHigh
	case high == 1:
		return 4, models.RiskLevelHigh
	case medium >= 2:
		return 3, models.RiskLevelMedium
	case medium == 1:
		return 2, models.RiskLevelMedium
	default:
		return 1, models.RiskLevelLow
	}
}
