package tests_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseURL       = "http://localhost:8080"
	testJWTSecret = "component-test-secret"
)

func getEnvOrDefault(key string, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(baseURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			if assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode) {
				return
			}
		},
		time.Second*10,
		time.Millisecond*50,
	)
}

func signToken(t *testing.T, subject, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

type ticketStatus struct {
	Code         string `json:"code"`
	EventID      string `json:"event_id"`
	OrderID      string `json:"order_id"`
	State        string `json:"state"`
	MaxUsages    uint   `json:"max_usages"`
	UsageCount   uint   `json:"usage_count"`
	Remaining    uint   `json:"remaining"`
	UsageHistory []struct {
		Timestamp   time.Time `json:"timestamp"`
		ValidatedBy string    `json:"validated_by"`
	} `json:"usage_history"`
}

// validateResponse covers both shapes: a successful validation returns the
// ticket status at the top level, a conflict wraps it under "ticket".
type validateResponse struct {
	ticketStatus
	Error  string        `json:"error"`
	Ticket *ticketStatus `json:"ticket"`
}

func doJSON(t *testing.T, method, path, token string, reqBody any, respBody any) int {
	t.Helper()

	var reader io.Reader
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if respBody != nil && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, respBody), "unmarshalling %q", string(raw))
	}

	return resp.StatusCode
}

func generateTickets(t *testing.T, token, orderID, eventID string, quantity, usagesPerTicket uint) (int, []string) {
	t.Helper()

	req := map[string]any{
		"event_id":          eventID,
		"quantity":          quantity,
		"usages_per_ticket": usagesPerTicket,
	}
	var resp struct {
		QRCodes []string `json:"qr_codes"`
	}
	code := doJSON(t, http.MethodPost, "/tickets/generate/"+orderID, token, req, &resp)
	return code, resp.QRCodes
}

func getTicketStatus(t *testing.T, token, code, eventID string) (int, ticketStatus) {
	t.Helper()

	var status ticketStatus
	httpCode := doJSON(t, http.MethodGet, fmt.Sprintf("/tickets/%s?event_id=%s", code, eventID), token, nil, &status)
	return httpCode, status
}

func validateTicket(t *testing.T, token, code, eventID string) (int, validateResponse) {
	t.Helper()

	req := map[string]any{
		"qr_code":  code,
		"event_id": eventID,
	}
	var resp validateResponse
	httpCode := doJSON(t, http.MethodPost, "/tickets/validate", token, req, &resp)
	return httpCode, resp
}
