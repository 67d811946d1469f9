package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
)

func TestEventHandlers_UpgradeOriginCheck(t *testing.T) {
	logger := logging.NewDiscardLogger()
	h := NewEventHandlers(messaging.NewHub(logger), []string{"https://app.example.com"}, logger)

	cases := map[string]struct {
		origin string
		want   bool
	}{
		"configured origin": {"https://app.example.com", true},
		"trailing slash":    {"https://app.example.com/", true},
		"no origin header":  {"", true},
		"foreign origin":    {"https://evil.test", false},
		"lookalike host":    {"https://app.example.com.evil.test", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.want, h.upgrader.CheckOrigin(req))
		})
	}
}
