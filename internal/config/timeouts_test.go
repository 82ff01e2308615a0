package config

import (
	"testing"
	"time"
)

// Discord drops interactions not answered within 3 seconds.
func TestWebhookBudgetFitsDiscordDeadline(t *testing.T) {
	if WebhookProcessing >= 3*time.Second {
		t.Errorf("WebhookProcessing = %v, must stay under 3s", WebhookProcessing)
	}
	if DiscordEventRequest >= WebhookProcessing {
		t.Errorf("DiscordEventRequest (%v) must be shorter than WebhookProcessing (%v)",
			DiscordEventRequest, WebhookProcessing)
	}
	if ExternalAPIRequest >= WebhookProcessing {
		t.Errorf("ExternalAPIRequest (%v) must be shorter than WebhookProcessing (%v)",
			ExternalAPIRequest, WebhookProcessing)
	}
}

func TestServerTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		got      time.Duration
		expected time.Duration
	}{
		{"WebhookHTTPRead", WebhookHTTPRead, 10 * time.Second},
		{"WebhookHTTPWrite", WebhookHTTPWrite, 15 * time.Second},
		{"WebhookHTTPIdle", WebhookHTTPIdle, 120 * time.Second},
		{"GracefulShutdown", GracefulShutdown, 30 * time.Second},
		{"SlowQueryThreshold", SlowQueryThreshold, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}
