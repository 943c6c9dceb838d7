package cache

import (
	"testing"
	"time"

	"github.com/jordanhubbard/strata/pkg/models"
)

func TestKeys(t *testing.T) {
	if got := ScorecardKey(models.ModePool, "uncertainty-entropy"); got != "strata:pool:scorecard:uncertainty-entropy" {
		t.Errorf("scorecard key = %q", got)
	}
	if got := SnapshotKey(models.ModeStreaming); got != "strata:streaming:snapshot" {
		t.Errorf("snapshot key = %q", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr != "localhost:6379" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.TTL != 10*time.Minute {
		t.Errorf("ttl = %v", cfg.TTL)
	}
}
