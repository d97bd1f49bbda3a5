package config

import (
	"strings"
	"testing"
)

const minimalYAML = `
environment: test
storage:
  type: memory
`

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.RollingCache.SymbolWindow != 60 || c.RollingCache.VIXWindow != 20 {
		t.Fatalf("rolling cache defaults: %+v", c.RollingCache)
	}
	if c.Kafka.Topic != "posture.results" {
		t.Fatalf("kafka topic = %s", c.Kafka.Topic)
	}
	th := c.Scoring.Thresholds
	if th.DirectionScoreThreshold != 1.0 || th.VolScoreThreshold != 0.4 {
		t.Fatalf("score thresholds: %+v", th)
	}
	if th.EarningsWindowDays != 14 || th.VIXFallbackValue != 18.0 {
		t.Fatalf("event defaults: %+v", th)
	}
	if !c.Scoring.IsIndex("spy") || c.Scoring.IsIndex("NVDA") {
		t.Fatalf("index ticker defaults wrong")
	}
}

func TestParseRejectsBadStorage(t *testing.T) {
	_, err := Parse([]byte("environment: test\nstorage:\n  type: postgres\n"))
	if err == nil || !strings.Contains(err.Error(), "storage.type") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseRejectsBadAlias(t *testing.T) {
	y := minimalYAML + `
scoring:
  quadrant_aliases:
    whatever: not_a_quadrant
`
	if _, err := Parse([]byte(y)); err == nil {
		t.Fatalf("bad alias target must fail")
	}
}

func TestEffectiveIndexThresholds(t *testing.T) {
	s := DefaultScoring()
	base := s.Effective("NVDA")
	idx := s.Effective("SPY")
	if idx.PutPctBear <= base.PutPctBear {
		t.Fatalf("index put threshold should be looser: %v vs %v", idx.PutPctBear, base.PutPctBear)
	}
	if idx.CallPutRatioBull >= base.CallPutRatioBull {
		t.Fatalf("index c/p bull threshold should be looser: %v vs %v", idx.CallPutRatioBull, base.CallPutRatioBull)
	}
}

func TestKafkaValidation(t *testing.T) {
	y := minimalYAML + `
kafka:
  enabled: true
`
	if _, err := Parse([]byte(y)); err == nil {
		t.Fatalf("enabled kafka without brokers must fail")
	}
}
