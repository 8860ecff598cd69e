package mqtt

import (
	"io"
	"testing"
	"time"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/logx"
	"github.com/roamsim/roamsim/pkg/telem"
)

func testLogger() *logx.Logger {
	return logx.NewWithWriter("error", io.Discard)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Enabled {
		t.Fatalf("MQTT should be disabled by default")
	}
	if cfg.Broker != "localhost" || cfg.Port != 1883 {
		t.Fatalf("unexpected default broker %s:%d", cfg.Broker, cfg.Port)
	}
	if cfg.TopicPrefix != "roamsim" {
		t.Fatalf("unexpected topic prefix %q", cfg.TopicPrefix)
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	c := NewClient(DefaultConfig(), testLogger())

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect on disabled client: %v", err)
	}
	if c.IsConnected() {
		t.Fatalf("disabled client reports connected")
	}

	sample := telem.Sample{Timestamp: time.Now(), Station: "sta1"}
	if err := c.PublishSample(sample); err != nil {
		t.Fatalf("PublishSample on disabled client: %v", err)
	}

	event := pkg.HandoverEvent{Station: "sta1", From: "ap1", To: "ap2"}
	if err := c.PublishHandover(event); err != nil {
		t.Fatalf("PublishHandover on disabled client: %v", err)
	}

	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect on disabled client: %v", err)
	}
	if !c.LastPublish().IsZero() {
		t.Fatalf("disabled client recorded a publish")
	}
}

func TestNewClientFillsIdentifiers(t *testing.T) {
	c := NewClient(&Config{}, testLogger())
	if c.config.ClientID == "" {
		t.Fatalf("client ID not defaulted")
	}
	if c.config.TopicPrefix == "" {
		t.Fatalf("topic prefix not defaulted")
	}
}
