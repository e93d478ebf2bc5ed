package embeddedmqtt

import (
	"context"
	"testing"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewServerAllowAnonymous(t *testing.T) {
	server, err := newServer(zap.NewNop(), Config{AllowAnonymous: true})
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	if server == nil {
		t.Fatalf("expected server")
	}
}

func TestNewServerWithCredentials(t *testing.T) {
	if _, err := newServer(zap.NewNop(), Config{Username: "u", Password: "p"}); err != nil {
		t.Fatalf("newServer: %v", err)
	}
}

func TestNewServerRequiresAuthConfig(t *testing.T) {
	if _, err := NewModule(zap.NewNop(), Config{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInlinePublishSubscribe(t *testing.T) {
	server, err := newServer(zap.NewNop(), Config{AllowAnonymous: true})
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}

	received := make(chan packets.Packet, 1)
	handler := func(_ *mqtt.Client, _ packets.Subscription, pk packets.Packet) {
		received <- pk
	}
	if err := server.Subscribe("spotctl/v1/#", 1, handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	payload := []byte(`{"song_name":"Song A"}`)
	if err := server.Publish("spotctl/v1/node/now_playing", payload, false, 0); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case pk := <-received:
		if string(pk.Payload) != string(payload) {
			t.Fatalf("unexpected payload")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	mod, err := NewModule(zap.NewNop(), Config{Listen: "127.0.0.1:0", AllowAnonymous: true})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- mod.Run(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("broker did not stop")
	}
}

func TestBrokerURL(t *testing.T) {
	if BrokerURL("127.0.0.1:1883", false) != "tcp://127.0.0.1:1883" {
		t.Fatalf("expected tcp scheme")
	}
	if BrokerURL("127.0.0.1:8883", true) != "ssl://127.0.0.1:8883" {
		t.Fatalf("expected ssl scheme")
	}
}

func TestSlogBridge(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := newSlogLogger(zap.New(core))

	logger.Debug("hidden")
	logger.Warn("client rejected", "client", "abc", "attempts", 3)
	logger.Error("read failed", "error", "EOF")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Message != "client rejected" || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	if entries[0].ContextMap()["client"] != "abc" {
		t.Fatalf("expected client field")
	}
}
