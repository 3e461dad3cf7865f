package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

func TestEventRoundTripKeepsKey(t *testing.T) {
	payload, err := encodeEvent("tenancy/deposits.md", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	key, err := decodeEvent(payload)
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if key != "tenancy/deposits.md" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestDecodeEventAcceptsBareKey(t *testing.T) {
	key, err := decodeEvent([]byte(" consumer/refunds.md\n"))
	if err != nil || key != "consumer/refunds.md" {
		t.Fatalf("unexpected decode result %q, %v", key, err)
	}
}

func TestDecodeEventRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "{", `{"key":""}`} {
		if _, err := decodeEvent([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestClassifyNATSError(t *testing.T) {
	if class := classifyNATSError(fmt.Errorf("publish: %w", nats.ErrConnectionClosed)); !class.Retryable || !class.RecordFailure {
		t.Fatalf("expected closed connection to be retryable, got %+v", class)
	}
	if class := classifyNATSError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("expected cancellation to be neither retried nor recorded, got %+v", class)
	}
	if class := classifyNATSError(nats.ErrBadSubject); class.Retryable {
		t.Fatalf("expected bad subject to be permanent, got %+v", class)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(nats.ErrNoServers)
	if !errors.Is(err, domain.ErrTemporary) || !errors.Is(err, nats.ErrNoServers) {
		t.Fatalf("expected temporary wrap, got %v", err)
	}
	if err := wrapTemporaryIfNeeded(nats.ErrBadSubject); errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error to stay unwrapped, got %v", err)
	}
}
