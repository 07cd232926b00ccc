package queue

import (
	"context"
	"testing"
)

func TestMemorySource_PublishReadAck(t *testing.T) {
	source := NewMemorySource()
	ctx := context.Background()

	if err := source.Publish(ctx, "G1", []byte(`{"gameId":"G1"}`)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := source.Publish(ctx, "G1", []byte(`{"gameId":"G1","sequence":2}`)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	reader := source.Reader("G1")

	batch, err := reader.ReadBatch(ctx, 10)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(batch))
	}

	// Unacked messages are redelivered.
	again, err := reader.ReadBatch(ctx, 10)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(again) != 2 {
		t.Errorf("expected redelivery of 2 messages, got %d", len(again))
	}

	// Ack the first, only the second remains.
	if err := reader.Ack(ctx, []string{batch[0].ID}); err != nil {
		t.Fatalf("ack failed: %v", err)
	}

	remaining, err := reader.ReadBatch(ctx, 10)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 message after ack, got %d", len(remaining))
	}
	if remaining[0].ID != batch[1].ID {
		t.Errorf("wrong message survived: %s", remaining[0].ID)
	}
}

func TestMemorySource_BatchLimit(t *testing.T) {
	source := NewMemorySource()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := source.Publish(ctx, "G1", []byte(`{}`)); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	batch, err := source.Reader("G1").ReadBatch(ctx, 3)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(batch) != 3 {
		t.Errorf("expected batch capped at 3, got %d", len(batch))
	}
}

func TestMemorySource_GamesAreIsolated(t *testing.T) {
	source := NewMemorySource()
	ctx := context.Background()

	if err := source.Publish(ctx, "G1", []byte(`{}`)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	batch, err := source.Reader("G2").ReadBatch(ctx, 10)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("expected empty batch for other game, got %d", len(batch))
	}
}
