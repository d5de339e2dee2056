package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

func setupTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q, err := NewQueue(client, "test-worker")
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	return q, mr
}

func TestEnqueueDequeue(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewProcessCheckTask("org-1", "check-1", "the article text")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task, got nil")
	}
	if got.ID != task.ID {
		t.Errorf("expected task %s, got %s", task.ID, got.ID)
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("expected processing status, got %s", got.Status)
	}
	if got.CheckID() != "check-1" || got.ArticleText() != "the article text" {
		t.Errorf("payload lost in transit: %+v", got.Payload)
	}
}

func TestDequeueEmptyQueue(t *testing.T) {
	q, _ := setupTestQueue(t)

	got, err := q.DequeueWithTimeout(context.Background(), 1)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil task from empty queue, got %+v", got)
	}
}

func TestAckCompletesTask(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewProcessCheckTask("org-1", "check-1", "text")
	q.Enqueue(ctx, task)
	got, _ := q.DequeueWithTimeout(ctx, 1)
	if got == nil {
		t.Fatal("expected a task")
	}

	if err := q.Ack(ctx, got.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}

	stored, err := q.GetTask(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed status, got %s", stored.Status)
	}
}

func TestNackSchedulesRetry(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewProcessCheckTask("org-1", "check-1", "text")
	q.Enqueue(ctx, task)
	got, _ := q.DequeueWithTimeout(ctx, 1)
	if got == nil {
		t.Fatal("expected a task")
	}

	if err := q.Nack(ctx, got.ID, "transient failure"); err != nil {
		t.Fatalf("Nack failed: %v", err)
	}

	stored, err := q.GetTask(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("expected pending status for retry, got %s", stored.Status)
	}
	if stored.Error != "transient failure" {
		t.Errorf("unexpected error field %q", stored.Error)
	}
	if !stored.ScheduledFor.After(time.Now()) {
		t.Error("expected backoff delay on retry")
	}
}

func TestNackExhaustedRetriesFailsTask(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewProcessCheckTask("org-1", "check-1", "text")
	task.Attempts = task.MaxAttempts
	q.Enqueue(ctx, task)
	got, _ := q.DequeueWithTimeout(ctx, 1)
	if got == nil {
		t.Fatal("expected a task")
	}

	if err := q.Nack(ctx, got.ID, "permanent failure"); err != nil {
		t.Fatalf("Nack failed: %v", err)
	}

	stored, _ := q.GetTask(ctx, got.ID)
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed status after max attempts, got %s", stored.Status)
	}
}

func TestDelayedTaskPromotion(t *testing.T) {
	q, mr := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewProcessCheckTask("org-1", "check-1", "text")
	task.ScheduledFor = time.Now().Add(time.Hour)
	q.Enqueue(ctx, task)

	// Not yet due
	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got != nil {
		t.Fatal("expected delayed task to stay scheduled")
	}

	// Make the task due by rewriting its schedule in the sorted set
	mr.FastForward(2 * time.Hour)
	q.client.ZAdd(ctx, scheduledTasks, redis.Z{
		Score:  float64(time.Now().Add(-time.Minute).Unix()),
		Member: task.ID,
	})

	got, err = q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got == nil || got.ID != task.ID {
		t.Fatal("expected promoted task after schedule passed")
	}
}

func TestPurgeTasks(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()

	task := domain.NewProcessCheckTask("org-1", "check-1", "text")
	q.Enqueue(ctx, task)
	got, _ := q.DequeueWithTimeout(ctx, 1)
	q.Ack(ctx, got.ID)

	// Old enough immediately with a negative cutoff offset
	purged, err := q.PurgeTasks(ctx, -1)
	if err != nil {
		t.Fatalf("PurgeTasks failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged task, got %d", purged)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored != nil {
		t.Error("expected task data removed after purge")
	}
}
