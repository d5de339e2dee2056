package domain

import (
	"testing"
	"time"
)

func TestNewProcessCheckTask(t *testing.T) {
	task := NewProcessCheckTask("org-1", "check-1", "some article text")

	if task.Type != TaskTypeProcessCheck {
		t.Errorf("expected type %s, got %s", TaskTypeProcessCheck, task.Type)
	}
	if task.CheckID() != "check-1" {
		t.Errorf("expected check_id check-1, got %s", task.CheckID())
	}
	if task.ArticleText() != "some article text" {
		t.Errorf("unexpected article_text %q", task.ArticleText())
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected pending status, got %s", task.Status)
	}
	if task.MaxAttempts != 3 {
		t.Errorf("expected 3 max attempts, got %d", task.MaxAttempts)
	}
}

func TestTaskPayloadAccessorsNilPayload(t *testing.T) {
	task := &Task{}
	if task.CheckID() != "" {
		t.Error("expected empty check_id for nil payload")
	}
	if task.ArticleText() != "" {
		t.Error("expected empty article_text for nil payload")
	}
}

func TestTaskRetryBackoff(t *testing.T) {
	task := NewProcessCheckTask("org-1", "check-1", "text")

	task.MarkProcessing()
	if task.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", task.Attempts)
	}

	before := time.Now()
	task.Retry("transient failure")

	if task.Status != TaskStatusPending {
		t.Errorf("expected pending after retry, got %s", task.Status)
	}
	// First retry backs off by 2s (1 << 1 attempts)
	delay := task.ScheduledFor.Sub(before)
	if delay < time.Second || delay > 3*time.Second {
		t.Errorf("unexpected backoff delay %v", delay)
	}
}

func TestTaskCanRetry(t *testing.T) {
	task := NewProcessCheckTask("org-1", "check-1", "text")
	for i := 0; i < task.MaxAttempts; i++ {
		if !task.CanRetry() {
			t.Fatalf("expected retryable at attempt %d", task.Attempts)
		}
		task.MarkProcessing()
	}
	if task.CanRetry() {
		t.Error("expected not retryable after max attempts")
	}
}
