package jobs

import (
	"errors"
	"testing"
	"time"
)

func TestStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	job := Job{Status: StatusPending, APIKey: "k", File: FilePayload{Data: []byte("a"), Name: "a.mp3"}}

	if err := s.Put("id-1", job); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get("id-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "id-1" {
		t.Errorf("id = %q, want id-1", got.ID)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
}

func TestStorePutDuplicate(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put("id-1", Job{Status: StatusPending}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put("id-1", Job{Status: StatusPending}); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate put = %v, want ErrExists", err)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get unknown = %v, want ErrNotFound", err)
	}
}

func TestStoreUpdateVisibleImmediately(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put("id-1", Job{Status: StatusPending}); err != nil {
		t.Fatalf("put: %v", err)
	}

	err := s.Update("id-1", func(j *Job) {
		j.Status = StatusProcessing
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.Get("id-1")
	if got.Status != StatusProcessing {
		t.Errorf("update not visible: status = %s", got.Status)
	}
}

func TestStoreUpdateUnknown(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update("nope", func(j *Job) { j.Status = StatusProcessing })
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("update unknown = %v, want ErrNotFound", err)
	}
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put("id-1", Job{Status: StatusPending}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, _ := s.Get("id-1")
	got.Status = StatusFailed
	got.Error = "mutated copy"

	again, _ := s.Get("id-1")
	if again.Status != StatusPending || again.Error != "" {
		t.Error("mutating a Get snapshot must not affect stored state")
	}
}

func TestStoreEvictTerminal(t *testing.T) {
	s := NewMemoryStore()
	old := time.Now().Add(-2 * time.Hour)

	s.Put("done", Job{Status: StatusCompleted, DoneAt: old})
	s.Put("failed", Job{Status: StatusFailed, DoneAt: old})
	s.Put("fresh", Job{Status: StatusCompleted, DoneAt: time.Now()})
	s.Put("running", Job{Status: StatusProcessing})

	n := s.EvictTerminal(time.Now().Add(-time.Hour))
	if n != 2 {
		t.Errorf("evicted %d, want 2", n)
	}
	if _, err := s.Get("done"); !errors.Is(err, ErrNotFound) {
		t.Error("old completed job should be evicted")
	}
	if _, err := s.Get("fresh"); err != nil {
		t.Error("fresh terminal job should survive")
	}
	if _, err := s.Get("running"); err != nil {
		t.Error("non-terminal job must never be evicted")
	}
	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}
}

func TestStatusTransitions(t *testing.T) {
	valid := []struct{ from, to Status }{
		{StatusPending, StatusProcessing},
		{StatusProcessing, StatusCompleted},
		{StatusProcessing, StatusFailed},
	}
	for _, c := range valid {
		if !isValidTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be valid", c.from, c.to)
		}
	}

	invalid := []struct{ from, to Status }{
		{StatusPending, StatusCompleted},
		{StatusProcessing, StatusPending},
		{StatusCompleted, StatusProcessing},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusPending},
	}
	for _, c := range invalid {
		if isValidTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be rejected", c.from, c.to)
		}
	}
}

func TestViewHidesCredential(t *testing.T) {
	j := Job{Status: StatusCompleted, Result: "text", APIKey: "secret"}
	v := j.View()
	if v.Status != StatusCompleted || v.Result != "text" || v.Error != "" {
		t.Errorf("view = %+v", v)
	}
}
