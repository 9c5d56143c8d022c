package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/transcription"
)

// fakeProvider lets tests script the remote transcription outcome.
type fakeProvider struct {
	mu      sync.Mutex
	text    string
	err     error
	release chan struct{} // if set, Transcribe blocks until closed
	calls   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	text, err := f.text, f.err
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &transcription.Response{Text: text}, nil
}

func newTestService(t *testing.T, p transcription.Provider, cfg Config) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(cfg, store, p, nil, logger.NewDefault("scribe-test"))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		svc.Stop(context.Background())
	})
	return svc, store
}

func validSubmit() SubmitRequest {
	return SubmitRequest{
		Audio:     []byte("RIFF fake wav bytes"),
		Filename:  "clip.wav",
		MediaType: "audio/wav",
		APIKey:    "gsk_test",
	}
}

// waitTerminal polls until the job reaches a terminal state, same as a client.
func waitTerminal(t *testing.T, svc *Service, id string) StatusView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	var last StatusView
	for time.Now().Before(deadline) {
		view, err := svc.Status(id)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		// Sampled statuses must never regress.
		if regressed(last.Status, view.Status) {
			t.Fatalf("status regressed: %s -> %s", last.Status, view.Status)
		}
		last = view
		if view.Status.IsTerminal() {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state (last: %s)", id, last.Status)
	return StatusView{}
}

func regressed(prev, cur Status) bool {
	rank := map[Status]int{StatusPending: 0, StatusProcessing: 1, StatusCompleted: 2, StatusFailed: 2}
	if prev == "" {
		return false
	}
	return rank[cur] < rank[prev]
}

func TestSubmitAndComplete(t *testing.T) {
	p := &fakeProvider{text: "hello from the transcript"}
	svc, _ := newTestService(t, p, Config{})

	id, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("id %q should be 32 hex chars", id)
	}

	// Visible immediately after the submit call returns.
	view, err := svc.Status(id)
	if err != nil {
		t.Fatalf("status right after submit: %v", err)
	}
	if view.Status.IsTerminal() && view.Status != StatusCompleted {
		t.Errorf("unexpected early state %s", view.Status)
	}

	final := waitTerminal(t, svc, id)
	if final.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", final.Status)
	}
	if final.Result != "hello from the transcript" {
		t.Errorf("result = %q", final.Result)
	}
	if final.Error != "" {
		t.Errorf("completed job must not carry an error, got %q", final.Error)
	}
}

func TestSubmitProviderFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("groq error (status 401): Invalid API Key")}
	svc, _ := newTestService(t, p, Config{})

	id, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	final := waitTerminal(t, svc, id)
	if final.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if !strings.Contains(final.Error, "Invalid API Key") {
		t.Errorf("error should be descriptive, got %q", final.Error)
	}
	if final.Result != "" {
		t.Errorf("failed job must not carry a result, got %q", final.Result)
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want exactly one attempt", p.calls)
	}
}

func TestSubmitValidation(t *testing.T) {
	p := &fakeProvider{text: "x"}
	svc, store := newTestService(t, p, Config{})

	cases := []struct {
		name string
		req  SubmitRequest
	}{
		{"missing audio", SubmitRequest{APIKey: "k"}},
		{"missing credential", SubmitRequest{Audio: []byte("x")}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), c.req)
			if err == nil {
				t.Fatal("expected error")
			}
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.HTTPStatus != 400 {
				t.Errorf("status = %d, want 400", appErr.HTTPStatus)
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("rejected submissions created %d jobs", store.Len())
	}
	if p.calls != 0 {
		t.Error("provider must not be called for rejected submissions")
	}
}

func TestSubmitOversizedPayload(t *testing.T) {
	p := &fakeProvider{text: "x"}
	svc, store := newTestService(t, p, Config{MaxFileSize: "1KB"})

	req := validSubmit()
	req.Audio = make([]byte, 2048)
	_, err := svc.Submit(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for oversized payload")
	}
	if store.Len() != 0 {
		t.Error("oversized submission should create no job")
	}
}

func TestSubmitQueueFullRollsBack(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{text: "x", release: release}
	svc, store := newTestService(t, p, Config{Workers: 1, QueueSize: 1})
	defer close(release)

	// Occupy the worker, then fill the single queue slot.
	if _, err := svc.Submit(context.Background(), validSubmit()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := svc.Submit(context.Background(), validSubmit()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := svc.Submit(context.Background(), validSubmit())
	if err == nil {
		t.Fatal("expected queue-full rejection")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.HTTPStatus != 503 {
		t.Errorf("expected 503 AppError, got %v", err)
	}

	// No orphan record: only the two accepted jobs remain.
	if store.Len() != 2 {
		t.Errorf("store has %d jobs, want 2", store.Len())
	}
}

func TestStatusUnknownJob(t *testing.T) {
	p := &fakeProvider{text: "x"}
	svc, _ := newTestService(t, p, Config{})

	_, err := svc.Status("never-submitted")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND AppError, got %v", err)
	}
}

func TestStatusReadsAreIdempotent(t *testing.T) {
	p := &fakeProvider{text: "stable"}
	svc, _ := newTestService(t, p, Config{})

	id, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	first := waitTerminal(t, svc, id)

	for i := 0; i < 10; i++ {
		again, err := svc.Status(id)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if again != first {
			t.Fatalf("read %d differed: %+v vs %+v", i, again, first)
		}
	}
}

func TestWorkerSkipsEvictedJob(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{text: "x", release: release}
	svc, store := newTestService(t, p, Config{Workers: 1, QueueSize: 4})
	defer close(release)

	// Hold the worker, enqueue another job, then delete it before it runs.
	if _, err := svc.Submit(context.Background(), validSubmit()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	id, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	store.Delete(id)
	// The worker finding no record must exit without effect; nothing to
	// assert beyond "no panic" and the record staying absent.
	time.Sleep(20 * time.Millisecond)
	if _, err := store.Get(id); !errors.Is(err, ErrNotFound) {
		t.Error("deleted job should stay absent")
	}
}

func TestJanitorSweep(t *testing.T) {
	p := &fakeProvider{text: "x"}
	svc, store := newTestService(t, p, Config{Retention: time.Hour})

	id, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitTerminal(t, svc, id)

	// Not yet past retention.
	svc.sweep()
	if _, err := svc.Status(id); err != nil {
		t.Fatal("job evicted before retention elapsed")
	}

	// Advance the service clock past the retention window.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	svc.sweep()
	if _, err := svc.Status(id); err == nil {
		t.Fatal("job should be evicted after retention")
	}
	if store.Len() != 0 {
		t.Errorf("store has %d jobs after sweep", store.Len())
	}
}

func TestNewJobIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewJobID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
