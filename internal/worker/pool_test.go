package worker

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/ports"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type recordingStore struct {
	mu       sync.Mutex
	energies map[string]float64
}

func (m *recordingStore) SaveRecommendation(ctx context.Context, rec ports.SavedRecommendation) error {
	return nil
}

func (m *recordingStore) UpsertUserTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	return nil
}

func (m *recordingStore) RecordPreviewEnergy(ctx context.Context, trackKey string, energy float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.energies == nil {
		m.energies = make(map[string]float64)
	}
	m.energies[trackKey] = energy
	return nil
}

func withStubAnalyzer(t *testing.T, fn func(string) (float64, error)) {
	t.Helper()
	orig := AnalyzePreviewFunc
	AnalyzePreviewFunc = fn
	t.Cleanup(func() { AnalyzePreviewFunc = orig })
}

func TestPool_ProcessesJobs(t *testing.T) {
	withStubAnalyzer(t, func(url string) (float64, error) { return 0.75, nil })

	store := &recordingStore{}
	pool := NewPool(store, 10, testLogger())
	pool.Start(2)

	pool.Submit(Job{TrackKey: "a|one", PreviewURL: "https://cdn.example.com/1.mp3"})
	pool.Submit(Job{TrackKey: "b|two", PreviewURL: "https://cdn.example.com/2.mp3"})
	pool.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.energies) != 2 {
		t.Fatalf("expected 2 analyzed tracks, got %d", len(store.energies))
	}
	if store.energies["a|one"] != 0.75 {
		t.Fatalf("unexpected energy %f", store.energies["a|one"])
	}
}

func TestPool_SkipsEmptyPreview(t *testing.T) {
	called := false
	withStubAnalyzer(t, func(url string) (float64, error) {
		called = true
		return 0, nil
	})

	pool := NewPool(&recordingStore{}, 10, testLogger())
	pool.Start(1)
	pool.Submit(Job{TrackKey: "a|one"})
	pool.Stop()

	if called {
		t.Fatal("analyzer must not run without a preview url")
	}
}

func TestPool_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	block := make(chan struct{})
	withStubAnalyzer(t, func(url string) (float64, error) {
		<-block
		return 0, nil
	})

	pool := NewPool(&recordingStore{}, 1, testLogger())
	pool.Start(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			pool.Submit(Job{TrackKey: "k", PreviewURL: "https://cdn.example.com/x.mp3"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submit blocked on a full queue")
	}
	close(block)
	pool.Stop()
}
