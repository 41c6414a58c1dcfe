package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakePurger struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePurger) Purge() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 2
}

func (f *fakePurger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePhotoIndex struct {
	photos []string
	err    error
}

func (f *fakePhotoIndex) ListProfilePhotos(context.Context) ([]string, error) {
	return f.photos, f.err
}

type fakeUploads struct {
	orphans    []string
	referenced []string
	removed    []string
	removeErr  map[string]error
}

func (f *fakeUploads) Orphans(referenced []string, minAge time.Duration) ([]string, error) {
	f.referenced = referenced
	return f.orphans, nil
}

func (f *fakeUploads) Remove(relPath string) error {
	if err := f.removeErr[relPath]; err != nil {
		return err
	}
	f.removed = append(f.removed, relPath)
	return nil
}

func TestRunOnce(t *testing.T) {
	purger := &fakePurger{}
	index := &fakePhotoIndex{photos: []string{"uploads/keep.png"}}
	uploads := &fakeUploads{orphans: []string{"uploads/a.png", "uploads/b.png"}}

	cm := NewCleanupManager(purger, index, uploads, slog.Default())
	results, err := cm.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Removed != 2 || !results[0].Success {
		t.Errorf("Unexpected session purge result: %+v", results[0])
	}
	if results[1].Removed != 2 || !results[1].Success {
		t.Errorf("Unexpected sweep result: %+v", results[1])
	}
	if !reflect.DeepEqual(uploads.referenced, index.photos) {
		t.Errorf("Expected referenced photos to be passed through, got %v", uploads.referenced)
	}
	if !reflect.DeepEqual(uploads.removed, uploads.orphans) {
		t.Errorf("Expected orphans removed, got %v", uploads.removed)
	}
}

func TestRunOnce_WithoutSessionPurger(t *testing.T) {
	cm := NewCleanupManager(nil, &fakePhotoIndex{}, &fakeUploads{}, slog.Default())

	results, err := cm.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(results) != 1 || results[0].Step != "Sweep orphaned uploads" {
		t.Errorf("Expected only the upload sweep, got %+v", results)
	}
}

func TestRunOnce_ContinuesPastFailures(t *testing.T) {
	purger := &fakePurger{}
	uploads := &fakeUploads{
		orphans:   []string{"uploads/a.png", "uploads/b.png"},
		removeErr: map[string]error{"uploads/a.png": errors.New("permission denied")},
	}

	cm := NewCleanupManager(purger, &fakePhotoIndex{}, uploads, slog.Default())
	results, err := cm.RunOnce(context.Background())
	if err == nil {
		t.Fatal("Expected an error")
	}

	if !results[0].Success {
		t.Error("Session purge should succeed")
	}
	if results[1].Success || results[1].Removed != 1 {
		t.Errorf("Expected partial sweep, got %+v", results[1])
	}
	if !reflect.DeepEqual(uploads.removed, []string{"uploads/b.png"}) {
		t.Errorf("Expected remaining orphan removed, got %v", uploads.removed)
	}
}

func TestRunOnce_IndexFailure(t *testing.T) {
	uploads := &fakeUploads{orphans: []string{"uploads/a.png"}}
	cm := NewCleanupManager(nil, &fakePhotoIndex{err: errors.New("db down")}, uploads, slog.Default())

	if _, err := cm.RunOnce(context.Background()); err == nil {
		t.Fatal("Expected an error")
	}
	if len(uploads.removed) != 0 {
		t.Errorf("Nothing may be removed when the index is unavailable, got %v", uploads.removed)
	}
}

func TestStartStop(t *testing.T) {
	purger := &fakePurger{}
	cm := NewCleanupManager(purger, nil, nil, slog.Default())

	if err := cm.Start("@every 1s"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := cm.Start("@every 1s"); err == nil {
		t.Error("Expected second Start to fail")
	}

	deadline := time.Now().Add(5 * time.Second)
	for purger.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if purger.Calls() == 0 {
		t.Error("Expected scheduled cleanup to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	cm.Stop(ctx)
	cm.Stop(ctx)
}

func TestStart_InvalidSchedule(t *testing.T) {
	cm := NewCleanupManager(nil, nil, nil, slog.Default())
	if err := cm.Start("not a schedule"); err == nil {
		t.Error("Expected invalid schedule error")
	}
}
