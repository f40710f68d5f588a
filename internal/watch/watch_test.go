package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFollowReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, 10*time.Millisecond, func() error {
			calls <- struct{}{}
			return nil
		})
	}()

	select {
	case <-calls:
	case <-ctx.Done():
		t.Fatal("no initial call")
	}

	if err := os.WriteFile(path, []byte("line\n"), 0600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-calls:
	case <-ctx.Done():
		t.Fatal("no call after write")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow = %v", err)
	}
}

func TestFollowIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := make(chan struct{}, 16)
	go Follow(ctx, path, 10*time.Millisecond, func() error {
		calls <- struct{}{}
		return nil
	})
	<-calls

	os.WriteFile(filepath.Join(dir, "other.log"), []byte("x"), 0600)
	select {
	case <-calls:
		t.Fatal("change to another file reported")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFollowStopsOnCallbackError(t *testing.T) {
	boom := errors.New("boom")
	err := Follow(context.Background(), filepath.Join(t.TempDir(), "x.log"), time.Millisecond, func() error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Follow = %v", err)
	}
}
