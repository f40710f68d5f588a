package queue

import (
	"errors"
	"sync"
	"testing"
)

func TestSerialPreservesOrder(t *testing.T) {
	s := NewSerial(4)
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		if err := s.Submit(func() error {
			got = append(got, i)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("position %d ran job %d", i, v)
		}
	}
	if len(got) != 100 {
		t.Fatalf("ran %d jobs", len(got))
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSerialStickyError(t *testing.T) {
	s := NewSerial(8)
	boom := errors.New("boom")
	ran := 0
	s.Submit(func() error { ran++; return nil })
	s.Submit(func() error { ran++; return boom })
	s.Submit(func() error { ran++; return nil })

	if err := s.Flush(); !errors.Is(err, boom) {
		t.Fatalf("Flush = %v, want boom", err)
	}
	if ran != 2 {
		t.Fatalf("jobs after the failure must be skipped, ran %d", ran)
	}
	if err := s.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close = %v, want boom", err)
	}
}

func TestSerialClosed(t *testing.T) {
	s := NewSerial(1)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal("second Close must be harmless")
	}
	if err := s.Submit(func() error { return nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("Submit after Close = %v", err)
	}
	if err := s.Flush(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Flush after Close = %v", err)
	}
}

func TestSerialConcurrentSubmitters(t *testing.T) {
	s := NewSerial(2)
	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Submit(func() error {
					mu.Lock()
					count++
					mu.Unlock()
					return nil
				})
			}
		}()
	}
	wg.Wait()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if count != 400 {
		t.Fatalf("count = %d", count)
	}
}
