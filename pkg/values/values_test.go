package values

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestSeededWithOwnValue(t *testing.T) {
	s := New(10)
	if got := s.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
	if got := s.Values(); got[0] != 10 {
		t.Fatalf("Values()[0] = %d, want 10", got[0])
	}
}

func TestAverage(t *testing.T) {
	rows := []struct {
		name  string
		seed  int64
		add   []int64
		want  int64
		count int
	}{
		{"scenario one", 10, []int64{5, 15}, 10, 3},
		{"single seed", 7, nil, 7, 1},
		{"truncates", 1, []int64{2}, 1, 2},
		{"truncates toward zero", -1 - 2, []int64{-4}, -3, 2},
		{"negative truncation", -5, []int64{2}, -1, 2},
		{"skips reserved", 4, []int64{0, -1, 8, 0}, 6, 2},
		{"no overflow", math.MaxInt64, []int64{math.MaxInt64}, math.MaxInt64, 2},
	}
	for _, r := range rows {
		s := New(r.seed)
		for _, v := range r.add {
			s.Append(v)
		}
		got, count, ok := s.Average()
		if !ok {
			t.Fatalf("%s: Average ok = false", r.name)
		}
		if got != r.want || count != r.count {
			t.Fatalf("%s: Average = (%d,%d), want (%d,%d)", r.name, got, count, r.want, r.count)
		}
	}
}

func TestAverageEmptyEligibleSet(t *testing.T) {
	for _, seed := range []int64{0, -1} {
		s := New(seed)
		s.Append(0)
		s.Append(-1)
		if _, _, ok := s.Average(); ok {
			t.Fatalf("Average ok = true with only reserved entries (seed %d)", seed)
		}
		// Asking again changes nothing.
		if _, _, ok := s.Average(); ok {
			t.Fatalf("second Average ok = true")
		}
		if got := s.Len(); got != 3 {
			t.Fatalf("Len = %d, want 3", got)
		}
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := New(1)
	want := []int64{1}
	for i := int64(2); i <= 50; i++ {
		s.Append(i * 3)
		want = append(want, i*3)

		got := s.Values()
		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("Values()[%d] = %d, want %d", j, got[j], want[j])
			}
		}
	}
}

func TestValuesReturnsCopy(t *testing.T) {
	s := New(3)
	got := s.Values()
	got[0] = 99
	if s.Values()[0] != 3 {
		t.Fatalf("mutating Values() result changed the set")
	}
}

func TestConcurrentAppendAndAverage(t *testing.T) {
	s := New(1)

	var wg sync.WaitGroup
	const G = 16
	const N = 500

	errCh := make(chan error, G)
	for i := 0; i < G; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < N; j++ {
				s.Append(1)
				avg, _, ok := s.Average()
				if !ok || avg != 1 {
					errCh <- fmt.Errorf("Average = %d,%v want 1,true", avg, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatalf("concurrency test failed: %v", err)
	}
	if got := s.Len(); got != 1+G*N {
		t.Fatalf("Len = %d, want %d", got, 1+G*N)
	}
}
