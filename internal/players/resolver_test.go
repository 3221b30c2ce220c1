package players

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Justin Jefferson", "justin jefferson"},
		{"  Justin   Jefferson ", "justin jefferson"},
		{"Odell Beckham Jr.", "odell beckham"},
		{"Frank Gore Sr.", "frank gore"},
		{"A.J. Brown", "aj brown"},
		{"D'Andre Swift", "dandre swift"},
		{"Ja'Marr Chase", "jamarr chase"},
		{"Amon-Ra St. Brown", "amon ra st brown"},
		{"JOSÉ RAMÍREZ", "jose ramirez"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type countingFetcher struct {
	calls atomic.Int64
	gate  chan struct{} // optional: holds fetches open
	infos map[string]Info
}

func (f *countingFetcher) PlayerByID(_ context.Context, id string) (Info, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	info, ok := f.infos[id]
	if !ok {
		return Info{}, errors.New("not found")
	}
	return info, nil
}

func TestResolveCachesAfterFirstFetch(t *testing.T) {
	f := &countingFetcher{infos: map[string]Info{
		"4362238": {ID: "4362238", FullName: "Justin Jefferson", Position: "WR", ProTeam: "MIN"},
	}}
	r := NewResolver(f)

	for i := 0; i < 3; i++ {
		info, err := r.Resolve(context.Background(), "4362238")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if info.FullName != "Justin Jefferson" {
			t.Fatalf("FullName = %q", info.FullName)
		}
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("upstream fetched %d times, want 1", n)
	}
	if id, ok := r.IDByName("justin jefferson"); !ok || id != "4362238" {
		t.Fatalf("IDByName = %q, %v", id, ok)
	}
}

func TestConcurrentResolvesCollapse(t *testing.T) {
	f := &countingFetcher{
		gate:  make(chan struct{}),
		infos: map[string]Info{"1": {ID: "1", FullName: "Bijan Robinson"}},
	}
	r := NewResolver(f)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(context.Background(), "1"); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}()
	}
	close(f.gate)
	wg.Wait()

	if n := f.calls.Load(); n != 1 {
		t.Fatalf("upstream fetched %d times for one id, want 1", n)
	}
}

func TestPrimeSkipsUpstream(t *testing.T) {
	f := &countingFetcher{infos: map[string]Info{}}
	r := NewResolver(f)
	r.Prime([]Info{{ID: "2", FullName: "Saquon Barkley", Position: "RB"}})

	info, err := r.Resolve(context.Background(), "2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.FullName != "Saquon Barkley" {
		t.Fatalf("FullName = %q", info.FullName)
	}
	if f.calls.Load() != 0 {
		t.Fatal("primed lookup hit upstream")
	}
	if id, ok := r.IDByName("Saquon Barkley"); !ok || id != "2" {
		t.Fatalf("IDByName = %q, %v", id, ok)
	}
}

func TestResolveErrorNotCached(t *testing.T) {
	f := &countingFetcher{infos: map[string]Info{}}
	r := NewResolver(f)

	if _, err := r.Resolve(context.Background(), "404"); err == nil {
		t.Fatal("Resolve succeeded for unknown id")
	}
	if r.Cached() != 0 {
		t.Fatal("failed lookup was cached")
	}
	if _, err := r.Resolve(context.Background(), "404"); err == nil {
		t.Fatal("second Resolve succeeded")
	}
	if f.calls.Load() != 2 {
		t.Fatalf("upstream fetched %d times, want 2 (errors not cached)", f.calls.Load())
	}
}
