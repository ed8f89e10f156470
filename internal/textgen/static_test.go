package textgen

import (
	"context"
	"sync"
	"testing"
)

func TestStaticGeneratorCycles(t *testing.T) {
	g := NewStaticGenerator("one", "two")

	want := []string{"one", "two", "one"}
	for i, w := range want {
		got, err := g.Generate(context.Background(), "ignored")
		if err != nil {
			t.Fatalf("Generate #%d: %v", i, err)
		}
		if got != w {
			t.Errorf("Generate #%d = %q, want %q", i, got, w)
		}
	}
}

func TestStaticGeneratorConcurrent(t *testing.T) {
	g := NewStaticGenerator("one", "two", "three")
	valid := map[string]bool{"one": true, "two": true, "three": true}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var got []string
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				line, err := g.Generate(context.Background(), "prompt")
				if err != nil {
					t.Errorf("Generate: %v", err)
					return
				}
				mu.Lock()
				got = append(got, line)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(got) != 60 {
		t.Fatalf("lines = %d, want 60", len(got))
	}
	for _, line := range got {
		if !valid[line] {
			t.Fatalf("unexpected line %q", line)
		}
	}
}

func TestStaticGeneratorEmpty(t *testing.T) {
	g := NewStaticGenerator()
	got, err := g.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "" {
		t.Errorf("Generate = %q, want empty", got)
	}
}
