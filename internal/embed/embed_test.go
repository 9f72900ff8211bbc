package embed

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// fakeEmbedder returns one-hot vectors and fails texts listed in failOn.
type fakeEmbedder struct {
	dims   int
	failOn map[string]int // text -> remaining failures; <0 fails forever
	failErr error         // returned for failOn texts when set

	mu    sync.Mutex
	calls [][]string
}

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{dims: dims, failOn: map[string]int{}}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), texts...))

	for _, t := range texts {
		if n, ok := f.failOn[t]; ok && n != 0 {
			if n > 0 {
				f.failOn[t] = n - 1
			}
			if f.failErr != nil {
				return nil, f.failErr
			}
			return nil, errors.New("provider unavailable for " + t)
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, f.dims)
		v[len(t)%f.dims] = 1
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return f.dims }
func (f *fakeEmbedder) ModelName() string { return "fake" }
func (f *fakeEmbedder) Close() error      { return nil }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEmbedder) textsSent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += len(c)
	}
	return n
}

func (f *fakeEmbedder) joinedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(c, "+")
	}
	return out
}
