package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order; when none occurs the text is cut
// into fixed windows.
var DefaultSeparators = []string{"\n\n", "\n", " "}

// RecursiveSplitter splits text at the most preferred separator present,
// merges the pieces back up to the size limit with trailing overlap, and
// recurses into pieces that are still too large. Lengths are in runes.
type RecursiveSplitter struct {
	size       int
	overlap    int
	separators []string
}

// SplitterOption configures a RecursiveSplitter.
type SplitterOption func(*RecursiveSplitter)

// WithChunkSize sets the target chunk size.
func WithChunkSize(size int) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.size = size
	}
}

// WithChunkOverlap sets how much trailing text is repeated in the next chunk.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.overlap = overlap
	}
}

// WithSeparators replaces the separator preference list.
func WithSeparators(seps ...string) SplitterOption {
	return func(s *RecursiveSplitter) {
		s.separators = seps
	}
}

// NewRecursiveSplitter creates a splitter with defaults 1000/200.
func NewRecursiveSplitter(opts ...SplitterOption) (*RecursiveSplitter, error) {
	s := &RecursiveSplitter{
		size:       DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", s.size)
	}
	if s.overlap < 0 || s.overlap >= s.size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", s.size, s.overlap)
	}
	for _, sep := range s.separators {
		if sep == "" {
			return nil, fmt.Errorf("separators must be non-empty")
		}
	}
	return s, nil
}

// Size returns the configured chunk size.
func (s *RecursiveSplitter) Size() int { return s.size }

// Overlap returns the configured overlap.
func (s *RecursiveSplitter) Overlap() int { return s.overlap }

// Split returns the pieces of text in source order. Blank input yields nil.
func (s *RecursiveSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, seps []string) []string {
	sep, rest, found := "", []string(nil), false
	for i, candidate := range seps {
		if strings.Contains(text, candidate) {
			sep, rest, found = candidate, seps[i+1:], true
			break
		}
	}
	if !found {
		return s.hardCut(text)
	}

	var out, small []string
	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if runeLen(piece) < s.size {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			out = append(out, s.merge(small, sep)...)
			small = nil
		}
		out = append(out, s.split(piece, rest)...)
	}
	if len(small) > 0 {
		out = append(out, s.merge(small, sep)...)
	}
	return out
}

// merge packs pieces into chunks of at most size runes. When a chunk is
// emitted, pieces are dropped from its front until at most overlap runes
// remain; those lead the next chunk.
func (s *RecursiveSplitter) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	joinCost := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var docs, current []string
	total := 0
	for _, p := range pieces {
		l := runeLen(p)
		if len(current) > 0 && total+l+joinCost(len(current)) > s.size {
			if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
				docs = append(docs, doc)
			}
			for total > 0 && (total > s.overlap || total+l+joinCost(len(current)) > s.size) {
				total -= runeLen(current[0]) + joinCost(len(current)-1)
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l + joinCost(len(current)-1)
	}
	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// hardCut slices separator-free text into windows of size runes that start
// size-overlap apart. n runes give ceil((n-overlap)/(size-overlap)) windows
// when n > overlap.
func (s *RecursiveSplitter) hardCut(text string) []string {
	runes := []rune(text)
	step := s.size - s.overlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		if piece := string(runes[start:end]); strings.TrimSpace(piece) != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
