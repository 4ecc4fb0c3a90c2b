package cluster

import "strings"

// DefaultThreshold is the Jaccard similarity at or above which two distinct
// sentences are merged into one cluster.
const DefaultThreshold = 0.7

type Occurrence struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Page     int    `json:"page"`
}

type Cluster struct {
	Representative string       `json:"representative"`
	Occurrences    []Occurrence `json:"occurrences"`
}

// Index maps normalized text to its occurrences and remembers the order in
// which each text was first added. Build depends on that order.
type Index struct {
	keys []string
	locs map[string][]Occurrence
}

func NewIndex() *Index {
	return &Index{locs: map[string][]Occurrence{}}
}

func (ix *Index) Add(o Occurrence) {
	if _, ok := ix.locs[o.Text]; !ok {
		ix.keys = append(ix.keys, o.Text)
	}
	ix.locs[o.Text] = append(ix.locs[o.Text], o)
}

// Keys returns the distinct texts in first-insertion order.
func (ix *Index) Keys() []string {
	return ix.keys
}

func (ix *Index) Locations(text string) []Occurrence {
	return ix.locs[text]
}

func (ix *Index) Len() int {
	return len(ix.keys)
}

// Processed is the set of texts already placed in a cluster.
type Processed map[string]struct{}

func (p Processed) Has(text string) bool {
	_, ok := p[text]
	return ok
}

func (p Processed) mark(text string) {
	p[text] = struct{}{}
}

// Build groups the index into duplicate clusters. Texts seen more than once
// form a cluster on their own. A text seen once seeds a candidate that absorbs
// every other unprocessed text whose similarity to the seed reaches threshold;
// absorbed texts are never compared with each other. processed may
// be nil; the final marker set is returned alongside the clusters.
func Build(ix *Index, threshold float64, processed Processed) ([]Cluster, Processed) {
	if processed == nil {
		processed = Processed{}
	}

	var out []Cluster
	for _, text := range ix.keys {
		if processed.Has(text) {
			continue
		}
		locs := ix.locs[text]
		if len(locs) > 1 {
			out = append(out, Cluster{Representative: text, Occurrences: cloneOccurrences(locs)})
			processed.mark(text)
			continue
		}

		candidate := cloneOccurrences(locs)
		for _, other := range ix.keys {
			if other == text || processed.Has(other) {
				continue
			}
			if Similar(text, other, threshold) {
				candidate = append(candidate, ix.locs[other]...)
				processed.mark(other)
			}
		}
		if len(candidate) > len(locs) {
			out = append(out, Cluster{Representative: text, Occurrences: candidate})
			processed.mark(text)
		}
	}
	return out, processed
}

// Find indexes occurrences in order and builds clusters with threshold.
func Find(occurrences []Occurrence, threshold float64) []Cluster {
	ix := NewIndex()
	for _, o := range occurrences {
		ix.Add(o)
	}
	clusters, _ := Build(ix, threshold, nil)
	return clusters
}

// Jaccard returns the word-set overlap of a and b, or 0 when either has no
// words.
func Jaccard(a, b string) float64 {
	j, _ := jaccard(a, b)
	return j
}

// Similar reports whether a and b reach threshold. An empty word set never
// matches, not even another empty one.
func Similar(a, b string, threshold float64) bool {
	j, ok := jaccard(a, b)
	return ok && j >= threshold
}

// jaccard builds each word set once; ok is false when either set is empty.
func jaccard(a, b string) (float64, bool) {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0, false
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union), true
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func cloneOccurrences(in []Occurrence) []Occurrence {
	out := make([]Occurrence, len(in))
	copy(out, in)
	return out
}
