package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Word sets chosen so that sim(a,b) and sim(b,c) are 9/11 while sim(a,c) is
// 8/12.
const (
	simA = "a b c d e f g h i j"
	simB = "a b c d e f g h i k"
	simC = "a b c d e f g h k l"
)

func occ(text, file string, page int) Occurrence {
	return Occurrence{Text: text, Filename: file, Page: page}
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 0.5, Jaccard("a b c", "a b d"), 1e-9)
	assert.InDelta(t, 1.0, Jaccard("a b a", "b a"), 1e-9)
	assert.InDelta(t, 9.0/11.0, Jaccard(simA, simB), 1e-9)
	assert.InDelta(t, 9.0/11.0, Jaccard(simB, simC), 1e-9)
	assert.InDelta(t, 8.0/12.0, Jaccard(simA, simC), 1e-9)
	assert.Zero(t, Jaccard("", "a b"))
}

func TestSimilarEmptyNeverMatches(t *testing.T) {
	assert.False(t, Similar("", "", 0))
	assert.False(t, Similar("   ", "a", 0.1))
	assert.True(t, Similar("a b", "a b", 1))
	assert.False(t, Similar("a b", "\t\n", 0), "zero threshold still needs words on both sides")
	assert.True(t, Similar("a b", "c d", 0))
}

func TestIndexKeepsInsertionOrder(t *testing.T) {
	ix := NewIndex()
	for _, o := range []Occurrence{
		occ("zulu", "A", 1),
		occ("alpha", "A", 1),
		occ("zulu", "B", 2),
		occ("mike", "B", 3),
	} {
		ix.Add(o)
	}
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, ix.Keys())
	assert.Equal(t, 3, ix.Len())
	assert.Len(t, ix.Locations("zulu"), 2)
}

func TestExactDuplicates(t *testing.T) {
	s := "this is a test document for duplicate detection"
	clusters := Find([]Occurrence{
		occ(s, "A", 1),
		occ("completely unrelated words here", "A", 1),
		occ(s, "B", 2),
		occ(s, "B", 5),
	}, DefaultThreshold)

	require.Len(t, clusters, 1)
	assert.Equal(t, s, clusters[0].Representative)
	assert.Equal(t, []Occurrence{occ(s, "A", 1), occ(s, "B", 2), occ(s, "B", 5)}, clusters[0].Occurrences)
}

func TestNearDuplicateThreshold(t *testing.T) {
	a := "the quick brown fox jumps over the lazy dog"
	b := "the quick brown fox jumps over the lazy cat"
	c := "the quick brown fox sleeps under the lazy cat"

	clusters := Find([]Occurrence{occ(a, "A", 1), occ(b, "B", 1)}, DefaultThreshold)
	require.Len(t, clusters, 1)
	assert.Equal(t, a, clusters[0].Representative)
	assert.Len(t, clusters[0].Occurrences, 2)

	clusters = Find([]Occurrence{occ(a, "A", 1), occ(c, "B", 1)}, DefaultThreshold)
	assert.Empty(t, clusters)
}

func TestGreedyClusteringIsNotTransitive(t *testing.T) {
	ix := NewIndex()
	ix.Add(occ(simA, "A", 1))
	ix.Add(occ(simB, "A", 2))
	ix.Add(occ(simC, "A", 3))

	clusters, processed := Build(ix, DefaultThreshold, nil)

	require.Len(t, clusters, 1)
	assert.Equal(t, simA, clusters[0].Representative)
	assert.Equal(t, []Occurrence{occ(simA, "A", 1), occ(simB, "A", 2)}, clusters[0].Occurrences)
	assert.True(t, processed.Has(simA))
	assert.True(t, processed.Has(simB))
	assert.False(t, processed.Has(simC), "C is compared with A only and stays unreported")
}

func TestGreedyClusteringDependsOnOrder(t *testing.T) {
	clusters := Find([]Occurrence{
		occ(simB, "A", 1),
		occ(simA, "A", 2),
		occ(simC, "A", 3),
	}, DefaultThreshold)

	require.Len(t, clusters, 1)
	assert.Equal(t, simB, clusters[0].Representative)
	assert.Len(t, clusters[0].Occurrences, 3)
}

func TestSingletonSeedAbsorbsExactGroup(t *testing.T) {
	clusters := Find([]Occurrence{
		occ(simA, "A", 1),
		occ(simB, "B", 1),
		occ(simB, "C", 1),
	}, DefaultThreshold)

	require.Len(t, clusters, 1)
	assert.Equal(t, simA, clusters[0].Representative)
	assert.Equal(t, []Occurrence{occ(simA, "A", 1), occ(simB, "B", 1), occ(simB, "C", 1)}, clusters[0].Occurrences)
}

func TestAllOccurrencesOfATextStayTogether(t *testing.T) {
	occurrences := []Occurrence{
		occ(simA, "A", 1),
		occ(simC, "A", 2),
		occ(simB, "B", 1),
		occ(simC, "B", 2),
		occ(simA, "C", 9),
	}
	clusters := Find(occurrences, DefaultThreshold)

	where := map[string]int{}
	for i, c := range clusters {
		for _, o := range c.Occurrences {
			if prev, ok := where[o.Text]; ok {
				assert.Equal(t, prev, i, "text %q split across clusters", o.Text)
			}
			where[o.Text] = i
		}
	}
	assert.Len(t, clusters, 2)
	assert.NotContains(t, where, simB, "a seed that finds nothing unprocessed is dropped")
}

func TestUnmatchedSingletonIsDropped(t *testing.T) {
	clusters, processed := Build(func() *Index {
		ix := NewIndex()
		ix.Add(occ("only once in the whole batch", "A", 1))
		return ix
	}(), DefaultThreshold, Processed{})

	assert.Empty(t, clusters)
	assert.Empty(t, processed)
}

func TestBuildHonoursPreprocessed(t *testing.T) {
	ix := NewIndex()
	ix.Add(occ(simA, "A", 1))
	ix.Add(occ(simB, "B", 1))

	clusters, _ := Build(ix, DefaultThreshold, Processed{simB: {}})

	assert.Empty(t, clusters)
}
