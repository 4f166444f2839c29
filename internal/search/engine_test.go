package search

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodway-ua/photoindex/internal/index"
	"github.com/woodway-ua/photoindex/internal/synonyms"
	"github.com/woodway-ua/photoindex/internal/tokenizer"
)

func newTestEngine(opts Options) *Engine {
	return New(synonyms.NewTable(), index.DefaultVocabulary(), opts)
}

// record builds an index record the way the scanner would: tokens derived
// from the relative path, expanded through the synonym table.
func record(rel string, table *synonyms.Table, vocab index.Vocabulary) index.Record {
	tokens := table.ExpandSet(tokenizer.Normalize(rel))
	return index.Record{
		Path:    "/share/" + rel,
		Tokens:  tokens,
		IsStock: tokens.Intersects(vocab.Stock),
		IsBrand: tokens.Intersects(vocab.Brand),
		IsLogo:  tokens.Intersects(vocab.Logo),
	}
}

func snapshotOf(rels ...string) *index.Snapshot {
	table := synonyms.NewTable()
	vocab := index.DefaultVocabulary()
	snap := &index.Snapshot{BuiltAt: time.Now()}
	for _, rel := range rels {
		snap.Records = append(snap.Records, record(rel, table, vocab))
	}
	return snap
}

func paths(matches []index.Record) []string {
	out := make([]string, 0, len(matches))
	for _, rec := range matches {
		out = append(out, rec.Path)
	}
	return out
}

func TestSearchStockExcludedByDefault(t *testing.T) {
	snap := snapshotOf(
		"Stock/background.jpg",
		"Backgrounds/background.jpg",
	)
	engine := newTestEngine(Options{})

	res := engine.Search([]string{"background"}, snap)
	require.Len(t, res.Keywords, 1)
	kw := res.Keywords[0]
	assert.False(t, kw.WantsStock)
	assert.Equal(t, []string{"/share/Backgrounds/background.jpg"}, paths(kw.Matches))
}

func TestSearchStockIncludedForStockQuery(t *testing.T) {
	snap := snapshotOf(
		"Stock/background.jpg",
		"Backgrounds/background.jpg",
	)
	engine := newTestEngine(Options{})

	res := engine.Search([]string{"stock"}, snap)
	require.Len(t, res.Keywords, 1)
	kw := res.Keywords[0]
	assert.True(t, kw.WantsStock)
	assert.Equal(t, []string{"/share/Stock/background.jpg"}, paths(kw.Matches))
}

func TestSearchLogoOnlyForBrandQueries(t *testing.T) {
	snap := snapshotOf(
		"WoodWay/logo.png",
		"WoodWay/oak_board.jpg",
	)
	engine := newTestEngine(Options{})

	t.Run("non-brand query excludes logo", func(t *testing.T) {
		res := engine.Search([]string{"oak"}, snap)
		kw := res.Keywords[0]
		assert.False(t, kw.WantsBrand)
		assert.Equal(t, []string{"/share/WoodWay/oak_board.jpg"}, paths(kw.Matches))
	})

	t.Run("brand query includes logo", func(t *testing.T) {
		res := engine.Search([]string{"woodway"}, snap)
		kw := res.Keywords[0]
		assert.True(t, kw.WantsBrand)
		assert.Equal(t, 2, kw.Candidates)
		assert.ElementsMatch(t,
			[]string{"/share/WoodWay/logo.png", "/share/WoodWay/oak_board.jpg"},
			paths(kw.Matches),
		)
	})
}

func TestSearchCrossLanguageMatch(t *testing.T) {
	snap := snapshotOf(
		"Дошка/oak.jpg",
		"Дошка/pine.jpg",
		"Фанера/oak.jpg",
	)
	engine := newTestEngine(Options{})

	t.Run("english synonym reaches cyrillic folder", func(t *testing.T) {
		res := engine.Search([]string{"board"}, snap)
		assert.ElementsMatch(t,
			[]string{"/share/Дошка/oak.jpg", "/share/Дошка/pine.jpg"},
			paths(res.Keywords[0].Matches),
		)
	})

	t.Run("transliterated query reaches cyrillic folder", func(t *testing.T) {
		res := engine.Search([]string{"doshka"}, snap)
		assert.Equal(t, 2, res.Keywords[0].Candidates)
	})

	t.Run("latin filename matches regardless of folder script", func(t *testing.T) {
		res := engine.Search([]string{"oak"}, snap)
		assert.ElementsMatch(t,
			[]string{"/share/Дошка/oak.jpg", "/share/Фанера/oak.jpg"},
			paths(res.Keywords[0].Matches),
		)
	})
}

func TestSearchBrandTierFirst(t *testing.T) {
	rels := []string{
		"WoodWay/board_1.jpg",
		"WoodWay/board_2.jpg",
		"Generic/board_3.jpg",
		"Generic/board_4.jpg",
		"Generic/board_5.jpg",
		"Generic/board_6.jpg",
	}
	snap := snapshotOf(rels...)
	engine := newTestEngine(Options{ResultsPerKeyword: 4})

	// The keyword carries both a brand term and a material term, so the two
	// WoodWay records form the preferred tier and must always lead.
	for i := 0; i < 10; i++ {
		res := engine.Search([]string{"woodway board"}, snap)
		kw := res.Keywords[0]
		require.True(t, kw.WantsBrand)
		require.Equal(t, 6, kw.Candidates)
		require.Len(t, kw.Matches, 4)
		assert.ElementsMatch(t,
			[]string{"/share/WoodWay/board_1.jpg", "/share/WoodWay/board_2.jpg"},
			paths(kw.Matches[:2]),
		)
	}
}

func TestSearchSampleCapAndVariance(t *testing.T) {
	rels := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		rels = append(rels, fmt.Sprintf("oak/photo_%02d.jpg", i))
	}
	snap := snapshotOf(rels...)
	engine := newTestEngine(Options{ResultsPerKeyword: 5})

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		res := engine.Search([]string{"oak"}, snap)
		kw := res.Keywords[0]
		require.Len(t, kw.Matches, 5)
		require.Equal(t, 12, kw.Candidates)

		unique := make(map[string]struct{})
		for _, p := range paths(kw.Matches) {
			unique[p] = struct{}{}
			seen[p] = struct{}{}
		}
		require.Len(t, unique, 5, "sample must be without replacement")
	}
	// 50 draws of 5 from 12 collectively cover every candidate with
	// overwhelming probability.
	assert.Len(t, seen, 12)
}

func TestSearchTooBroad(t *testing.T) {
	rels := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		rels = append(rels, fmt.Sprintf("pine/photo_%d.jpg", i))
	}
	snap := snapshotOf(rels...)
	engine := newTestEngine(Options{ResultsPerKeyword: 5, BroadThreshold: 5})

	res := engine.Search([]string{"pine"}, snap)
	kw := res.Keywords[0]
	assert.True(t, kw.TooBroad)
	assert.Equal(t, 6, kw.Candidates)
	assert.Empty(t, kw.Matches)
}

func TestSearchNoCrossKeywordDedup(t *testing.T) {
	snap := snapshotOf("Дуб/oak_board.jpg")
	engine := newTestEngine(Options{})

	res := engine.Search([]string{"oak", "board"}, snap)
	require.Len(t, res.Keywords, 2)
	assert.Equal(t, []string{"/share/Дуб/oak_board.jpg"}, paths(res.Keywords[0].Matches))
	assert.Equal(t, []string{"/share/Дуб/oak_board.jpg"}, paths(res.Keywords[1].Matches))
	assert.Equal(t, 2, res.Selected())
}

func TestSearchZeroMatchesIsNotAnError(t *testing.T) {
	snap := snapshotOf("oak/photo.jpg")
	engine := newTestEngine(Options{})

	res := engine.Search([]string{"mahogany"}, snap)
	kw := res.Keywords[0]
	assert.Empty(t, kw.Matches)
	assert.Zero(t, kw.Candidates)
	assert.False(t, kw.TooBroad)
}

func TestSearchNilSnapshot(t *testing.T) {
	engine := newTestEngine(Options{})
	res := engine.Search([]string{"oak"}, nil)
	assert.Empty(t, res.Keywords)
	assert.Zero(t, res.Selected())
}
