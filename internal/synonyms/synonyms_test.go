package synonyms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodway-ua/photoindex/internal/tokenizer"
)

func TestExpandKnownTerm(t *testing.T) {
	table := NewTable()

	got := table.Expand("oak")
	assert.True(t, got.Has("oak"))
	assert.True(t, got.Has("дуб"))
}

func TestExpandSymmetry(t *testing.T) {
	table := NewTable()

	// If A expands to B, a query in B's script must reach A.
	fromEnglish := table.Expand("veneer")
	require.True(t, fromEnglish.Has("шпон"))

	fromUkrainian := table.Expand("шпон")
	assert.True(t, fromUkrainian.Has("veneer"))
}

func TestExpandUnknownTokenIsSingleton(t *testing.T) {
	table := NewTable()

	got := table.Expand("mahogany")
	assert.Len(t, got, 1)
	assert.True(t, got.Has("mahogany"))
}

func TestExpandCoversTransliterations(t *testing.T) {
	table := NewTable()

	// The table registers ASCII transliterations of every Cyrillic member,
	// so a Latin-script query reaches the Cyrillic folder token.
	got := table.Expand("doshka")
	assert.True(t, got.Has("дошка"))
	assert.True(t, got.Has("board"))
}

func TestExpandSet(t *testing.T) {
	table := NewTable()

	got := table.ExpandSet(tokenizer.NewSet("pine", "unknown"))
	assert.True(t, got.Has("pine"))
	assert.True(t, got.Has("сосна"))
	assert.True(t, got.Has("unknown"))
}

func TestMergeFile(t *testing.T) {
	t.Run("overlay adds new class", func(t *testing.T) {
		table := NewTable()
		path := filepath.Join(t.TempDir(), "synonyms.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"ash": ["ясен"]}`), 0o644))

		require.NoError(t, table.MergeFile(path))
		got := table.Expand("ash")
		assert.True(t, got.Has("ясен"))
	})

	t.Run("overlay unions with existing class", func(t *testing.T) {
		table := NewTable()
		path := filepath.Join(t.TempDir(), "synonyms.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"oak": ["golden oak"]}`), 0o644))

		require.NoError(t, table.MergeFile(path))
		got := table.Expand("golden")
		assert.True(t, got.Has("дуб"))
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		table := NewTable()
		require.NoError(t, table.MergeFile(filepath.Join(t.TempDir(), "absent.json")))
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		table := NewTable()
		path := filepath.Join(t.TempDir(), "synonyms.json")
		require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
		assert.Error(t, table.MergeFile(path))
	})
}
