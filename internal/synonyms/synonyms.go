// Package synonyms holds the static cross-language term table used to bridge
// English, Ukrainian, and transliterated queries against the indexed folder
// names. The table is built once at startup and read-only afterwards.
package synonyms

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/woodway-ua/photoindex/internal/tokenizer"
)

// groups seeds the table. Each row is one equivalence class: wood species,
// material terms, and brand-name variants as they appear on the share.
var groups = [][]string{
	{"oak", "дуб"},
	{"acacia", "акация", "акація"},
	{"beech", "бук"},
	{"hornbeam", "граб"},
	{"pine", "сосна"},
	{"cherry", "черешня"},
	{"maple", "клен"},
	{"birch", "береза"},
	{"alder", "вільха"},
	{"pear", "груша"},
	{"apple", "ябл"},
	{"mulberry", "шовковиця"},
	{"seiba", "сейба", "samba"},
	{"board", "дошка", "panel", "щит"},
	{"veneer", "шпон"},
	{"lamella", "ламель"},
	{"plywood", "фанера"},
	{"chipboard", "дсп", "particleboard"},
	{"mdf", "мдф"},
	{"beam", "брус"},
	{"stock", "сток", "склад"},
	{"woodway", "ww"},
	{"baykal", "байкал"},
}

// Table maps a normalised token to its full equivalence class. Lookup is
// exact-match and O(1); membership is symmetric by construction.
type Table struct {
	classes map[string]tokenizer.Set
}

// NewTable builds the seed table. Every member of a group, plus its ASCII
// transliteration, resolves to the same class.
func NewTable() *Table {
	t := &Table{classes: make(map[string]tokenizer.Set)}
	for _, group := range groups {
		t.register(group)
	}
	return t
}

// MergeFile overlays an optional JSON synonym file of the form
// {"term": ["variant", ...], ...} onto the seed table. A missing file is not
// an error; a malformed one is.
func (t *Table) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading synonym file %s: %w", path, err)
	}
	var overlay map[string][]string
	if err := json.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing synonym file %s: %w", path, err)
	}
	for base, variants := range overlay {
		t.register(append([]string{base}, variants...))
	}
	return nil
}

// register merges one equivalence class into the table, unioning with any
// classes its members already belong to.
func (t *Table) register(group []string) {
	class := make(tokenizer.Set)
	for _, raw := range group {
		for token := range tokenizer.Normalize(raw) {
			class.Add(token)
			if existing, ok := t.classes[token]; ok {
				for member := range existing {
					class.Add(member)
				}
			}
		}
	}
	for member := range class {
		t.classes[member] = class
	}
}

// Expand returns the token plus every registered synonym. Unknown tokens
// expand to themselves; absence is not an error.
func (t *Table) Expand(token string) tokenizer.Set {
	if class, ok := t.classes[token]; ok {
		out := make(tokenizer.Set, len(class)+1)
		out.Add(token)
		for member := range class {
			out.Add(member)
		}
		return out
	}
	return tokenizer.NewSet(token)
}

// ExpandSet expands every member of a token set and unions the results.
func (t *Table) ExpandSet(tokens tokenizer.Set) tokenizer.Set {
	out := make(tokenizer.Set, len(tokens)*2)
	for token := range tokens {
		for member := range t.Expand(token) {
			out.Add(member)
		}
	}
	return out
}

// Len reports the number of distinct tokens with a registered class.
func (t *Table) Len() int {
	return len(t.classes)
}
