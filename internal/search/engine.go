// Package search implements the per-keyword matching, filtering, and
// sampling rules over an index snapshot. The engine is a pure function of
// (keywords, snapshot) apart from the random sample order.
package search

import (
	"log/slog"
	"math/rand/v2"

	"github.com/woodway-ua/photoindex/internal/index"
	"github.com/woodway-ua/photoindex/internal/synonyms"
	"github.com/woodway-ua/photoindex/internal/tokenizer"
	"github.com/woodway-ua/photoindex/pkg/logger"
)

// Options tunes result selection.
type Options struct {
	// ResultsPerKeyword caps how many records one keyword may select.
	ResultsPerKeyword int
	// BroadThreshold flags a keyword as too broad instead of sampling when
	// its candidate set exceeds this size. Zero disables the guard.
	BroadThreshold int
}

// KeywordResult is the outcome for a single keyword. Zero matches is a
// normal outcome, not an error.
type KeywordResult struct {
	Keyword    string
	Matches    []index.Record
	Candidates int
	TooBroad   bool
	WantsStock bool
	WantsBrand bool
}

// Result is the per-keyword results concatenated in keyword order. The same
// file may appear under two different keywords; nothing deduplicates across
// keywords.
type Result struct {
	Keywords []KeywordResult
}

// Selected reports the total number of selected records across keywords.
func (r Result) Selected() int {
	n := 0
	for _, kw := range r.Keywords {
		n += len(kw.Matches)
	}
	return n
}

// Engine matches keyword queries against snapshots.
type Engine struct {
	table  *synonyms.Table
	vocab  index.Vocabulary
	opts   Options
	logger *slog.Logger
}

// New creates an Engine. The synonym table and vocabulary are read-only.
func New(table *synonyms.Table, vocab index.Vocabulary, opts Options) *Engine {
	if opts.ResultsPerKeyword <= 0 {
		opts.ResultsPerKeyword = 5
	}
	return &Engine{
		table:  table,
		vocab:  vocab,
		opts:   opts,
		logger: logger.WithComponent("search-engine"),
	}
}

// Search evaluates each keyword independently against the snapshot and
// concatenates the selections in keyword order.
func (e *Engine) Search(keywords []string, snap *index.Snapshot) Result {
	result := Result{Keywords: make([]KeywordResult, 0, len(keywords))}
	if snap == nil {
		return result
	}
	for _, keyword := range keywords {
		result.Keywords = append(result.Keywords, e.searchKeyword(keyword, snap))
	}
	return result
}

// searchKeyword applies the filtering rules for one keyword:
//
//   - stock records are excluded unless the query asks for stock imagery
//   - logo records are excluded unless the query is brand related
//   - a record is a candidate only when its token set intersects the
//     expanded query token set
//
// Brand-related queries surface brand-flagged candidates first; within a
// tier selection is a uniform random sample without replacement.
func (e *Engine) searchKeyword(keyword string, snap *index.Snapshot) KeywordResult {
	qtokens := e.table.ExpandSet(tokenizer.Normalize(keyword))
	res := KeywordResult{
		Keyword:    keyword,
		WantsStock: e.vocab.WantsStock(qtokens),
		WantsBrand: e.vocab.WantsBrand(qtokens),
	}
	if len(qtokens) == 0 {
		return res
	}

	var brand, other []index.Record
	for i := range snap.Records {
		rec := &snap.Records[i]
		if rec.IsStock && !res.WantsStock {
			continue
		}
		if rec.IsLogo && !res.WantsBrand {
			continue
		}
		if !rec.Tokens.Intersects(qtokens) {
			continue
		}
		if res.WantsBrand && rec.IsBrand {
			brand = append(brand, *rec)
		} else {
			other = append(other, *rec)
		}
	}
	res.Candidates = len(brand) + len(other)
	if e.opts.BroadThreshold > 0 && res.Candidates > e.opts.BroadThreshold {
		res.TooBroad = true
		e.logger.Debug("keyword too broad",
			"keyword", keyword,
			"candidates", res.Candidates,
			"threshold", e.opts.BroadThreshold,
		)
		return res
	}

	res.Matches = sampleTiered(brand, other, e.opts.ResultsPerKeyword)
	return res
}

// sampleTiered draws up to limit records, exhausting the preferred tier
// before the second one. Each tier is shuffled so equally ranked candidates
// are sampled uniformly, and repeat queries may select a different subset.
func sampleTiered(preferred, rest []index.Record, limit int) []index.Record {
	rand.Shuffle(len(preferred), func(i, j int) {
		preferred[i], preferred[j] = preferred[j], preferred[i]
	})
	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	out := make([]index.Record, 0, limit)
	for _, rec := range preferred {
		if len(out) == limit {
			return out
		}
		out = append(out, rec)
	}
	for _, rec := range rest {
		if len(out) == limit {
			return out
		}
		out = append(out, rec)
	}
	return out
}
