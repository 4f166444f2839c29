// Package index builds and publishes immutable snapshots of the photo share.
// A background rebuild walks the share, derives per-file metadata, and swaps
// the current snapshot atomically; readers never block and never observe a
// partially built index.
package index

import (
	"time"

	"github.com/woodway-ua/photoindex/internal/tokenizer"
)

// Record describes one indexed image. Records are immutable after a scan:
// a rebuild replaces them wholesale, never mutates them in place.
type Record struct {
	// Path is the absolute path on the share and the record's identity.
	Path string
	// Extension is the lower-cased file extension, always from the allow-list.
	Extension string
	// Tokens is the non-empty set of normalised, synonym-expanded tokens
	// derived from every path segment below the share root.
	Tokens tokenizer.Set
	// IsStock marks generic background imagery (Stock/warehouse folders).
	IsStock bool
	// IsBrand marks files under brand folders. Independent of IsStock.
	IsBrand bool
	// IsLogo marks brand-mark files, excluded from non-brand queries.
	IsLogo bool
}

// Snapshot is one complete, immutable index built from a single share walk.
type Snapshot struct {
	Records []Record
	BuiltAt time.Time
}

// ImageCount reports the number of indexed images.
func (s *Snapshot) ImageCount() int {
	return len(s.Records)
}

// TokenCount reports the number of distinct tokens across all records.
func (s *Snapshot) TokenCount() int {
	seen := make(map[string]struct{})
	for i := range s.Records {
		for t := range s.Records[i].Tokens {
			seen[t] = struct{}{}
		}
	}
	return len(seen)
}
