package index

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/woodway-ua/photoindex/internal/synonyms"
	"github.com/woodway-ua/photoindex/internal/tokenizer"
	pkgerrors "github.com/woodway-ua/photoindex/pkg/errors"
	"github.com/woodway-ua/photoindex/pkg/logger"
)

// Scanner walks the share root and builds fresh Snapshots. It holds only
// read-only configuration and is safe for concurrent use, though the Store
// serialises rebuilds anyway.
type Scanner struct {
	root       string
	extensions map[string]struct{}
	table      *synonyms.Table
	vocab      Vocabulary
	logger     *slog.Logger
}

// NewScanner creates a Scanner for the given share root and extension
// allow-list. Extension matching is case-insensitive.
func NewScanner(root string, extensions []string, table *synonyms.Table, vocab Vocabulary) *Scanner {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Scanner{
		root:       root,
		extensions: exts,
		table:      table,
		vocab:      vocab,
		logger:     logger.WithComponent("scanner"),
	}
}

// Scan enumerates the tree under the share root and returns a fully built
// Snapshot. An unreachable root fails fast with ErrShareUnreachable;
// unreadable subtrees are logged and skipped so one bad directory does not
// lose the rest of the share.
func (s *Scanner) Scan() (*Snapshot, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.ErrShareUnreachable, http.StatusServiceUnavailable, "stat %s: %v", s.root, err)
	}
	if !info.IsDir() {
		return nil, pkgerrors.Newf(pkgerrors.ErrShareUnreachable, http.StatusServiceUnavailable, "%s is not a directory", s.root)
	}

	records := make([]Record, 0, 1024)
	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := s.extensions[ext]; !ok {
			return nil
		}
		if rec, ok := s.buildRecord(path, ext); ok {
			records = append(records, rec)
		}
		return nil
	})
	if walkErr != nil {
		return nil, pkgerrors.Newf(pkgerrors.ErrShareUnreachable, http.StatusServiceUnavailable, "walking %s: %v", s.root, walkErr)
	}

	return &Snapshot{
		Records: records,
		BuiltAt: time.Now().UTC(),
	}, nil
}

// buildRecord tokenizes the path relative to the share root, expands the
// tokens through the synonym table, and derives the stock/brand/logo flags.
// A path that yields no tokens at all is dropped.
func (s *Scanner) buildRecord(path string, ext string) (Record, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	tokens := s.table.ExpandSet(tokenizer.Normalize(rel))
	if len(tokens) == 0 {
		return Record{}, false
	}
	return Record{
		Path:      path,
		Extension: ext,
		Tokens:    tokens,
		IsStock:   tokens.Intersects(s.vocab.Stock),
		IsBrand:   tokens.Intersects(s.vocab.Brand),
		IsLogo:    tokens.Intersects(s.vocab.Logo),
	}, true
}
