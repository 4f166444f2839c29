package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/woodway-ua/photoindex/internal/tokenizer"
)

// snapshotFile is the on-disk form of a Snapshot, used only for warm starts.
type snapshotFile struct {
	BuiltAt time.Time    `json:"built_at"`
	Records []recordFile `json:"records"`
}

type recordFile struct {
	Path      string   `json:"path"`
	Extension string   `json:"extension"`
	Tokens    []string `json:"tokens"`
	IsStock   bool     `json:"is_stock,omitempty"`
	IsBrand   bool     `json:"is_brand,omitempty"`
	IsLogo    bool     `json:"is_logo,omitempty"`
}

// saveSnapshotFile writes the snapshot atomically: a temp file in the same
// directory followed by a rename, so a crashed write never leaves a torn
// file for the next warm start.
func saveSnapshotFile(path string, snap *Snapshot) error {
	out := snapshotFile{
		BuiltAt: snap.BuiltAt,
		Records: make([]recordFile, 0, len(snap.Records)),
	}
	for i := range snap.Records {
		rec := &snap.Records[i]
		tokens := rec.Tokens.Members()
		sort.Strings(tokens)
		out.Records = append(out.Records, recordFile{
			Path:      rec.Path,
			Extension: rec.Extension,
			Tokens:    tokens,
			IsStock:   rec.IsStock,
			IsBrand:   rec.IsBrand,
			IsLogo:    rec.IsLogo,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing snapshot file: %w", err)
	}
	return nil
}

// loadSnapshotFile reads a previously saved snapshot. A missing file returns
// (nil, nil); records without tokens are dropped.
func loadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot file %s: %w", path, err)
	}
	var in snapshotFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing snapshot file %s: %w", path, err)
	}
	snap := &Snapshot{
		BuiltAt: in.BuiltAt,
		Records: make([]Record, 0, len(in.Records)),
	}
	for _, rec := range in.Records {
		if len(rec.Tokens) == 0 {
			continue
		}
		snap.Records = append(snap.Records, Record{
			Path:      rec.Path,
			Extension: rec.Extension,
			Tokens:    tokenizer.NewSet(rec.Tokens...),
			IsStock:   rec.IsStock,
			IsBrand:   rec.IsBrand,
			IsLogo:    rec.IsLogo,
		})
	}
	return snap, nil
}
