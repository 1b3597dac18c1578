// Package store persists converted brick dictionaries: as zstd-compressed
// JSON snapshots and as SQLite tables for querying.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/chazu/brickify/pkg/bricks"
)

// SnapshotVersion is written into every snapshot header.
const SnapshotVersion = 1

// ErrVersion is returned for snapshots written by an unknown version.
var ErrVersion = errors.New("store: unsupported snapshot version")

// Header is the first line of a snapshot. It can be read without decoding
// the body.
type Header struct {
	Version int    `json:"version"`
	Seed    int64  `json:"seed"`
	Roots   int    `json:"roots"`
	Source  string `json:"source,omitempty"`
}

// Snapshot is a header plus the full brick dictionary.
type Snapshot struct {
	Header Header       `json:"header"`
	Dict   *bricks.Dict `json:"dict"`
}

// NewSnapshot builds a snapshot of d with the header filled in.
func NewSnapshot(d *bricks.Dict, seed int64, source string) Snapshot {
	return Snapshot{
		Header: Header{
			Version: SnapshotVersion,
			Seed:    seed,
			Roots:   len(d.Roots()),
			Source:  source,
		},
		Dict: d,
	}
}

// Encode writes snap to w as a zstd stream holding a JSON header line
// followed by the JSON body.
func Encode(w io.Writer, snap Snapshot) error {
	if snap.Dict == nil {
		return errors.New("store: snapshot has no dict")
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return fmt.Errorf("store: encode header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(snap.Dict); err != nil {
		enc.Close()
		return fmt.Errorf("store: encode dict: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	dec, err := zstd.NewReader(r)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("store: read header: %w", err)
	}
	if err := json.Unmarshal(line, &snap.Header); err != nil {
		return snap, fmt.Errorf("store: decode header: %w", err)
	}
	if snap.Header.Version != SnapshotVersion {
		return snap, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}

	var d bricks.Dict
	if err := json.NewDecoder(br).Decode(&d); err != nil {
		return snap, fmt.Errorf("store: decode dict: %w", err)
	}
	if d.Cells == nil {
		d.Cells = map[bricks.Key]*bricks.Cell{}
	}
	snap.Dict = &d
	return snap, nil
}

// WriteSnapshot writes snap to path, creating parent directories.
func WriteSnapshot(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSnapshot reads a snapshot file.
func ReadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	return Decode(f)
}
