package catalog

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// snapshotVersion is bumped when the snapshot wire format changes; loaders
// reject snapshots written by an incompatible build.
const snapshotVersion = 1

// Snapshot is the serialized alias table the index loads at startup.
type Snapshot struct {
	Version int           `json:"version"`
	Records []AliasRecord `json:"records"`
}

// EncodeSnapshot serializes and gzip-compresses the alias table.
func EncodeSnapshot(records []AliasRecord) ([]byte, error) {
	snapshot := Snapshot{Version: snapshotVersion, Records: records}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(&snapshot); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot decompresses and deserializes an alias table.
func DecodeSnapshot(data []byte) ([]AliasRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d unsupported (expected %d)", snapshot.Version, snapshotVersion)
	}
	return snapshot.Records, nil
}
