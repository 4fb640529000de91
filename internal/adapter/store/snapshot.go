package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the snapshot format version.
// Increment this when making breaking changes to the snapshot layout.
const CurrentSchemaVersion = 1

const collectionPrefix = "c:"

var (
	bucketMeta       = []byte("meta")
	keySchemaVersion = []byte("schema_version")
	keyEmbedder      = []byte("embedder")
	keyCollections   = []byte("collections")
)

// SnapshotInfo describes a saved local store.
type SnapshotInfo struct {
	Version     int            `json:"version"`
	Embedder    string         `json:"embedder"`
	Dimensions  map[string]int `json:"dimensions"`
	Collections []string       `json:"collections"`
}

// Snapshot is the full content of a saved local store, records kept in
// their original insertion order.
type Snapshot struct {
	Info    SnapshotInfo
	Records map[string][]Record
}

// Save writes every collection to a bbolt file at path, replacing any
// previous snapshot. The file is written next to path and renamed into place.
func (s *LocalStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmp := path + ".tmp"
	os.Remove(tmp)

	db, err := bbolt.Open(tmp, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}

	info := SnapshotInfo{
		Version:    CurrentSchemaVersion,
		Embedder:   s.embedder.Embedder().ModelName(),
		Dimensions: make(map[string]int, len(s.collections)),
	}
	for name, idx := range s.collections {
		info.Collections = append(info.Collections, name)
		info.Dimensions[name] = idx.dimension
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if err := putInfo(tx, info); err != nil {
			return err
		}

		for name, idx := range s.collections {
			b, err := tx.CreateBucket([]byte(collectionPrefix + name))
			if err != nil {
				return fmt.Errorf("failed to create bucket for %s: %w", name, err)
			}
			for i, r := range idx.records {
				data, err := json.Marshal(r)
				if err != nil {
					return err
				}
				if err := b.Put(sequenceKey(i), data); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return os.Rename(tmp, path)
}

// Load replaces the in-memory collections with the snapshot at path. A
// snapshot built at another dimension is rejected.
func (s *LocalStore) Load(path string) error {
	snap, err := ReadSnapshot(path)
	if err != nil {
		return err
	}

	dimension := s.embedder.Dimension()
	for name, dim := range snap.Info.Dimensions {
		if dim != dimension {
			return fmt.Errorf("%w: snapshot collection %s has dimension %d, embedder produces %d", ErrDimensionMismatch, name, dim, dimension)
		}
	}
	if model := s.embedder.Embedder().ModelName(); snap.Info.Embedder != model {
		slog.Warn("snapshot was built with a different embedder", "snapshot", snap.Info.Embedder, "current", model)
	}

	collections := make(map[string]*flatIndex, len(snap.Records))
	for name, records := range snap.Records {
		idx := newFlatIndex(snap.Info.Dimensions[name])
		for _, r := range records {
			idx.put(r)
		}
		collections[name] = idx
	}

	s.mu.Lock()
	s.collections = collections
	s.mu.Unlock()
	return nil
}

// ReadSnapshot reads a snapshot file without loading it into a store.
func ReadSnapshot(path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("snapshot not found: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	snap := &Snapshot{Records: make(map[string][]Record)}
	err = db.View(func(tx *bbolt.Tx) error {
		info, err := getInfo(tx)
		if err != nil {
			return err
		}
		if info.Version > CurrentSchemaVersion {
			return fmt.Errorf("snapshot created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
		}
		snap.Info = info

		return tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			if !strings.HasPrefix(string(name), collectionPrefix) {
				return nil
			}
			collection := strings.TrimPrefix(string(name), collectionPrefix)
			records := make([]Record, 0, b.Stats().KeyN)
			err := b.ForEach(func(k, v []byte) error {
				var r Record
				if err := json.Unmarshal(v, &r); err != nil {
					return fmt.Errorf("corrupt record in %s: %w", collection, err)
				}
				records = append(records, r)
				return nil
			})
			snap.Records[collection] = records
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return snap, nil
}

// SnapshotCheck describes whether a snapshot can serve the current embedder.
type SnapshotCheck struct {
	Exists       bool
	NeedsRebuild bool
	Reason       string
}

// CheckSnapshot compares a snapshot against the embedder that will query it.
// A dimension change means the stored vectors are unusable.
func CheckSnapshot(path string, dimension int) (*SnapshotCheck, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &SnapshotCheck{}, nil
	}

	snap, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}

	result := &SnapshotCheck{Exists: true}
	for name, dim := range snap.Info.Dimensions {
		if dim != dimension {
			result.NeedsRebuild = true
			result.Reason = fmt.Sprintf("collection %s has dimension %d, embedder produces %d", name, dim, dimension)
			break
		}
	}
	return result, nil
}

func putInfo(tx *bbolt.Tx, info SnapshotInfo) error {
	b, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return err
	}

	versionData, err := json.Marshal(info.Version)
	if err != nil {
		return err
	}
	if err := b.Put(keySchemaVersion, versionData); err != nil {
		return err
	}
	if err := b.Put(keyEmbedder, []byte(info.Embedder)); err != nil {
		return err
	}

	dims, err := json.Marshal(info.Dimensions)
	if err != nil {
		return err
	}
	return b.Put(keyCollections, dims)
}

func getInfo(tx *bbolt.Tx) (SnapshotInfo, error) {
	var info SnapshotInfo

	b := tx.Bucket(bucketMeta)
	if b == nil {
		return info, errors.New("snapshot has no meta bucket")
	}

	if data := b.Get(keySchemaVersion); data != nil {
		if err := json.Unmarshal(data, &info.Version); err != nil {
			info.Version = 0
		}
	}
	info.Embedder = string(b.Get(keyEmbedder))

	if data := b.Get(keyCollections); data != nil {
		if err := json.Unmarshal(data, &info.Dimensions); err != nil {
			return info, fmt.Errorf("corrupt collection table: %w", err)
		}
	}
	for name := range info.Dimensions {
		info.Collections = append(info.Collections, name)
	}
	return info, nil
}

func sequenceKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
