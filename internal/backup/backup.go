// Package backup dumps every persisted key of a blob store into a
// zstd-compressed archive and restores it into any other backend.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/store"
)

// FormatVersion is written into every archive.
const FormatVersion = 1

// ErrInvalidArchive is returned when an archive cannot be decoded or has an
// unsupported version.
var ErrInvalidArchive = errors.New("invalid backup archive")

// Entry is one persisted key and its raw value.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Archive is the decoded content of a backup.
type Archive struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Entries   []Entry   `json:"entries"`
}

// Snapshot reads every known key from blobs. Missing keys are skipped.
func Snapshot(ctx context.Context, blobs store.BlobStore, now time.Time) (*Archive, error) {
	archive := &Archive{Version: FormatVersion, CreatedAt: now, Entries: []Entry{}}
	for _, key := range store.AllKeys {
		value, err := blobs.Get(ctx, key)
		if errors.Is(err, store.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		archive.Entries = append(archive.Entries, Entry{Key: key, Value: string(value)})
	}
	return archive, nil
}

// Write encodes archive to w with zstd compression.
func Write(w io.Writer, archive *Archive) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}

	if err := json.NewEncoder(enc).Encode(archive); err != nil {
		_ = enc.Close()
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	// Close flushes the final frame
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	return nil
}

// Read decodes an archive written by Write.
func Read(r io.Reader) (*Archive, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	defer dec.Close()

	var archive Archive
	if err := json.NewDecoder(dec).Decode(&archive); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	if archive.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidArchive, archive.Version)
	}
	for _, e := range archive.Entries {
		if !slices.Contains(store.AllKeys, e.Key) {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidArchive, e.Key)
		}
	}
	return &archive, nil
}

// Restore writes every entry of archive into blobs and removes known keys
// the archive does not contain, so blobs ends up matching the backup.
func Restore(ctx context.Context, blobs store.BlobStore, archive *Archive) error {
	present := make(map[string]bool, len(archive.Entries))
	for _, e := range archive.Entries {
		if err := blobs.Put(ctx, e.Key, []byte(e.Value)); err != nil {
			return fmt.Errorf("failed to restore %s: %w", e.Key, err)
		}
		present[e.Key] = true
	}

	for _, key := range store.AllKeys {
		if present[key] {
			continue
		}
		if err := blobs.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}

	log.Info().
		Int("entries", len(archive.Entries)).
		Time("created_at", archive.CreatedAt).
		Msg("backup restored")
	return nil
}

// WriteFile snapshots blobs into a new archive file at path. A partial file
// is removed on failure.
func WriteFile(ctx context.Context, path string, blobs store.BlobStore, now time.Time) error {
	archive, err := Snapshot(ctx, blobs, now)
	if err != nil {
		return err
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	if err := Write(dst, archive); err != nil {
		if closeErr := dst.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close destination during error cleanup")
		}
		os.Remove(path) // Clean up partial file
		return err
	}

	if err := dst.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close archive: %w", err)
	}

	log.Info().
		Str("archive_path", path).
		Int("entries", len(archive.Entries)).
		Msg("backup written with zstd compression")
	return nil
}

// RestoreFile reads the archive at path and restores it into blobs.
func RestoreFile(ctx context.Context, path string, blobs store.BlobStore) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer src.Close()

	archive, err := Read(src)
	if err != nil {
		return err
	}
	return Restore(ctx, blobs, archive)
}
