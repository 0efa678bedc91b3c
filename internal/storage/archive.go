package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/runnerr0/secondbrain/internal/activity"
)

// ArchiveEvents writes events as zstd-compressed JSON lines to a new file in
// dir and returns its path. Nothing is written for an empty slice.
func ArchiveEvents(dir string, events []activity.Event, now time.Time) (string, error) {
	if len(events) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("events-%s.jsonl.zst", now.UTC().Format("20060102T150405Z")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	if err := writeArchive(f, events); err != nil {
		os.Remove(path)
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("sync archive: %w", err)
	}
	return path, nil
}

func writeArchive(w io.Writer, events []activity.Event) error {
	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}

	enc := json.NewEncoder(encoder)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			encoder.Close()
			return fmt.Errorf("encode event %s: %w", events[i].ID, err)
		}
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finish zstd stream: %w", err)
	}
	return nil
}

// ReadArchive decodes a file written by ArchiveEvents.
func ReadArchive(path string) ([]activity.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	var events []activity.Event
	scanner := bufio.NewScanner(decoder)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e activity.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("decode archived event: %w", err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return events, nil
}
