package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/framebeat/framebeat/internal/beat"
)

// HashAudioFile content-addresses an audio file by its sha256 digest,
// so the cache key tracks the file's bytes rather than its path.
func HashAudioFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cache: open audio file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("cache: hash audio file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get looks up a cached beat detection result by audio content hash.
// The found return is false when no entry exists; a miss is not an
// error.
func (d *DB) Get(audioHash string) (raw beat.Raw, audioEndS float64, detector string, found bool, err error) {
	row := d.db.QueryRow(`
		SELECT audio_end_s, times_json, strength_json, downbeat_json, detector
		FROM beat_cache WHERE audio_hash = ?
	`, audioHash)

	var timesJSON string
	var strengthJSON, downbeatJSON sql.NullString
	if scanErr := row.Scan(&audioEndS, &timesJSON, &strengthJSON, &downbeatJSON, &detector); scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return beat.Raw{}, 0, "", false, nil
		}
		return beat.Raw{}, 0, "", false, fmt.Errorf("cache: query beat_cache: %w", scanErr)
	}

	if unmarshalErr := json.Unmarshal([]byte(timesJSON), &raw.Times); unmarshalErr != nil {
		return beat.Raw{}, 0, "", false, fmt.Errorf("cache: decode times_json: %w", unmarshalErr)
	}
	if strengthJSON.Valid {
		if unmarshalErr := json.Unmarshal([]byte(strengthJSON.String), &raw.OnsetStrength); unmarshalErr != nil {
			return beat.Raw{}, 0, "", false, fmt.Errorf("cache: decode strength_json: %w", unmarshalErr)
		}
	}
	if downbeatJSON.Valid {
		if unmarshalErr := json.Unmarshal([]byte(downbeatJSON.String), &raw.IsDownbeat); unmarshalErr != nil {
			return beat.Raw{}, 0, "", false, fmt.Errorf("cache: decode downbeat_json: %w", unmarshalErr)
		}
	}
	return raw, audioEndS, detector, true, nil
}

// Put stores (or overwrites) the cache entry for audioHash.
func (d *DB) Put(audioHash string, raw beat.Raw, audioEndS float64, detector string) error {
	timesJSON, err := json.Marshal(raw.Times)
	if err != nil {
		return fmt.Errorf("cache: encode times_json: %w", err)
	}

	var strengthJSON, downbeatJSON []byte
	if len(raw.OnsetStrength) > 0 {
		if strengthJSON, err = json.Marshal(raw.OnsetStrength); err != nil {
			return fmt.Errorf("cache: encode strength_json: %w", err)
		}
	}
	if len(raw.IsDownbeat) > 0 {
		if downbeatJSON, err = json.Marshal(raw.IsDownbeat); err != nil {
			return fmt.Errorf("cache: encode downbeat_json: %w", err)
		}
	}

	_, err = d.db.Exec(`
		INSERT INTO beat_cache (audio_hash, audio_end_s, times_json, strength_json, downbeat_json, detector)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(audio_hash) DO UPDATE SET
			audio_end_s = excluded.audio_end_s,
			times_json = excluded.times_json,
			strength_json = excluded.strength_json,
			downbeat_json = excluded.downbeat_json,
			detector = excluded.detector
	`, audioHash, audioEndS, string(timesJSON), nullableString(strengthJSON), nullableString(downbeatJSON), detector)
	if err != nil {
		return fmt.Errorf("cache: insert beat_cache: %w", err)
	}
	return nil
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
