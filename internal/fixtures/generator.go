// Package fixtures generates deterministic WAV click tracks used by
// framebeat's own tests and by cmd/fixturegen for manual smoke runs
// against a real beat-detector process.
package fixtures

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Config controls which click tracks are emitted.
type Config struct {
	OutputDir  string
	SampleRate int
	BPMLadder  []float64
	Beats      int // beats per click track; 0 defaults to 32
}

// Manifest describes generated fixtures for tests and consumers.
type Manifest struct {
	SampleRate int               `json:"sample_rate"`
	Fixtures   []ManifestFixture `json:"fixtures"`
}

type ManifestFixture struct {
	File        string  `json:"file"`
	BPM         float64 `json:"bpm"`
	Beats       int     `json:"beats"`
	DurationSec float64 `json:"duration_sec"`
}

// Generate writes one click-track WAV per BPM in cfg.BPMLadder plus a
// manifest.json into cfg.OutputDir.
func Generate(cfg Config) (*Manifest, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./testdata/audio"
	}
	if cfg.Beats == 0 {
		cfg.Beats = 32
	}
	if len(cfg.BPMLadder) == 0 {
		cfg.BPMLadder = []float64{120}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output: %w", err)
	}

	manifest := &Manifest{SampleRate: cfg.SampleRate}
	for _, bpm := range cfg.BPMLadder {
		filename := fmt.Sprintf("click_%dbpm.wav", int(bpm))
		path := filepath.Join(cfg.OutputDir, filename)
		durationSec := RenderClickTrack(path, cfg.SampleRate, bpm, cfg.Beats)
		manifest.Fixtures = append(manifest.Fixtures, ManifestFixture{
			File:        filename,
			BPM:         bpm,
			Beats:       cfg.Beats,
			DurationSec: durationSec,
		})
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return manifest, nil
}

// RenderClickTrack writes a mono WAV with a short decaying click at
// every beat of a constant-tempo grid, and returns the track's
// duration in seconds. Exported so tests can build audio fixtures
// in-process without going through Generate's manifest bookkeeping.
func RenderClickTrack(path string, sampleRate int, bpm float64, beats int) float64 {
	secondsPerBeat := 60.0 / bpm
	totalDuration := secondsPerBeat * float64(beats)
	samples := int(totalDuration * float64(sampleRate))
	data := make([]float64, samples)

	clickLen := int(0.01 * float64(sampleRate)) // 10ms click
	for i := 0; i < beats; i++ {
		offset := int(secondsPerBeat * float64(i) * float64(sampleRate))
		for j := 0; j < clickLen && offset+j < len(data); j++ {
			data[offset+j] += math.Exp(-4 * float64(j) / float64(clickLen))
		}
	}

	writeWAV(path, data, sampleRate)
	return totalDuration
}

// writeWAV writes mono 16-bit PCM WAV.
func writeWAV(path string, samples []float64, sampleRate int) {
	buf := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf[i] = int16(s * 32767)
	}

	byteRate := sampleRate * 2
	blockAlign := int16(2)
	bitsPerSample := int16(16)
	dataSize := len(buf) * 2
	riffSize := 36 + dataSize

	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	f.Write([]byte("RIFF"))
	binary.Write(f, binary.LittleEndian, uint32(riffSize))
	f.Write([]byte("WAVE"))
	f.Write([]byte("fmt "))
	binary.Write(f, binary.LittleEndian, uint32(16))
	binary.Write(f, binary.LittleEndian, uint16(1))
	binary.Write(f, binary.LittleEndian, uint16(1))
	binary.Write(f, binary.LittleEndian, uint32(sampleRate))
	binary.Write(f, binary.LittleEndian, uint32(byteRate))
	binary.Write(f, binary.LittleEndian, blockAlign)
	binary.Write(f, binary.LittleEndian, bitsPerSample)
	f.Write([]byte("data"))
	binary.Write(f, binary.LittleEndian, uint32(dataSize))
	for _, v := range buf {
		binary.Write(f, binary.LittleEndian, v)
	}
}
