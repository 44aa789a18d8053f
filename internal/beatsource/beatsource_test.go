package beatsource

import (
	"context"
	"strings"
	"testing"
)

func TestParseProtocolReadsBeatsAndEnd(t *testing.T) {
	input := "BEAT 1.0 0.5 1\nBEAT 2.0 0.2 0\nBEAT 3.5\nEND 10.0\n"
	res, err := parseProtocol(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Beats.Times) != 3 {
		t.Fatalf("expected 3 beats, got %d", len(res.Beats.Times))
	}
	if res.Beats.Times[0] != 1.0 || res.Beats.Times[2] != 3.5 {
		t.Errorf("unexpected times: %v", res.Beats.Times)
	}
	if !res.Beats.IsDownbeat[0] || res.Beats.IsDownbeat[1] {
		t.Errorf("unexpected downbeat flags: %v", res.Beats.IsDownbeat)
	}
	if res.AudioEndS != 10.0 {
		t.Errorf("expected AudioEndS 10.0, got %v", res.AudioEndS)
	}
}

func TestParseProtocolIgnoresBlankLines(t *testing.T) {
	input := "\nBEAT 1.0\n\nEND 5.0\n"
	res, err := parseProtocol(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Beats.Times) != 1 {
		t.Fatalf("expected 1 beat, got %d", len(res.Beats.Times))
	}
}

func TestParseProtocolRejectsMalformedBeatLine(t *testing.T) {
	_, err := parseProtocol(strings.NewReader("BEAT not-a-number\n"))
	if err == nil {
		t.Fatalf("expected an error for a malformed BEAT line")
	}
}

func TestSyntheticIsDeterministic(t *testing.T) {
	s1 := NewSynthetic(120, 30, nil)
	s2 := NewSynthetic(120, 30, nil)

	r1, _ := s1.Detect(context.Background(), "unused.wav")
	r2, _ := s2.Detect(context.Background(), "unused.wav")

	if len(r1.Beats.Times) != len(r2.Beats.Times) {
		t.Fatalf("non-deterministic beat counts: %d vs %d", len(r1.Beats.Times), len(r2.Beats.Times))
	}
	for i := range r1.Beats.Times {
		if r1.Beats.Times[i] != r2.Beats.Times[i] {
			t.Fatalf("non-deterministic beat time at %d: %v vs %v", i, r1.Beats.Times[i], r2.Beats.Times[i])
		}
	}
}

func TestSyntheticEveryFourthBeatIsDownbeat(t *testing.T) {
	s := NewSynthetic(120, 4, nil) // 2 beats/sec at 120bpm -> 8 beats in 4s
	res, _ := s.Detect(context.Background(), "unused.wav")
	for i, d := range res.Beats.IsDownbeat {
		want := i%4 == 0
		if d != want {
			t.Errorf("beat %d: got downbeat=%v want %v", i, d, want)
		}
	}
}
