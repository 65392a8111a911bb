package ffprobe

import (
	"math"
	"testing"
)

func TestDurationSecondsPrefersFormatValue(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", Duration: "118.20"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationSecondsFallsBackToAudioStream(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Duration: "99"},
			{CodecType: "audio", Duration: "118.20"},
		},
		Format: Format{Duration: ""},
	}
	if result.DurationSeconds() != 118.20 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationSecondsHandlesInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", Duration: "bad"},
		},
		Format: Format{Duration: "nope"},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected NaN, got %v", result.DurationSeconds())
	}
}

func TestAudioStreamCount(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "AUDIO"},
		},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
}

func TestBitRate(t *testing.T) {
	result := Result{Format: Format{BitRate: "32000"}}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
	result = Result{Format: Format{BitRate: "-1"}}
	if result.BitRate() != 0 {
		t.Fatalf("expected 0 for negative bitrate, got %d", result.BitRate())
	}
}
