package duration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// scanFrames walks the MPEG frame headers of the staged file and sums frame
// durations. Only meaningful for MPEG audio; other containers yield zero
// frames and fall through to the next strategy.
func scanFrames(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	decoder := mp3.NewDecoder(file)
	var (
		frame   mp3.Frame
		skipped int
		total   float64
		frames  int
	)
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// A decode error mid-stream still leaves the frames already
			// counted; bail out only when nothing was decoded at all.
			if frames == 0 {
				return 0, fmt.Errorf("frame scan: %w", err)
			}
			break
		}
		total += frame.Duration().Seconds()
		frames++
	}
	if frames == 0 || total <= 0 {
		return 0, errors.New("frame scan: no audio frames found")
	}
	return total, nil
}

// readTagLength parses container metadata for a declared track length. ID3v2
// carries it as the TLEN text frame, in milliseconds.
func readTagLength(data []byte) (float64, error) {
	metadata, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("metadata tag: %w", err)
	}

	raw := metadata.Raw()
	for _, key := range []string{"TLEN", "TLE"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		text, ok := value.(string)
		if !ok {
			continue
		}
		millis, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || millis <= 0 {
			continue
		}
		return millis / 1000, nil
	}
	return 0, errors.New("metadata tag: no track length frame")
}
