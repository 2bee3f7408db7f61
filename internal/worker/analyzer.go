package worker

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

const (
	// windowBytes holds about 46ms of 44.1kHz stereo PCM per RMS window.
	windowBytes = 8192

	// maxPCMBytes caps decoding at roughly 30s of preview audio.
	maxPCMBytes = 8 << 20
)

var previewClient = &http.Client{Timeout: 15 * time.Second}

// analyzePreview downloads an mp3 preview clip and reduces it to a single
// energy value in [0, 1]. Energy is the mean of short-window RMS levels
// rather than one whole-clip RMS, so quiet intros do not drown out loud
// sections.
func analyzePreview(url string) (float64, error) {
	resp, err := previewClient.Get(url)
	if err != nil {
		return 0, fmt.Errorf("preview fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("preview fetch status %d", resp.StatusCode)
	}
	return pcmEnergy(resp.Body)
}

// pcmEnergy decodes an mp3 stream and averages RMS over fixed windows of
// 16-bit little-endian samples. Decoding stops at maxPCMBytes.
func pcmEnergy(r io.Reader) (float64, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return 0, fmt.Errorf("preview decode failed: %w", err)
	}

	window := make([]byte, windowBytes)
	var levelSum float64
	var windows int
	var decoded int64
	for decoded < maxPCMBytes {
		n, err := io.ReadFull(decoder, window)
		if n > 1 {
			levelSum += windowRMS(window[:n])
			windows++
			decoded += int64(n)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("preview read failed: %w", err)
		}
	}
	if windows == 0 {
		return 0, fmt.Errorf("preview contains no samples")
	}
	return clampUnit(levelSum / float64(windows)), nil
}

// windowRMS computes the normalized RMS level of one window of 16-bit
// little-endian PCM.
func windowRMS(pcm []byte) float64 {
	var sumSquares float64
	var count float64
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := float64(int16(pcm[i]) | int16(pcm[i+1])<<8)
		sumSquares += sample * sample
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSquares/count) / 32768.0
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AnalyzePreviewFunc allows tests to override the analyzer implementation.
var AnalyzePreviewFunc = analyzePreview
