package worker

import (
	"bytes"
	"math"
	"testing"
)

func pcmSquareWave(amplitude int16, samples int) []byte {
	buf := make([]byte, 0, samples*2)
	for i := 0; i < samples; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		buf = append(buf, byte(uint16(v)), byte(uint16(v)>>8))
	}
	return buf
}

func TestWindowRMS(t *testing.T) {
	tests := []struct {
		name string
		pcm  []byte
		want float64
	}{
		{"silence", bytes.Repeat([]byte{0, 0}, 64), 0},
		{"half scale square wave", pcmSquareWave(16384, 64), 0.5},
		{"full scale square wave", pcmSquareWave(32767, 64), float64(32767) / 32768.0},
		{"empty window", nil, 0},
		{"single trailing byte", []byte{0x7f}, 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := windowRMS(tc.pcm)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %f, got %f", tc.want, got)
			}
		})
	}
}

func TestClampUnit(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3.7, 1},
	}
	for _, tc := range tests {
		if got := clampUnit(tc.in); got != tc.want {
			t.Fatalf("clampUnit(%f): expected %f, got %f", tc.in, tc.want, got)
		}
	}
}
