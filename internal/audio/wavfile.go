// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavPCMFormat = 1
)

// WriteWAV stores mono float samples in [-1, 1] as a 16-bit PCM WAV file.
// Samples outside the range are clipped.
func WriteWAV(path string, samples []float32, sampleRate int) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	enc := wav.NewEncoder(file, sampleRate, wavBitDepth, 1, wavPCMFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: wavBitDepth,
	}
	const full = math.MaxInt16
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		buf.Data[i] = int(math.Round(v * full))
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return nil
}

// WriteTempWAV writes samples to a new file in the system temp directory and
// returns its path. The caller removes it.
func WriteTempWAV(samples []float32, sampleRate int) (string, error) {
	f, err := os.CreateTemp("", "loopcheck-*.wav")
	if err != nil {
		return "", err
	}
	path := f.Name()
	f.Close()

	if err := WriteWAV(path, samples, sampleRate); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// ReadWAV loads a PCM WAV file, keeping the first channel, scaled to [-1, 1].
func ReadWAV(path string) ([]float32, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	channels := max(1, buf.Format.NumChannels)
	scale := math.Exp2(float64(dec.BitDepth) - 1)
	out := make([]float32, len(buf.Data)/channels)
	for i := range out {
		out[i] = float32(float64(buf.Data[i*channels]) / scale)
	}
	return out, buf.Format.SampleRate, nil
}
