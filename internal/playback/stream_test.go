// SPDX-License-Identifier: MIT
package playback

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func newStreamPlayer(r Runner, timeoutIsSuccess bool) *StreamPlayer {
	return &StreamPlayer{
		Tool:             "mpv",
		Device:           "alsa/default",
		LengthMargin:     time.Second,
		TimeoutMargin:    2 * time.Second,
		TimeoutIsSuccess: timeoutIsSuccess,
		Runner:           r,
	}
}

func TestStreamPlayerArgs(t *testing.T) {
	r := &fakeRunner{}
	if err := newStreamPlayer(r, true).Play(context.Background(), testTone()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	want := []string{
		"mpv", "--no-video", "--really-quiet",
		"--audio-device=alsa/default", "--length=3", "/tmp/tone.wav",
	}
	if got := r.lastCall(); !slices.Equal(got, want) {
		t.Errorf("command = %v, want %v", got, want)
	}
}

func TestStreamPlayerTimeoutPolicy(t *testing.T) {
	tone := testTone()
	tone.Duration = 0

	tests := []struct {
		name      string
		isSuccess bool
	}{
		{"timeout counts as played", true},
		{"timeout is a failure", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newStreamPlayer(&fakeRunner{block: true}, tt.isSuccess)
			p.LengthMargin = 10 * time.Millisecond
			p.TimeoutMargin = 10 * time.Millisecond

			err := p.Play(context.Background(), tone)
			if tt.isSuccess && err != nil {
				t.Errorf("Play() error = %v, want nil", err)
			}
			if !tt.isSuccess && (!errors.Is(err, ErrPlayback) || !strings.Contains(err.Error(), "timed out")) {
				t.Errorf("Play() error = %v, want timeout", err)
			}
		})
	}
}

func TestStreamPlayerErrorTruncated(t *testing.T) {
	r := &fakeRunner{
		stderr: strings.Repeat("Could not open audio device. ", 20),
		err:    errors.New("exit status 2"),
	}
	err := newStreamPlayer(r, true).Play(context.Background(), testTone())
	if !errors.Is(err, ErrPlayback) {
		t.Fatalf("Play() error = %v, want ErrPlayback", err)
	}
	msg := strings.TrimPrefix(err.Error(), ErrPlayback.Error()+": ")
	if len(msg) != streamErrorLimit+3 {
		t.Errorf("message length = %d, want %d", len(msg), streamErrorLimit+3)
	}
}
