// SPDX-License-Identifier: MIT
package diagnostic

import (
	"fmt"
	"io"
	"strings"

	"loopcheck/internal/registry"
)

const rule = "============================================================"

// Summary is derived from the results of a run.
type Summary struct {
	Tested  int      `json:"tested"`
	Working []string `json:"working"` // Paths that detected the tone, in test order.
}

// Summarize lists the paths whose tone was detected.
func Summarize(results []PathResult) Summary {
	s := Summary{Tested: len(results)}
	for _, r := range results {
		if r.ToneDetected {
			s.Working = append(s.Working, r.Name)
		}
	}
	return s
}

// Recommendation is advice derived from the working paths. Path is empty
// when nothing worked.
type Recommendation struct {
	Path  string   `json:"path,omitempty"`
	Lines []string `json:"lines"`
}

// Recommend prefers direct plughw access, then the ALSA default chain, then
// the first working path in test order. With no working path it returns
// troubleshooting steps.
func Recommend(results []PathResult) Recommendation {
	working := make(map[string]PathResult)
	var first *PathResult
	for i, r := range results {
		if !r.ToneDetected {
			continue
		}
		working[r.Name] = r
		if first == nil {
			first = &results[i]
		}
	}

	if r, ok := working[registry.PlugHWDirect]; ok {
		return Recommendation{
			Path: r.Name,
			Lines: []string{
				fmt.Sprintf("Use %s for reliable playback.", r.Target),
				fmt.Sprintf("For mpv: --audio-device=alsa/%s", r.Target),
				fmt.Sprintf("For aplay: aplay -D %s", r.Target),
			},
		}
	}
	if r, ok := working[registry.ALSADefault]; ok {
		return Recommendation{
			Path:  r.Name,
			Lines: []string{"ALSA default chain works. Apps should work normally."},
		}
	}
	if first != nil {
		return Recommendation{
			Path:  first.Name,
			Lines: []string{fmt.Sprintf("Use: %s (%s %s)", first.Name, first.Method, first.Target)},
		}
	}
	return Recommendation{
		Lines: []string{
			"1. Check physical speaker connection",
			"2. Verify ALSA card index: aplay -l",
			"3. Check if speaker/amp is powered",
			"4. Try: speaker-test -D hw:0,0 -c 2 -t sine",
		},
	}
}

// Print writes the summary table and the recommendation.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\n\n%s\nSUMMARY\n%s\n\n", rule, rule)
	fmt.Fprintf(w, "%-25s %-10s %-15s %-10s\n", "Path", "Playback", "Tone Detected", "SNR")
	fmt.Fprintln(w, strings.Repeat("-", len(rule)))

	for _, res := range r.Results {
		playback := "✗"
		if res.PlaybackSucceeded {
			playback = "✓"
		}
		tone, snr := "✗ NO", "-"
		if res.ToneDetected {
			tone = "✓ YES"
			if res.Analysis != nil {
				snr = fmt.Sprintf("%.1fx", res.Analysis.SNR)
			}
		}
		fmt.Fprintf(w, "%-25s %-10s %-15s %-10s\n", res.Name, playback, tone, snr)
	}

	fmt.Fprintf(w, "\n%s\n", rule)
	if r.Interrupted {
		fmt.Fprintln(w, "! Run interrupted, not every path was tested.")
	}
	if len(r.Summary.Working) > 0 {
		fmt.Fprintf(w, "✓ WORKING PATHS: %s\n\nRECOMMENDATION:\n", strings.Join(r.Summary.Working, ", "))
	} else {
		fmt.Fprintf(w, "✗ NO WORKING PATHS DETECTED!\n\nTROUBLESHOOTING:\n")
	}
	for _, line := range r.Recommendation.Lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w, rule)
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "no reason recorded"
	}
	return strings.Join(reasons, ", ")
}
