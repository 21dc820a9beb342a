package chunker

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when chunk length and overlap cannot produce
// an advancing sequence of windows.
var ErrInvalidWindow = errors.New("invalid chunk window")

// Window is one chunk position in milliseconds, [StartMS, EndMS).
type Window struct {
	Index   int // 1-based
	StartMS int
	EndMS   int
}

// Plan is the exact set of windows for one input.
//
// Window k starts at k*(chunk-overlap) and spans chunk milliseconds. Windows
// ending strictly before the end of the audio are emitted. The first window
// reaching the end of the audio is the boundary window: it is clamped to the
// audio length and, unless Options.KeepBoundary is set, dropped rather than
// exported. The boundary is dropped even when it is a full-length window
// ending exactly at the last sample.
type Plan struct {
	Windows  []Window
	Boundary *Window
}

// Dropped returns the number of boundary windows left out of Windows.
func (p Plan) Dropped() int {
	if p.Boundary == nil {
		return 0
	}

	return 1
}

// NewPlan computes the windows for audioLenMS milliseconds of audio.
func NewPlan(audioLenMS, chunkLenMS, overlapMS int) (Plan, error) {
	if chunkLenMS <= 0 {
		return Plan{}, fmt.Errorf("%w: chunk length %d ms must be positive", ErrInvalidWindow, chunkLenMS)
	}
	if overlapMS < 0 || overlapMS >= chunkLenMS {
		return Plan{}, fmt.Errorf("%w: overlap %d ms must be in [0, %d)", ErrInvalidWindow, overlapMS, chunkLenMS)
	}
	if audioLenMS <= 0 {
		return Plan{}, nil
	}

	step := chunkLenMS - overlapMS

	// Count of k >= 0 with k*step + chunk < audioLen.
	n := 0
	if audioLenMS > chunkLenMS {
		n = (audioLenMS-chunkLenMS-1)/step + 1
	}

	p := Plan{Windows: make([]Window, n)}
	for k := range n {
		start := k * step
		p.Windows[k] = Window{Index: k + 1, StartMS: start, EndMS: start + chunkLenMS}
	}

	start := n * step
	p.Boundary = &Window{Index: n + 1, StartMS: start, EndMS: audioLenMS}

	return p, nil
}
