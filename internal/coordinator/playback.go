package coordinator

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
)

const (
	MinSpeed     = 100 * time.Millisecond
	MaxSpeed     = 10 * time.Second
	DefaultSpeed = time.Second
)

// Playback is the auto-advance state. Generation changes on every Play so a
// timer tick scheduled before a Pause can be recognised as stale.
type Playback struct {
	Playing    bool
	Loop       bool
	Speed      time.Duration
	Generation uint64
}

func clampSpeed(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultSpeed
	case d < MinSpeed:
		return MinSpeed
	case d > MaxSpeed:
		return MaxSpeed
	}
	return d
}

// Playback returns the current playback state.
func (c *Coordinator) Playback() Playback {
	return c.playback
}

// CanPlay reports whether playback is possible: there must be windows to
// advance through, and a static range is a single window.
func (c *Coordinator) CanPlay() bool {
	return len(c.windows) > 0 && c.mode != models.ModeStaticRange
}

// Play starts playback and returns the generation the caller's timer must
// pass to Tick. ok is false when playback is not possible.
func (c *Coordinator) Play() (generation uint64, ok bool) {
	if !c.CanPlay() {
		return 0, false
	}
	c.playback.Playing = true
	c.playback.Generation++
	logger.Debug("Playback started (generation %d, speed %v, loop %v)", c.playback.Generation, c.playback.Speed, c.playback.Loop)
	return c.playback.Generation, true
}

// Pause stops playback. It is safe to call at any time.
func (c *Coordinator) Pause() {
	if !c.playback.Playing {
		return
	}
	c.playback.Playing = false
	logger.Debug("Playback paused at window %d", c.index)
}

// SetLoop controls whether playback wraps to the first window.
func (c *Coordinator) SetLoop(loop bool) {
	c.playback.Loop = loop
}

// SetSpeed sets the time spent on each window, clamped to [MinSpeed, MaxSpeed].
func (c *Coordinator) SetSpeed(d time.Duration) {
	c.playback.Speed = clampSpeed(d)
}

// Tick advances playback by one window. It reports whether playback is
// still running; a stale generation or a paused coordinator is ignored.
// Past the last window it wraps when looping and stops otherwise.
func (c *Coordinator) Tick(generation uint64) bool {
	if !c.playback.Playing || generation != c.playback.Generation {
		return false
	}
	if len(c.windows) == 0 {
		c.Pause()
		return false
	}

	switch {
	case c.index < len(c.windows)-1:
		c.index++
	case c.playback.Loop:
		c.index = 0
	default:
		c.Pause()
		return false
	}

	c.windowChanged()
	return true
}

// Summary builds a digest of the current window. Strongest lists up to topN
// visible events by magnitude. ok is false when there is no window.
func (c *Coordinator) Summary(topN int) (models.WindowSummary, bool) {
	w := c.Current()
	if w == nil {
		return models.WindowSummary{}, false
	}

	visible := c.Routed().Map
	strongest := append([]models.Event(nil), visible...)
	sort.SliceStable(strongest, func(i, j int) bool {
		return strongest[i].Magnitude > strongest[j].Magnitude
	})
	if topN < 0 {
		topN = 0
	}
	if len(strongest) > topN {
		strongest = strongest[:topN]
	}

	maxMag := 0.0
	for i, e := range w.Events {
		if i == 0 || e.Magnitude > maxMag {
			maxMag = e.Magnitude
		}
	}

	return models.WindowSummary{
		ID:           uuid.New().String(),
		Mode:         c.mode,
		Label:        w.Label,
		Start:        w.Start,
		End:          w.End,
		Index:        c.index,
		Count:        len(c.windows),
		Total:        len(w.Events),
		Visible:      len(visible),
		MaxMagnitude: maxMag,
		Strongest:    strongest,
	}, true
}
