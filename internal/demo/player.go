package demo

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"flipdot/internal/flipdot"
	appLog "flipdot/internal/log"
)

// Display is the part of flipdot.Controller the player renders through.
type Display interface {
	Height() int
	Width() int
	UpdateFrame(frame *flipdot.Grid)
}

// Player shows pattern frames on a display with a fixed delay between them.
type Player struct {
	display    Display
	frameDelay time.Duration

	// OnFrame, if set, is called after each frame has been flipped.
	OnFrame func(p Pattern, index int, frame *flipdot.Grid)
}

// NewPlayer returns a player for d.
func NewPlayer(d Display, frameDelay time.Duration) *Player {
	return &Player{display: d, frameDelay: frameDelay}
}

// Play renders every frame of p. A frame is never interrupted once started;
// ctx is checked between frames.
func (pl *Player) Play(ctx context.Context, p Pattern) error {
	frames, err := p.Frames(pl.display.Height(), pl.display.Width())
	if err != nil {
		return err
	}

	appLog.Info("playing pattern", "pattern", p.Name(), "frames", len(frames))
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		pl.display.UpdateFrame(f)
		if pl.OnFrame != nil {
			pl.OnFrame(p, i, f)
		}
		if i == len(frames)-1 || pl.frameDelay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pl.frameDelay):
		}
	}
	return nil
}

// Playlist cycles through pattern names.
type Playlist struct {
	mu    sync.Mutex
	names []string
	next  int
}

// NewPlaylist returns a playlist over names, starting at the first.
func NewPlaylist(names []string) *Playlist {
	return &Playlist{names: append([]string(nil), names...)}
}

// Next returns the next name, wrapping around. It returns "" for an empty
// playlist.
func (pl *Playlist) Next() string {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if len(pl.names) == 0 {
		return ""
	}
	n := pl.names[pl.next]
	pl.next = (pl.next + 1) % len(pl.names)
	return n
}

// Schedule adds a cron job that queues the next playlist entry on every
// tick. Only the render loop reading queue touches the display; a tick that
// finds the queue full is dropped.
func (pl *Playlist) Schedule(c *cron.Cron, spec string, queue chan<- string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		name := pl.Next()
		if name == "" {
			return
		}
		select {
		case queue <- name:
		default:
			appLog.Debug("display busy, skipping pattern", "pattern", name)
		}
	})
}
