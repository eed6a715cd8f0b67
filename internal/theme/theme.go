// Package theme owns the process-wide light/dark switch used when rendering
// answers to images.
package theme

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Theme selects the pair of stylesheets embedded in a rendered page.
type Theme int

const (
	Light Theme = iota
	Dark
)

func (t Theme) String() string {
	if t == Light {
		return "light"
	}
	return "dark"
}

// FlipSpec fires at the top of hours 6 and 18 local time.
const FlipSpec = "0 6,18 * * *"

// Clock holds the current theme. Readers never block each other; Flip takes
// the write lock for a single assignment.
type Clock struct {
	mu    sync.RWMutex
	light bool
}

// New returns a clock initialised from the hour of now: light from 06:00
// until 18:00, dark otherwise.
func New(now time.Time) *Clock {
	return &Clock{light: IsDaytime(now.Hour())}
}

// IsDaytime reports whether hour falls in the light half of the day.
func IsDaytime(hour int) bool {
	return hour >= 6 && hour < 18
}

// Current returns the theme in effect.
func (c *Clock) Current() Theme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.light {
		return Light
	}
	return Dark
}

// Flip toggles between light and dark.
func (c *Clock) Flip() {
	c.mu.Lock()
	c.light = !c.light
	c.mu.Unlock()
}

// Schedule registers Flip on the given cron scheduler.
func (c *Clock) Schedule(sched *cron.Cron) error {
	_, err := sched.AddFunc(FlipSpec, func() {
		c.Flip()
		log.Printf("theme: switched to %s", c.Current())
	})
	if err != nil {
		return fmt.Errorf("scheduling theme flip: %w", err)
	}
	return nil
}
