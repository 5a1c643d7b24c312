// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"time"

	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

// clock paces the event loop.
type clock struct {
	fps    int
	ticker *time.Ticker
}

func newClock(fps int) clock {
	interval := time.Millisecond
	if fps > 0 {
		interval = time.Second / time.Duration(fps)
	}
	return clock{
		fps:    fps,
		ticker: time.NewTicker(interval),
	}
}

func (c clock) stop() {
	c.ticker.Stop()
}

// run polls window events until the window is closed or escape is pressed.
func run(c clock, log logrus.FieldLogger) {
	defer c.stop()
	start := hrtime.Now()
	var ticks int

EventLoop:
	for range c.ticker.C {
		ticks++
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch et := event.(type) {
			case *sdl.KeyboardEvent:
				if et.Keysym.Sym == sdl.K_ESCAPE {
					break EventLoop
				}
			case *sdl.QuitEvent:
				break EventLoop
			}
		}
	}

	log.WithFields(logrus.Fields{
		"ticks":   ticks,
		"elapsed": hrtime.Since(start),
	}).Info("event loop exited")
}
