// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/xlab/closer"

	"github.com/devblok/kiln/core"
	"github.com/devblok/kiln/device"
	"github.com/devblok/kiln/window"
)

func init() {
	runtime.LockOSThread()
}

var (
	configFile = flag.String("config", "kiln.env", "Configuration file, skipped when missing")
	shaderPath = flag.String("shaders", "", "Shader directory or .kar archive, overrides KILN_SHADERS")
	fps        = flag.Int("fps", 60, "Event loop frequency")
	once       = flag.Bool("once", false, "Destroy the context right after bootstrap")
)

// Defaults holds the built in configuration.
var Defaults = packr.NewBox("./config")

// seedDefaults sets every default key not already in the environment.
func seedDefaults() error {
	data, err := Defaults.Find("kiln.env")
	if err != nil {
		return err
	}
	values, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return err
	}
	for key, value := range values {
		if _, ok := os.LookupEnv(key); !ok {
			envy.Set(key, value)
		}
	}
	return nil
}

// fatal logs err and exits after running the bound cleanups.
func fatal(log logrus.FieldLogger, err error, msg string) {
	log.WithError(err).Error(msg)
	closer.Exit(1)
}

func main() {
	flag.Parse()
	log := logrus.New()
	closer.Bind(func() {
		log.Info("bye")
	})
	defer closer.Close()

	if err := seedDefaults(); err != nil {
		fatal(log, err, "reading built in configuration")
	}
	cfg, err := core.LoadConfiguration(*configFile)
	if err != nil {
		fatal(log, err, "loading configuration")
	}
	log.SetLevel(cfg.LogLevel)
	cfg.Logger = log
	if *shaderPath != "" {
		cfg.Shaders = *shaderPath
	}

	shaders, err := core.LoadShaders(cfg.Shaders)
	if err != nil {
		fatal(log, err, "loading shaders")
	}
	log.WithField("count", len(shaders)).Info("shaders loaded")

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		fatal(log, err, "sdl.Init")
	}
	closer.Bind(sdl.Quit)

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		fatal(log, err, "sdl.VulkanLoadLibrary")
	}
	closer.Bind(sdl.VulkanUnloadLibrary)

	win, err := window.New(cfg.Window)
	if err != nil {
		fatal(log, err, "creating window")
	}
	closer.Bind(func() {
		if err := win.Destroy(); err != nil {
			log.WithError(err).Warn("destroying window")
		}
	})

	driver, err := device.NewVulkan(sdl.VulkanGetVkGetInstanceProcAddr(), log)
	if err != nil {
		fatal(log, err, "loading vulkan")
	}

	ctx, err := core.Bootstrap(driver, win, cfg, shaders)
	if err != nil {
		fatal(log, err, "bootstrap")
	}
	closer.Bind(ctx.Destroy)

	log.WithFields(logrus.Fields{
		"device":    ctx.PhysicalDevice.Name,
		"resources": ctx.Owned(),
	}).Info("ready")

	if *once {
		return
	}
	run(newClock(*fps), log)
}
