// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command texel loads the textures given on the command line through
// the throttled pipeline on a real Vulkan device, as a demonstration
// and a smoke test for driver setups.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/texel/gfx/vkr"
	"github.com/devblok/texel/loop"
	"github.com/devblok/texel/sched"
	"github.com/devblok/texel/texture"
)

func init() {
	runtime.LockOSThread()
}

var (
	cpuProfile = flag.String("cpuprof", "", "Profile CPU usage to file")
	debug      = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	deviceIdx  = flag.Int("device", 0, "Physical device index")
)

func main() {
	flag.Parse()

	if level, err := log.ParseLevel(envy.Get("TEXEL_LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	if flag.NArg() == 0 {
		log.Fatal("no texture files given")
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.Fatal(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		log.Fatal(err)
	}
	defer sdl.VulkanUnloadLibrary()

	window, err := sdl.CreateWindow("Texel",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		800, 600,
		sdl.WINDOW_VULKAN|sdl.WINDOW_HIDDEN)
	if err != nil {
		log.Fatal(err)
	}
	defer window.Destroy()

	instance, err := vkr.NewInstance(vkr.DefaultApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), vkr.InstanceConfiguration{
		DebugMode:  *debug,
		Extensions: window.VulkanGetInstanceExtensions(),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer instance.Destroy()

	device, err := vkr.NewDevice(instance, vkr.DeviceConfiguration{DeviceIndex: *deviceIdx})
	if err != nil {
		log.Fatal(err)
	}

	frameLoop := loop.New(loop.Config{TicksPerSecond: 60})
	defer frameLoop.Stop()

	manager, err := texture.NewManager(device, frameLoop, texture.ConfigFromEnv(), log.StandardLogger())
	if err != nil {
		log.Fatal(err)
	}
	defer manager.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pendings := make(map[string]*texture.Pending, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %s", path, err)
		}

		name := filepath.Base(path)
		var pending *texture.Pending
		if strings.HasSuffix(path, ".ktex") {
			pending, err = manager.FromContainerAsync(ctx, data, name, sched.PriorityNormal)
		} else {
			pending, err = manager.FromImageAsync(ctx, data, name, sched.PriorityLow)
		}
		if err != nil {
			log.Fatalf("submit %s: %s", path, err)
		}
		pendings[name] = pending
	}

	for name, pending := range pendings {
		wrap, err := pending.Wait(ctx)
		if err != nil {
			log.Errorf("load %s: %s", name, err)
			continue
		}
		log.WithFields(log.Fields{
			"name": name,
			"size": wrap.Width() * wrap.Height(),
		}).Info("texture loaded")
		if err := wrap.Release(); err != nil {
			log.Errorf("release %s: %s", name, err)
		}
	}
}
