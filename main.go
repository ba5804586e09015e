/*
orbis opens a window on a scene of procedurally generated primitives, or
renders it headless to an image with -snapshot.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/orbis/engine"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/viewer"
)

func main() {
	var (
		scenePath = flag.String("scene", "", "TOML scene to show, the built-in scene when empty")
		snapshot  = flag.String("snapshot", "", "render one frame headless to this .png, .bmp or .tiff file and exit")
		width     = flag.Uint("width", 0, "override the window width of the scene")
		height    = flag.Uint("height", 0, "override the window height of the scene")
		logLevel  = flag.String("log-level", "info", "debug, info, warn or error")
		workers   = flag.Int("workers", 0, "mesh generation workers, 0 for the default")
		watch     = flag.Bool("watch", false, "reload the scene when its file changes")
		debug     = flag.Bool("debug", false, "enable the Vulkan validation layers")
		assetsDir = flag.String("assets", "assets", "directory holding the compiled shaders")
		limitFPS  = flag.Bool("limit-fps", true, "cap the frame rate at 60 frames per second")
	)
	flag.Parse()

	level, err := core.ParseLogLevel(*logLevel)
	if err != nil {
		core.LogFatal(err.Error())
	}

	config := engine.DefaultApplicationConfig()
	config.LogLevel = level
	config.JobWorkers = *workers
	config.Debug = *debug
	config.AssetsDir = *assetsDir
	config.LimitFrameRate = *limitFPS

	opts := viewer.Options{
		ScenePath: *scenePath,
		Watch:     *watch,
		Width:     uint32(*width),
		Height:    uint32(*height),
	}

	if *snapshot != "" {
		core.SetLogLevel(level)
		if err := viewer.Snapshot(config, opts, *snapshot); err != nil {
			core.LogFatal("snapshot failed: %s", err)
		}
		return
	}

	sv, err := viewer.New(config, opts)
	if err != nil {
		core.LogFatal(err.Error())
	}

	e, err := engine.New(sv.Game)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("failed to initialize: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the main loop owns the window, so the quit is posted to it
	go func() {
		<-sigCh
		if err := core.EventPost(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT}); err != nil {
			core.LogError("failed to post quit: %s", err)
		}
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown failed: %s", err)
	}
	if runErr != nil {
		core.LogFatal(runErr.Error())
	}
}
