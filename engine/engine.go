package engine

import (
	"fmt"

	"github.com/spaghettifunk/orbis/engine/assets"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/platform"
	"github.com/spaghettifunk/orbis/engine/renderer"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
	"github.com/spaghettifunk/orbis/engine/renderer/software"
	"github.com/spaghettifunk/orbis/engine/renderer/vulkan"
	"github.com/spaghettifunk/orbis/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageBooting:
		return "booting"
	case EngineStageBootComplete:
		return "boot complete"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// Seconds between two frame time reports at debug level.
const metricsReportInterval = 5.0

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     bool
	isSuspended   bool
	platform      *platform.Platform
	backend       renderer.RendererBackend
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      float64
	lastReport    float64

	handles map[core.EventCode]core.EventHandle
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		err := fmt.Errorf("engine requires a game with an application config")
		core.LogError(err.Error())
		return nil, err
	}
	config := g.ApplicationConfig
	core.SetLogLevel(config.LogLevel)

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	var p *platform.Platform
	var backend renderer.RendererBackend
	switch config.Renderer {
	case renderer.Vulkan:
		p = platform.New()
		backend = vulkan.New(p, am, config.Debug)
	case renderer.Software:
		backend = software.New(software.Options{Supersample: software.DefaultSupersample})
	default:
		err := fmt.Errorf("unknown renderer type %d", config.Renderer)
		core.LogError(err.Error())
		_ = am.Shutdown()
		return nil, err
	}

	smConfig := systems.DefaultSystemManagerConfig()
	if config.JobWorkers > 0 {
		smConfig.JobWorkers = config.JobWorkers
	}
	sm, err := systems.NewSystemManager(renderer.New(backend), smConfig)
	if err != nil {
		core.LogError(err.Error())
		_ = am.Shutdown()
		return nil, err
	}

	g.SystemManager = sm
	g.AssetManager = am

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		clock:         core.NewClock(),
		platform:      p,
		backend:       backend,
		assetManager:  am,
		systemManager: sm,
		isRunning:     false,
		isSuspended:   false,
		width:         config.StartWidth,
		height:        config.StartHeight,
		handles:       make(map[core.EventCode]core.EventHandle),
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine cannot initialize while %s", e.currentStage)
	}
	e.currentStage = EngineStageBooting

	// initialize input
	if err := core.InputInitialize(); err != nil {
		return err
	}

	// initialize events
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// register some events
	e.handles[core.EVENT_CODE_APPLICATION_QUIT] = core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	e.handles[core.EVENT_CODE_KEY_PRESSED] = core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	e.handles[core.EVENT_CODE_RESIZED] = core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)

	config := e.gameInstance.ApplicationConfig
	if err := e.assetManager.Initialize(config.AssetsDir); err != nil {
		return err
	}

	if e.gameInstance.FnBoot != nil {
		if err := e.gameInstance.FnBoot(); err != nil {
			core.LogError("game boot failed: %s", err)
			return err
		}
	}
	// boot may have changed the window size
	e.width = config.StartWidth
	e.height = config.StartHeight
	e.currentStage = EngineStageBootComplete

	e.currentStage = EngineStageInitializing
	if e.platform != nil {
		if err := e.platform.Startup(config.Name,
			config.StartPosX,
			config.StartPosY,
			config.StartWidth,
			config.StartHeight); err != nil {
			return err
		}
		// high DPI displays report a framebuffer larger than the window
		if w, h := e.platform.FramebufferSize(); w != 0 && h != 0 {
			e.width, e.height = w, h
		}
	}

	backendConfig := config.backendConfig()
	backendConfig.Width = e.width
	backendConfig.Height = e.height
	if err := e.systemManager.Initialize(backendConfig); err != nil {
		return err
	}

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}

	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the window until it closes or a quit event is fired.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine cannot run while %s", e.currentStage)
	}
	if e.platform == nil {
		return fmt.Errorf("engine has no window to run, use Frame to render headless")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	config := e.gameInstance.ApplicationConfig
	targetFrameSeconds := 1.0 / 60.0
	if config.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / config.TargetFPS
	}

	for e.isRunning {
		if !e.platform.PumpMessages() {
			e.isRunning = false
		}
		// events posted from other goroutines (signals, asset watcher)
		core.ProcessEvents()

		if !e.isRunning || e.isSuspended {
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := platform.GetAbsoluteTime()

		if err := e.Frame(delta); err != nil {
			core.LogError("frame failed, shutting down: %s", err)
			e.isRunning = false
			return err
		}

		// Figure out how long the frame took and, if below the target, give the rest back to the OS.
		frameElapsedTime := platform.GetAbsoluteTime() - frameStartTime
		remainingSeconds := targetFrameSeconds - frameElapsedTime
		if config.LimitFrameRate && remainingSeconds > 0 {
			remainingMS := remainingSeconds * 1000
			if remainingMS > 1 {
				e.platform.Sleep(remainingMS - 1)
			}
		}
		core.MetricsUpdate(frameElapsedTime)
		if currentTime-e.lastReport >= metricsReportInterval {
			fps, frameTime := core.MetricsFrame()
			core.LogDebug("%.1f fps, %.3f ms/frame", fps, frameTime)
			e.lastReport = currentTime
		}

		e.lastTime = currentTime
	}
	return nil
}

/**
 * @brief Updates the game and draws a single frame. Headless applications
 * call it directly instead of Run.
 */
func (e *Engine) Frame(delta float64) error {
	if e.currentStage != EngineStageInitialized && e.currentStage != EngineStageRunning {
		return fmt.Errorf("engine cannot draw a frame while %s", e.currentStage)
	}
	if err := e.gameInstance.FnUpdate(delta); err != nil {
		core.LogError("game update failed: %s", err)
		return err
	}

	packet := &metadata.RenderPacket{
		DeltaTime: delta,
	}
	// Call the game's render routine.
	if err := e.gameInstance.FnRender(packet, delta); err != nil {
		core.LogError("game render failed: %s", err)
		return err
	}
	if err := e.systemManager.DrawFrame(packet); err != nil {
		return err
	}

	// NOTE: Input update/state copying should always be handled
	// after any input should be recorded; I.E. before this line.
	return core.InputUpdate(delta)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false
	e.clock.Stop()

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown failed: %s", err)
		}
	}
	for code, handle := range e.handles {
		core.EventUnregister(code, handle)
	}
	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			return err
		}
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	if err := core.InputShutdown(); err != nil {
		return err
	}
	return nil
}

// Stage reports the lifecycle stage of the engine.
func (e *Engine) Stage() Stage {
	return e.currentStage
}

// IsSuspended is true while the window is minimized.
func (e *Engine) IsSuspended() bool {
	return e.isSuspended
}

// Backend exposes the renderer backend, e.g. to read back a software frame.
func (e *Engine) Backend() renderer.RendererBackend {
	return e.backend
}

// GetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) bool {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_APPLICATION_QUIT,
		})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	width := se.WindowWidth
	height := se.WindowHeight

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	if err := e.systemManager.OnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	return false
}
