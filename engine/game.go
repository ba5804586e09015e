package engine

import (
	"github.com/spaghettifunk/orbis/engine/assets"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
	"github.com/spaghettifunk/orbis/engine/systems"
)

/**
 * @brief The hooks an application plugs into the engine. The engine sets
 * SystemManager and AssetManager before calling FnBoot.
 */
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	AssetManager      *assets.AssetManager
	State             interface{}
	// Runs before the window and renderer exist. It may change ApplicationConfig.
	FnBoot       Boot
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type Render func(packet *metadata.RenderPacket, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
