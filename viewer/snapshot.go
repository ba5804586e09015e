package viewer

import (
	"fmt"

	"github.com/spaghettifunk/orbis/engine"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/renderer"
)

type imageWriter interface {
	WriteImage(path string) error
}

/**
 * @brief Renders one frame of the scene with the software renderer and
 * writes it to outPath. The format follows the extension.
 */
func Snapshot(config *engine.ApplicationConfig, opts Options, outPath string) (err error) {
	if config == nil {
		config = engine.DefaultApplicationConfig()
	}
	config.Renderer = renderer.Software
	opts.Watch = false

	v, err := New(config, opts)
	if err != nil {
		return err
	}
	e, err := engine.New(v.Game)
	if err != nil {
		return err
	}
	defer func() {
		if serr := e.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}()

	if err := e.Initialize(); err != nil {
		return err
	}
	if err := e.Frame(0); err != nil {
		return err
	}

	w, ok := e.Backend().(imageWriter)
	if !ok {
		return fmt.Errorf("renderer %s cannot write images", config.Renderer)
	}
	if err := w.WriteImage(outPath); err != nil {
		return err
	}
	width, height := e.GetFramebufferSize()
	core.LogDebug("snapshot: %d instances, %dx%d", v.InstanceCount(), width, height)
	return nil
}
