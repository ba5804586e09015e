package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/orbis/engine/assets/loaders"
	"github.com/spaghettifunk/orbis/engine/core"
	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
)

var ErrAssetManagerClosed = errors.New("asset manager already closed")

// Editors tend to emit several writes per save (truncate, write, chmod).
// A change is reported once no event arrived for this long.
const changeDebounce = 100 * time.Millisecond

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

type AssetManager struct {
	assetsDir string
	assets    map[string]AssetInfo
	loaders   map[metadata.ResourceType]Loader
	// files whose changes are reported as EVENT_CODE_ASSET_CHANGED, with
	// the pending debounce timer (nil while idle)
	watched    map[string]*time.Timer
	watchedDir map[string]int

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	running  bool
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:     make(map[string]AssetInfo),
		loaders:    make(map[metadata.ResourceType]Loader),
		watched:    make(map[string]*time.Timer),
		watchedDir: make(map[string]int),
		fsnotify:   fsWatch,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	am.registerLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeScene, &loaders.SceneLoader{})

	return am, nil
}

// Initialize indexes assetsDir and starts the watcher goroutine. An empty
// directory only starts the watcher.
func (am *AssetManager) Initialize(assetsDir string) error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return ErrAssetManagerClosed
	}
	if !am.running {
		am.running = true
		go am.start()
	}
	am.mutex.Unlock()

	if assetsDir == "" {
		return nil
	}
	abs, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.assetsDir = abs
	if err := am.addRecursive(abs); err != nil {
		err = fmt.Errorf("failed to watch assets directory %s: %w", abs, err)
		core.LogError(err.Error())
		return err
	}
	core.LogDebug("Asset manager indexed %d assets under %s", am.Count(), abs)
	return nil
}

// addRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.closed() {
		return ErrAssetManagerClosed
	}
	return am.watchRecursive(name)
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Resolve turns a name relative to the assets directory into the path
// the index uses. Absolute paths are cleaned and returned as is.
func (am *AssetManager) Resolve(name string) string {
	if filepath.IsAbs(name) || am.assetsDir == "" {
		abs, err := filepath.Abs(name)
		if err != nil {
			return filepath.Clean(name)
		}
		return abs
	}
	return filepath.Join(am.assetsDir, name)
}

// ShaderPath is the compiled SPIR-V stage for a shader name such as
// "flat.vert".
func (am *AssetManager) ShaderPath(name string) string {
	return am.Resolve(filepath.Join("shaders", name+".spv"))
}

// LoadAsset loads a file with the loader registered for resourceType. Files
// outside the indexed directory are loaded directly.
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType) (*metadata.Resource, error) {
	var path string
	if resourceType == metadata.ResourceTypeShader && filepath.Ext(name) != ".spv" {
		path = am.ShaderPath(name)
	} else {
		path = am.Resolve(name)
	}

	loader, exists := am.loaders[resourceType]
	if !exists {
		err := fmt.Errorf("no loader registered for asset type: %s", resourceType)
		core.LogError(err.Error())
		return nil, err
	}

	res, err := loader.Load(path, resourceType)
	if err != nil {
		err = fmt.Errorf("failed to load %s asset %s: %w", resourceType, path, err)
		core.LogError(err.Error())
		return nil, err
	}
	res.Type = resourceType
	if res.Name == "" {
		res.Name = name
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: resourceType, LastLoaded: time.Now()}
	am.mutex.Unlock()

	return res, nil
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource) error {
	if res == nil {
		return nil
	}
	loader, exists := am.loaders[res.Type]
	if !exists {
		return fmt.Errorf("no loader registered for asset type: %s", res.Type)
	}
	return loader.Unload(res)
}

// Asset returns the index entry of path.
func (am *AssetManager) Asset(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[am.Resolve(path)]
	return info, ok
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

/**
 * @brief Reports writes to path as EVENT_CODE_ASSET_CHANGED. The parent
 * directory is watched so that editors replacing the file by rename are
 * still seen.
 */
func (am *AssetManager) WatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.isClosed {
		return ErrAssetManagerClosed
	}
	if _, ok := am.watched[abs]; ok {
		return nil
	}
	if am.watchedDir[dir] == 0 {
		if err := am.fsnotify.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	am.watchedDir[dir]++
	am.watched[abs] = nil
	core.LogInfo("Watching %s for changes", abs)
	return nil
}

func (am *AssetManager) UnwatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	am.mutex.Lock()
	defer am.mutex.Unlock()
	timer, ok := am.watched[abs]
	if !ok {
		return nil
	}
	if timer != nil {
		timer.Stop()
	}
	delete(am.watched, abs)
	am.watchedDir[dir]--
	if am.watchedDir[dir] == 0 {
		delete(am.watchedDir, dir)
		if !am.isWithinAssets(dir) {
			return am.fsnotify.Remove(dir)
		}
	}
	return nil
}

func (am *AssetManager) isWithinAssets(dir string) bool {
	if am.assetsDir == "" {
		return false
	}
	return dir == am.assetsDir || strings.HasPrefix(dir, am.assetsDir+string(filepath.Separator))
}

// Shutdown stops the watcher goroutine and waits for it.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	running := am.running
	for _, timer := range am.watched {
		if timer != nil {
			timer.Stop()
		}
	}
	am.mutex.Unlock()

	if !running {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			if err := am.fsnotify.Close(); err != nil {
				core.LogError(err.Error())
			}
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("failed to watch new directory %s: %s", e.Name, err)
			}
		}
		return
	}
	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		am.handleFileEvent(e.Name)
		am.notifyChanged(e.Name)
	}
	// a deleted path cannot be stat'ed, so it is dropped from both lists
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		am.removeAsset(e.Name)
	}
}

// notifyChanged (re)arms the debounce timer of a watched file. The change is
// posted when the timer fires, after the last event of a burst.
func (am *AssetManager) notifyChanged(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	timer, ok := am.watched[abs]
	if !ok || am.isClosed {
		return
	}
	if timer == nil {
		am.watched[abs] = time.AfterFunc(changeDebounce, func() { am.postChanged(abs) })
		return
	}
	timer.Reset(changeDebounce)
}

// postChanged hands the change of abs to the main loop.
func (am *AssetManager) postChanged(abs string) {
	am.mutex.RLock()
	_, ok := am.watched[abs]
	closed := am.isClosed
	am.mutex.RUnlock()
	if !ok || closed {
		return
	}

	core.LogDebug("asset changed: %s", abs)
	if err := core.EventPost(core.EventContext{
		Type: core.EVENT_CODE_ASSET_CHANGED,
		Data: &core.AssetEvent{Path: abs},
	}); err != nil {
		core.LogWarn("dropped change notification for %s: %s", abs, err)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[abs] = AssetInfo{
		Path:       abs,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, abs)
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".spv":
		return metadata.ResourceTypeShader
	case ".toml":
		return metadata.ResourceTypeScene
	case ".bin":
		return metadata.ResourceTypeBinary
	default:
		return metadata.ResourceTypeNone
	}
}
