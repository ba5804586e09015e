package loaders

import (
	"os"
	"path/filepath"

	"github.com/spaghettifunk/orbis/engine/renderer/metadata"
	"github.com/spaghettifunk/orbis/engine/scene"
)

// SceneLoader decodes a TOML scene. Data is *scene.Config.
type SceneLoader struct{}

func (sl *SceneLoader) Load(path string, assetType metadata.ResourceType) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := scene.Decode(data)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeScene,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     cfg,
	}, nil
}

func (sl *SceneLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	return nil
}
