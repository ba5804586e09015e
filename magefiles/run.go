//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Opens the viewer on the scene in $SCENE, or the built-in one, reloading it on save.
func (Run) Viewer() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run viewer...")
	return goRun(viewerArgs("-watch")...)
}

// Renders the scene in $SCENE headless to snapshot.png.
func (Run) Snapshot() error {
	return goRun(viewerArgs("-snapshot", "snapshot.png")...)
}
