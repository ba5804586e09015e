//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"
)

var shaderDir = filepath.Join("assets", "shaders")

// requireTool fails with an install hint when name is not on $PATH.
func requireTool(name, hint string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found on PATH, %s", name, hint)
	}
	return nil
}

// compileShader turns one GLSL stage into SPIR-V next to it. Stages whose
// .spv is newer than the source are skipped.
func compileShader(stage string) error {
	src := filepath.Join(shaderDir, stage)
	out := src + ".spv"
	stale, err := target.Path(out, src)
	if err != nil {
		return err
	}
	if !stale {
		if mg.Verbose() {
			fmt.Printf("%s is up to date\n", out)
		}
		return nil
	}
	fmt.Printf("Compiling %s\n", src)
	return sh.RunV("glslc", "--target-env=vulkan1.0", src, "-o", out)
}

// viewerArgs are the orbis flags shared by the run targets. $SCENE selects
// the scene file, empty keeps the built-in one.
func viewerArgs(extra ...string) []string {
	args := append([]string{"run", "."}, extra...)
	if scene := os.Getenv("SCENE"); scene != "" {
		args = append(args, "-scene", scene)
	}
	return args
}

func goRun(args ...string) error {
	return sh.RunV(mg.GoCmd(), args...)
}
