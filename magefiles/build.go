//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderStages = []string{"flat.vert", "flat.frag"}

// Compiles the GLSL stages under assets/shaders to SPIR-V.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the orbis binary into bin/.
func (Build) Viewer() error {
	mg.Deps(Build.Shaders)
	return goRun("build", "-o", filepath.Join("bin", "orbis"), ".")
}

func buildShaders() error {
	if err := requireTool("glslc", "install the Vulkan SDK or shaderc"); err != nil {
		return err
	}
	for _, stage := range shaderStages {
		if err := compileShader(stage); err != nil {
			return err
		}
	}
	return nil
}
