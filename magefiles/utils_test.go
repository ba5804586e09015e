//go:build mage

package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestViewerArgs(t *testing.T) {
	tests := []struct {
		name  string
		scene string
		extra []string
		want  []string
	}{
		{"built-in scene", "", []string{"-watch"}, []string{"run", ".", "-watch"}},
		{"scene from env", "scenes/a.toml", []string{"-snapshot", "out.png"}, []string{"run", ".", "-snapshot", "out.png", "-scene", "scenes/a.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCENE", tt.scene)
			if got := viewerArgs(tt.extra...); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireToolMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	err := requireTool("glslc", "install shaderc")
	if err == nil || !strings.Contains(err.Error(), "install shaderc") {
		t.Fatalf("expected a hint for the missing tool, got %v", err)
	}
}
