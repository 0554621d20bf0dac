package main

import (
	"path/filepath"
	"testing"

	"github.com/gekko3d/meshlight"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePath(t *testing.T) {
	assert.Equal(t, "out/frame_0003.png", framePath("out/frame.png", 3))
	assert.Equal(t, "out/f007.bmp", framePath("out/f%03d.bmp", 7))
	assert.Equal(t, "frame_0012", framePath("frame", 12))
}

func TestCheckShadersUnknownProgram(t *testing.T) {
	err := checkShaders(meshlight.NewNopLogger(), []string{"toon"})
	assert.ErrorContains(t, err, "toon")
}

func TestRunRenderWritesImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frame.bmp")
	err := runRender(t.Context(), meshlight.NewNopLogger(), &renderOptions{
		out:    out,
		format: "bmp",
		width:  32,
		height: 24,
	})
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestRunRenderTurntable(t *testing.T) {
	dir := t.TempDir()
	err := runRender(t.Context(), meshlight.NewNopLogger(), &renderOptions{
		out:    filepath.Join(dir, "spin.png"),
		frames: 2,
		debug:  true,
		width:  16,
		height: 16,
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "spin_0000.png"))
	assert.FileExists(t, filepath.Join(dir, "spin_0001.png"))
}
