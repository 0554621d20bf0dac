package shaders

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/gogpu/naga"
)

//go:embed shader.wgsl
var ShaderWGSL string

//go:embed debug.wgsl
var DebugWGSL string

//go:embed instanced.wgsl
var InstancedWGSL string

// Entry points every program exports.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// Program is one embedded shader with the shading preset it mirrors on the
// CPU side.
type Program struct {
	Name      string
	Source    string
	Preset    string
	Instanced bool
}

var programs = map[string]Program{
	"shader":    {Name: "shader", Source: ShaderWGSL, Preset: "rim"},
	"debug":     {Name: "debug", Source: DebugWGSL, Preset: "debug"},
	"instanced": {Name: "instanced", Source: InstancedWGSL, Preset: "instanced", Instanced: true},
}

func Lookup(name string) (Program, bool) {
	p, ok := programs[name]
	return p, ok
}

// All returns the programs sorted by name.
func All() []Program {
	out := make([]Program, 0, len(programs))
	for _, p := range programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Compile translates the program to SPIR-V words, failing on invalid WGSL.
func (p Program) Compile() ([]uint32, error) {
	spirvBytes, err := naga.Compile(p.Source)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", p.Name, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile %s: SPIR-V size %d is not word aligned", p.Name, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
