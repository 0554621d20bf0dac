package main

import (
	"errors"
	"fmt"

	"github.com/gekko3d/meshlight"
	"github.com/gekko3d/meshlight/render/gpu"
	"github.com/gekko3d/meshlight/render/shaders"

	"github.com/spf13/cobra"
)

func newShadersCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shaders [name...]",
		Short: "Compile the embedded WGSL programs and check them against the host bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkShaders(global.logger(), args)
		},
	}
}

func checkShaders(logger meshlight.Logger, names []string) error {
	programs := shaders.All()
	if len(names) > 0 {
		programs = programs[:0]
		for _, name := range names {
			p, ok := shaders.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown shader program %q", name)
			}
			programs = append(programs, p)
		}
	}

	var errs []error
	for _, p := range programs {
		if err := gpu.ValidateShaderBindings(p); err != nil {
			logger.Errorf("%s: %v", p.Name, err)
			errs = append(errs, err)
			continue
		}
		words, err := p.Compile()
		if err != nil {
			logger.Errorf("%s: %v", p.Name, err)
			errs = append(errs, err)
			continue
		}
		logger.Infof("%s: ok (preset %s, instanced %v, %d SPIR-V words)", p.Name, p.Preset, p.Instanced, len(words))
	}
	return errors.Join(errs...)
}
