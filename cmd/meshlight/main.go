// Command meshlight renders scenes offline and checks the embedded shaders.
package main

import (
	"fmt"
	"os"

	"github.com/gekko3d/meshlight"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOptions struct {
	verbose bool
}

func (o *globalOptions) logger() meshlight.Logger {
	return meshlight.NewDefaultLogger("meshlight", o.verbose)
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "meshlight",
		Short:         "Blinn-Phong mesh renderer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRenderCommand(opts))
	root.AddCommand(newShadersCommand(opts))
	return root
}
