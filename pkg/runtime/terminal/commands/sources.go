package commands

import (
	"github.com/spf13/cobra"
)

func NewSourcesCmd(runtime *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the segment source profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := runtime.Context(cmd.Context())
			defer cancel()

			registry, err := runtime.Registry()
			if err != nil {
				return err
			}
			profiles, err := registry.GetProfiles(ctx)
			if err != nil {
				return err
			}
			return runtime.Reporter.HandleSources(profiles)
		},
	}
}
