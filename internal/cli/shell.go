package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/onlinetravel/internal/app"
)

func (r *runtime) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "shell",
		Short:       "Plan and travel interactively",
		Long:        "shell shows the trip planner screens and reads commands from stdin. Type help for the command list.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationScreens: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.NewShell(r.app, r.in, cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}
