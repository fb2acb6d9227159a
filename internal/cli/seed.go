package cli

import (
	"github.com/spf13/cobra"

	appseed "3tcapital/ms_ecf_core/internal/application/seed"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "semilla",
		Short: "Emite una semilla de autenticación (SemillaModel)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(cmd)
			issued, err := appseed.NewService(nil, nil, log).Issue(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(issued.XML); err != nil {
				return err
			}
			_, err = out.Write([]byte("\n"))
			return err
		},
	}
}
