package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newPresignCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "presign <content-type>",
		Short: "Issue an upload target for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.load()
			if err != nil {
				return err
			}
			defer svc.Shutdown()

			target, err := svc.Infrastructure.Storage.Presign(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(app.IO.Out)
			enc.SetIndent("", "  ")
			return enc.Encode(target)
		},
	}
}
