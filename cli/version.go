package cli

import (
	"encoding/json"
	"fmt"

	"github.com/lendflow/lendflow/pkg/version"
	"github.com/spf13/cobra"
)

const versionCommand = "version"

func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   versionCommand,
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(info)
			}
			_, err = fmt.Fprintf(out, "lendflow %s (commit %s, built %s, %s)\n",
				info.Version, info.CommitHash, info.BuildDate, info.GoVersion)
			return err
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}
