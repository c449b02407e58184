package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"sixhats/internal/adapter/terminal"
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Run one turn and print every hat's answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	res, err := a.session.Submit(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := terminal.NewRenderer(cmd.OutOrStdout())
	if err := out.Transcript(res.Turn()); err != nil {
		return err
	}
	return out.Synthesis(res.Synthesis)
}
