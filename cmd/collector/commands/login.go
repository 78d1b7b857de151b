package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open the dashboard, capture a fresh session and exit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.creds.Clear(); err != nil {
			return fmt.Errorf("clear credentials: %w", err)
		}

		res, err := a.capturer.Capture(cmd.Context())
		if err != nil {
			return err
		}
		if !res.Complete() {
			return errors.New("session captured without a token; log in and select the instrument before the wait ends")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "session saved: %d cookies, token %s\n", res.Cookies, res.Token.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
