package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/modkit/config"
	"github.com/GoCodeAlone/modkit/internal/app"
	"github.com/GoCodeAlone/modkit/logging"
)

// NewRoutesCommand lists the routes the application would serve.
func NewRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List controller prefixes and HTTP routes",
		Long: `Build the application without listening and print the controller prefixes
in binding order followed by every method and path registered on the router.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := configPaths(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(paths...)
			if err != nil {
				return err
			}
			logger, err := logging.NewZap("error", cfg.Production)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := app.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PREFIX\tCONTROLLER")
			for _, r := range a.Routes() {
				fmt.Fprintf(w, "%s\t%s\n", r.Path, r.Controller)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, strings.Join(a.Router.Routes(), "\n"))
			return nil
		},
	}
}
