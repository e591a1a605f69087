package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/streamlink/internal/adapters/driven/platforms"
	"github.com/custodia-labs/streamlink/internal/config"
)

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the supported platforms and whether credentials are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated()
			if err != nil {
				return err
			}
			creds := platformCredentials(cfg)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"PLATFORM", "NAME", "CONFIGURED", "AUTHORIZE URL", "SCOPES"})

			for _, def := range platforms.Definitions() {
				configured := text.FgRed.Sprint("no")
				if creds[def.Platform].Configured() {
					configured = text.FgGreen.Sprint("yes")
				}
				t.AppendRow(table.Row{
					def.Platform,
					def.Platform.DisplayName(),
					configured,
					def.Endpoints.AuthURL,
					strings.Join(def.Scopes, " "),
				})
			}

			t.Render()
			return nil
		},
	}
}
