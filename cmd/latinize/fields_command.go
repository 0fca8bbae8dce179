package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"latinize/internal/fields"
)

type fieldsRow struct {
	Location   string `json:"location"`
	Title      string `json:"title"`
	Album      string `json:"album"`
	LatinTitle string `json:"latin_title"`
	LatinAlbum string `json:"latin_album"`
}

func newFieldsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "fields <path>...",
		Short: "Show cached latin_title and latin_album values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := ctx.newSource(cmd)
			if err != nil {
				return err
			}
			tracks, err := source.Collect(cmd.Context(), args)
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			provider := fields.NewProvider(store)

			rows := make([]fieldsRow, 0, len(tracks))
			for _, track := range tracks {
				rows = append(rows, fieldsRow{
					Location:   track.Location,
					Title:      track.Title,
					Album:      track.Album,
					LatinTitle: provider.Title(track),
					LatinAlbum: provider.Album(track),
				})
			}
			if jsonOutput {
				return writeJSON(cmd, rows)
			}

			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				tableRows = append(tableRows, []string{row.Title, row.Album, row.LatinTitle, row.LatinAlbum})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(tableSpec{
				headers:  []string{"Title", "Album", fields.LatinTitle, fields.LatinAlbum},
				rows:     tableRows,
				numbered: true,
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print fields as JSON")
	return cmd
}
