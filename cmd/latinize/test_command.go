package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"latinize/internal/services"
	"latinize/internal/services/llm"
)

func newTestCommand(ctx *commandContext) *cobra.Command {
	var title, album string
	var dump bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send one latinization request and show the exchange",
		Long: "Send a single request for the given title and album using the current\n" +
			"configuration. Prints the latinized pair, or the error together with the\n" +
			"request URL, resolved prompt, request body, and response body.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(title) == "" && strings.TrimSpace(album) == "" {
				return errors.New("provide --title and/or --album")
			}
			client, err := ctx.newClient(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			exchange, err := client.Fetch(cmd.Context(), title, album)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				if errors.Is(err, services.ErrConfiguration) {
					fmt.Fprintln(out, "Check [llm] base_url and api_key (or LATINIZE_API_KEY) in the configuration.")
				}
				fmt.Fprintf(out, "\n%s\n", exchange.Dump())
				return err
			}

			result, err := llm.Parse(exchange.ResponseBody)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n\n%s\n", err, exchange.Dump())
				return err
			}
			fmt.Fprintf(out, "title_latin: %s\n", result.Title)
			fmt.Fprintf(out, "album_latin: %s\n", result.Album)
			if dump {
				fmt.Fprintf(out, "\n%s\n", exchange.Dump())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Track title to latinize")
	cmd.Flags().StringVar(&album, "album", "", "Album name to latinize")
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the exchange even on success")
	return cmd
}
