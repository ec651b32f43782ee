package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"chatwidgets/internal/handlers"
	"chatwidgets/internal/service"
	"chatwidgets/internal/widget"
)

type RenderFlags struct {
	Token  *TokenFlags
	File   string
	Output string
}

func NewRenderFlags() *RenderFlags {
	return &RenderFlags{
		Token:  NewTokenFlags(),
		File:   "-",
		Output: "json",
	}
}

func (f *RenderFlags) BindFlags(fs *pflag.FlagSet) {
	f.Token.BindFlags(fs)
	fs.StringVarP(&f.File, "file", "f", f.File, "Chat message JSON to render, - for stdin")
	fs.StringVarP(&f.Output, "output", "o", f.Output, "Output format: json, html or url")
}

func (f *RenderFlags) Validate() error {
	switch f.Output {
	case "json", "html", "url":
		return nil
	default:
		return fmt.Errorf("unknown output format %q", f.Output)
	}
}

func NewRenderCommand() *cobra.Command {
	f := NewRenderFlags()

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the widget of one chat message",
		Long: `Reads a chat message as JSON, dispatches its user-defined block and
renders the resulting widget. A feedback widget fetches a token from
--token-url first; if none arrives, nothing is rendered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.Validate(); err != nil {
				return err
			}

			raw, err := readInput(cmd, f.File)
			if err != nil {
				return err
			}

			client, err := f.Token.Client()
			if err != nil {
				return err
			}
			svc := service.NewRenderService(widget.NewDispatcher(), widget.NewRenderer(client, f.Token.Timeout))

			out, err := svc.Render(cmd.Context(), raw)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch f.Output {
			case "url":
				if out.EmbedURL == "" {
					return fmt.Errorf("no embed URL for widget %s (state %q)", out.Widget, out.State)
				}
				_, err = fmt.Fprintln(w, out.EmbedURL)
			case "html":
				_, err = fmt.Fprintln(w, out.HTML)
			default:
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				err = enc.Encode(handlers.RenderResponse{
					Widget:   out.Widget,
					HTML:     out.HTML,
					EmbedURL: out.EmbedURL,
					State:    out.State,
				})
			}
			return err
		},
	}

	f.BindFlags(cmd.Flags())

	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't read message: %w", err)
	}
	return data, nil
}
