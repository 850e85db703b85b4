package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/JakeStanger/rust-bindocs/internal/render"
	"github.com/JakeStanger/rust-bindocs/internal/replacer"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		width int
		raw   bool
		save  string
	)
	cmd := &cobra.Command{
		Use:   "preview <template>",
		Short: "Render one template as markdown and show it in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.prepare(cmd)
			if err != nil {
				return err
			}

			input, err := os.ReadFile(args[0])
			if err != nil {
				return withCode(1, fmt.Errorf("read template: %w", err))
			}

			style := render.TypesFull
			if ws.cfg.SimplifiedTypes {
				style = render.TypesSimplified
			}

			if save != "" {
				doc, err := render.ForFile(save)
				if err != nil {
					return withCode(1, err)
				}
				if err := replacer.New(doc, ws.resolver, style, ws.log).Replace(string(input)); err != nil {
					return withCode(1, err)
				}
				if err := saveDocument(save, doc); err != nil {
					return withCode(1, fmt.Errorf("write %s: %w", save, err))
				}
				ws.log.Info("preview saved", "file", save)
				return nil
			}

			md := render.NewMarkdown()
			if err := replacer.New(md, ws.resolver, style, ws.log).Replace(string(input)); err != nil {
				return withCode(1, err)
			}

			out := md.String()
			if !raw {
				tr, err := glamour.NewTermRenderer(
					glamour.WithAutoStyle(),
					glamour.WithWordWrap(width),
				)
				if err != nil {
					return withCode(1, fmt.Errorf("create terminal renderer: %w", err))
				}
				if out, err = tr.Render(out); err != nil {
					return withCode(1, fmt.Errorf("render preview: %w", err))
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown without terminal styling")
	cmd.Flags().StringVar(&save, "save", "", "write the rendered template to this file instead, backend chosen by extension")
	return cmd
}

func saveDocument(path string, doc render.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
