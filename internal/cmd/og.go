package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folio/folio/internal/ogcard"
)

var (
	ogTitle    string
	ogSubtitle string
	ogOut      string
)

var ogCmd = &cobra.Command{
	Use:   "og",
	Short: "Open Graph card tools",
}

var ogRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an Open Graph card to a PNG file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := strings.TrimSpace(ogOut)
		if path == "" {
			return fmt.Errorf("--out is required")
		}

		renderer, err := ogcard.NewRenderer()
		if err != nil {
			return err
		}
		card := ogcard.Resolve(ogTitle, ogSubtitle, cfg.OG.Title, cfg.OG.Subtitle)

		file, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := renderer.Encode(file, card); err != nil {
			_ = file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %dx%d card to %s\n", ogcard.Width, ogcard.Height, path)
		return err
	},
}

func init() {
	ogRenderCmd.Flags().StringVar(&ogTitle, "title", "", "Card title (defaults to og.title)")
	ogRenderCmd.Flags().StringVar(&ogSubtitle, "subtitle", "", "Card subtitle (defaults to og.subtitle)")
	ogRenderCmd.Flags().StringVar(&ogOut, "out", "og.png", "Output PNG path")

	ogCmd.AddCommand(ogRenderCmd)
	rootCmd.AddCommand(ogCmd)
}
