package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"qsmath/internal/render"
)

var searchFormat string

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search every loaded plugin once and print the results",
	Example: `  qsmath search '3 * (4 + 1)'
  qsmath search --format alfred 'sqrt(2)'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "text", "Output format (text, json, alfred, html)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(searchFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	manager, err := newManager(cfg)
	if err != nil {
		return err
	}
	if err := manager.LoadPlugins(cfg); err != nil {
		return err
	}

	groups := manager.Search(cmd.Context(), strings.Join(args, " "))
	return render.Render(out, format, groups)
}
