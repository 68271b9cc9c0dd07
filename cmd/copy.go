package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"qsmath/internal/render"
	"qsmath/pkg/plugin"
)

var copyIndex int

var copyCmd = &cobra.Command{
	Use:   "copy <query>...",
	Short: "Search and execute one result",
	Long: `Runs a search and executes the result at --index, numbered as in the
text output of the search command. For the Math plugin this copies the
answer to the clipboard.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCopy,
}

func init() {
	copyCmd.Flags().IntVarP(&copyIndex, "index", "i", 0, "Result to execute")
	rootCmd.AddCommand(copyCmd)
}

func runCopy(cmd *cobra.Command, args []string) error {
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

	query := strings.Join(args, " ")
	items := render.Items(manager.Search(cmd.Context(), query))
	if len(items) == 0 {
		return fmt.Errorf("no results for %q", query)
	}
	if copyIndex < 0 || copyIndex >= len(items) {
		return fmt.Errorf("index %d out of range (0-%d)", copyIndex, len(items)-1)
	}

	item := items[copyIndex]
	result := plugin.NewSearchResult(item.Title).WithExtraInfo(item.ExtraInfo)
	if err := manager.Execute(plugin.NewPluginID(item.PluginID), result); err != nil {
		return err
	}

	fmt.Fprintln(out, item.ExtraInfo)
	return nil
}
