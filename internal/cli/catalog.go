package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/genyouth/wellness/internal/app/recommend"
	"github.com/genyouth/wellness/internal/daemon"
	"github.com/genyouth/wellness/internal/infra/catalog"
)

func init() {
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", 5, "Maximum number of items (0 for all)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config.toml")

	catalogCmd.AddCommand(catalogValidateCmd, catalogExportCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(recommendCmd, catalogCmd, configCmd)
}

var (
	recommendLimit int
	configForce    bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend MOOD",
	Short: "Recommend content for a mood or category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := configuredCatalog()
		if err != nil {
			return err
		}
		items := recommend.NewMatcher(cat.Content).Recommend(args[0], recommendLimit)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), items)
		}
		if len(items) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No content for %q.\n", args[0])
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tCATEGORY\tTITLE\tLENGTH")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dm%02ds\n",
				it.ID, it.Kind, it.Category, it.Title, it.DurationSeconds/60, it.DurationSeconds%60)
		}
		return w.Flush()
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the definitions and content catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [PATH]",
	Short: "Validate a catalog file, or the configured catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cat *catalog.Catalog
			err error
		)
		if len(args) == 1 {
			cat, err = catalog.Load(args[0])
		} else {
			cat, err = configuredCatalog()
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d achievements, %d challenges, %d milestones, %d content items, %d resources\n",
			len(cat.Achievements), len(cat.Challenges), len(cat.Milestones), len(cat.Content), len(cat.Resources))
		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export PATH",
	Short: "Write the configured catalog to a TOML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := configuredCatalog()
		if err != nil {
			return err
		}
		if err := cat.Encode(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage config.toml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.toml to the data directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := daemon.ConfigPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := daemon.SaveConfig(daemon.DefaultConfig()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

// configuredCatalog loads the catalog named in config.toml, or the built-in one.
func configuredCatalog() (*catalog.Catalog, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}
	return catalog.LoadOrDefault(cfg.Catalog.Path)
}
