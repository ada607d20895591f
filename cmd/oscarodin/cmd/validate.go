package cmd

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/catalogue"
	"github.com/samar-hassan/django-oscar-odin/csvcodec"
	"github.com/samar-hassan/django-oscar-odin/internal/config"
	"github.com/samar-hassan/django-oscar-odin/resources"
)

var validateFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and an optional product feed",
	Long: `Validate checks the configuration file and the database connection.
With --file it also decodes, maps and validates every row of a product feed
without saving anything.

Example:
  oscarodin validate --config oscarodin.yaml --file products.csv`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "",
		"Product feed to check")
	validateCmd.Flags().StringVar(&importFormat, "format", "",
		"Override feed format (product, automagic)")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	applyImportFlags(&cfg.Import)
	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(out, "Config file: %s\n", GetConfigFile())
	fmt.Fprintf(out, "Driver: %s\n", cfg.Database.Driver)
	fmt.Fprintf(out, "Import format: %s\n\n", cfg.Import.Format)

	if validateFile != "" {
		rows, err := validateFeed(validateFile, &cfg.Import)
		if err != nil {
			fmt.Fprintf(out, "%s %s: %v\n", color.Red.Sprint("❌"), validateFile, err)
			return fmt.Errorf("validation failed for %s", validateFile)
		}
		fmt.Fprintf(out, "%s %s: %d products\n", color.Green.Sprint("✅"), validateFile, rows)
	}

	if _, err := openORM(cfg, log); err != nil {
		fmt.Fprintf(out, "%s Database: %v\n", color.Red.Sprint("❌"), err)
		return err
	}
	defer oscarodin.CloseConnection()
	fmt.Fprintf(out, "%s Database connection\n", color.Green.Sprint("✅"))

	fmt.Fprintln(out, "=== Validation Complete ===")
	return nil
}

// validateFeed maps and cleans every row of a feed, returning the number of
// products it holds
func validateFeed(path string, cfg *config.ImportConfig) (int, error) {
	var products []*resources.Product
	if isJSONFeed(path) {
		file, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer file.Close()
		if products, err = productsFromJSON(file); err != nil {
			return 0, err
		}
	} else {
		table, err := csvcodec.ReadFile(path)
		if err != nil {
			return 0, err
		}
		if products, err = productsFromTable(table, cfg); err != nil {
			return 0, err
		}
	}

	if err := catalogue.CleanProducts(products); err != nil {
		return 0, err
	}
	return len(products), nil
}
