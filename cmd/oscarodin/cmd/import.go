package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	uuid "github.com/satori/go.uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/catalogue"
	"github.com/samar-hassan/django-oscar-odin/csvcodec"
	"github.com/samar-hassan/django-oscar-odin/dbchange"
	"github.com/samar-hassan/django-oscar-odin/decoding"
	"github.com/samar-hassan/django-oscar-odin/internal/config"
	"github.com/samar-hassan/django-oscar-odin/resources"
)

var (
	importFile    string
	importFormat  string
	importPartner string
	importFields  []string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a product feed into the catalogue",
	Long: `Import reads a CSV, XLSX or JSON product feed and saves its
products, categories, images, stock records and attribute values.

Rows are matched to existing products by UPC. Existing rows are updated,
restricted to import.fields_to_update when set.

Formats:
  - product:   one column per product field, see resources.ProductRow
  - automagic: Automagic export columns (SKU, TITLE, ...); missing
               attributes are added to the product class first

JSON feeds hold product resources as written by export --format json and
ignore the format setting.

Example:
  oscarodin import --file products.csv --format automagic --partner 1049`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "",
		"Product feed to import (.csv, .xlsx or .json)")
	_ = importCmd.MarkFlagRequired("file")
	importCmd.Flags().StringVar(&importFormat, "format", "",
		"Override feed format (product, automagic)")
	importCmd.Flags().StringVar(&importPartner, "partner", "",
		"Override partner code of automagic stock records")
	importCmd.Flags().StringSliceVar(&importFields, "fields", nil,
		"Override fields written to existing rows")

	rootCmd.AddCommand(importCmd)
}

// applyImportFlags applies the import command flags. Only non-empty values
// are applied.
func applyImportFlags(cfg *config.ImportConfig) {
	if importFormat != "" {
		cfg.Format = importFormat
	}
	if importPartner != "" {
		cfg.Partner = importPartner
	}
	if len(importFields) > 0 {
		cfg.FieldsToUpdate = importFields
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	applyImportFlags(&cfg.Import)
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := uuid.NewV4()
	log = log.WithRun(runID.String()).WithFile(importFile)
	defer log.Sync()

	orm, err := openORM(cfg, log)
	if err != nil {
		return err
	}
	defer oscarodin.CloseConnection()

	var changes *dbchange.ChangeSet
	if isJSONFeed(importFile) {
		file, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", importFile, err)
		}
		defer file.Close()
		changes, err = importJSON(cmd.Context(), orm, file, &cfg.Import, runID, log.Zap())
		if err != nil {
			return err
		}
	} else {
		table, err := csvcodec.ReadFile(importFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", importFile, err)
		}
		log.Infow("read product feed", "rows", len(table.Rows), "format", cfg.Import.Format)

		changes, err = importTable(cmd.Context(), orm, table, &cfg.Import, runID, log.Zap())
		if err != nil {
			return err
		}
	}
	printSummary(cmd.OutOrStdout(), changes.Summary())
	return nil
}

// importTable decodes the rows of table and saves them
func importTable(ctx context.Context, orm oscarodin.ORM, table *csvcodec.Table, cfg *config.ImportConfig, runID uuid.UUID, log *zap.Logger) (*dbchange.ChangeSet, error) {
	products, err := productsFromTable(table, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Format == "automagic" {
		_, created, err := catalogue.EnsureAttributes(ctx, orm, cfg.ProductClass, catalogue.AutomagicAttributes)
		if err != nil {
			return nil, err
		}
		if created > 0 {
			log.Info("created product attributes",
				zap.String("product_class", cfg.ProductClass),
				zap.Int("count", created),
			)
		}
	}

	return saveProducts(ctx, orm, products, cfg, runID, log)
}

// importJSON decodes a JSON array of product resources from r and saves them
func importJSON(ctx context.Context, orm oscarodin.ORM, r io.Reader, cfg *config.ImportConfig, runID uuid.UUID, log *zap.Logger) (*dbchange.ChangeSet, error) {
	products, err := productsFromJSON(r)
	if err != nil {
		return nil, err
	}
	log.Info("read product resources", zap.Int("count", len(products)))
	return saveProducts(ctx, orm, products, cfg, runID, log)
}

func productsFromJSON(r io.Reader) ([]*resources.Product, error) {
	var products []*resources.Product
	if err := decoding.Decode(r, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func isJSONFeed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func saveProducts(ctx context.Context, orm oscarodin.ORM, products []*resources.Product, cfg *config.ImportConfig, runID uuid.UUID, log *zap.Logger) (*dbchange.ChangeSet, error) {
	opts := []catalogue.Option{
		catalogue.WithLogger(log),
		catalogue.WithRunID(runID),
		catalogue.WithClean(cfg.Clean),
	}
	if len(cfg.FieldsToUpdate) > 0 {
		opts = append(opts, catalogue.WithFieldsToUpdate(cfg.FieldsToUpdate...))
	}
	_, changes, err := catalogue.ProductsToDB(ctx, orm, products, opts...)
	if err != nil {
		return nil, err
	}
	return changes, nil
}

func productsFromTable(table *csvcodec.Table, cfg *config.ImportConfig) ([]*resources.Product, error) {
	if cfg.Format == "automagic" {
		rows, err := csvcodec.Decode[resources.AutomagicProductRow](table)
		if err != nil {
			return nil, err
		}
		return catalogue.AutomagicMapping(cfg.ProductClass, cfg.Partner).Apply(rows)
	}

	rows, err := csvcodec.Decode[resources.ProductRow](table)
	if err != nil {
		return nil, err
	}
	return catalogue.RowMapping().Apply(rows)
}
