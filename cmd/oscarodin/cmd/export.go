package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/catalogue"
	"github.com/samar-hassan/django-oscar-odin/csvcodec"
	"github.com/samar-hassan/django-oscar-odin/models"
	"github.com/samar-hassan/django-oscar-odin/queryparts"
	"github.com/samar-hassan/django-oscar-odin/resources"
)

var (
	exportOut    string
	exportFormat string
	exportUPCs   []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalogue",
	Long: `Export writes products with their product class, categories, images,
stock record and attributes.

The format follows --format, then the extension of --out, then
export.format. CSV and XLSX exports use the columns of the product import
format, JSON exports hold the full product resources.

Example:
  oscarodin export --out products.xlsx
  oscarodin export --format json --upc 8710400 --upc 8710401`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-",
		"Output file, - for stdout")
	exportCmd.Flags().StringVar(&exportFormat, "format", "",
		"Output format (csv, xlsx, json)")
	exportCmd.Flags().StringSliceVar(&exportUPCs, "upc", nil,
		"Only export products with these UPCs")

	rootCmd.AddCommand(exportCmd)
}

// exportFormatFor picks the output format from the format flag, the output
// extension and the configured default, in that order
func exportFormatFor(out, format, configured string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".csv", ".xlsx", ".json":
		return ext[1:]
	}
	return configured
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	format := exportFormatFor(exportOut, exportFormat, cfg.Export.Format)

	orm, err := openORM(cfg, log)
	if err != nil {
		return err
	}
	defer oscarodin.CloseConnection()

	request := oscarodin.FilterRequest{
		FilterModel: models.Product{},
		OrderBy:     []queryparts.OrderByRequest{{Field: "UPC"}},
	}
	if len(exportUPCs) > 0 {
		request.FieldFilters = []queryparts.FieldFilter{{FieldName: "UPC", FilterValue: exportUPCs}}
	}
	products, err := catalogue.ProductsToResources(cmd.Context(), orm, request)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if exportOut != "-" && exportOut != "" {
		file, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	if err := writeExport(w, products, format); err != nil {
		return err
	}
	log.Zap().Info("exported products",
		zap.Int("count", len(products)),
		zap.String("format", format),
		zap.String("out", exportOut),
	)
	return nil
}

// writeExport writes products to w in format
func writeExport(w io.Writer, products []*resources.Product, format string) error {
	if format == "json" {
		encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(products)
	}

	rows, err := catalogue.ResourceRowMapping().Apply(products)
	if err != nil {
		return err
	}
	switch format {
	case "csv":
		return csvcodec.WriteCSV(w, rows)
	case "xlsx":
		return csvcodec.WriteXLSX(w, rows)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
