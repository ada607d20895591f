package cmd

import (
	"bytes"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"

	"github.com/samar-hassan/django-oscar-odin/dbchange"
)

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name      string
		summaries []dbchange.TableSummary
		want      string
	}{
		{
			name: "aligns tables and totals",
			summaries: []dbchange.TableSummary{
				{Table: "catalogue_product", Inserted: 2, Updated: 1},
				{Table: "partner_stockrecord", Inserted: 12},
			},
			want: heredoc.Doc(`
				TABLE                INSERTED  UPDATED
				catalogue_product           2        1
				partner_stockrecord        12        0
				TOTAL                      14        1
			`),
		},
		{
			name:      "reports empty imports",
			summaries: nil,
			want:      "Nothing to import\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printSummary(&buf, tt.summaries)
			assert.Equal(t, tt.want, color.ClearCode(buf.String()))
		})
	}
}
