package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"bomgen/internal/formula"
	"bomgen/internal/ingest"
)

var lookupTableName string

var lookupCmd = &cobra.Command{
	Use:   "lookup <csv-file>",
	Short: "Ingest a CSV lookup table and print it as an aligned, key-sorted table",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVar(&lookupTableName, "name", "Table", "name to report the table under")
}

func runLookup(_ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	table, err := ingest.LookupTableFromCSV(lookupTableName, f)
	if err != nil {
		return err
	}
	sort.SliceStable(table.Rows, func(i, j int) bool { return table.Rows[i].Key < table.Rows[j].Key })

	printAligned(table)
	fmt.Printf("%s rows\n", humanize.Comma(int64(len(table.Rows))))
	return nil
}

// printAligned renders table as a column-aligned text table. Column
// widths are measured with mattn/go-runewidth rather than len(), so
// wide-rune field values (e.g. CJK part descriptions) still line up.
func printAligned(table formula.LookupTable) {
	fields := fieldNames(table)
	header := append([]string{"key"}, fields...)
	rows := make([][]string, len(table.Rows))
	for i, r := range table.Rows {
		row := make([]string, 0, len(fields)+1)
		row = append(row, strconv.FormatFloat(r.Key, 'g', -1, 64))
		for _, f := range fields {
			v, ok := r.Values[f]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, v.String())
		}
		rows[i] = row
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	printRow(header, widths)
	for _, row := range rows {
		printRow(row, widths)
	}
}

func printRow(cells []string, widths []int) {
	for i, cell := range cells {
		fmt.Print(runewidth.FillRight(cell, widths[i]))
		if i < len(cells)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// fieldNames collects every field name across the table's rows, sorted,
// so rows that lack a column still print under a shared header.
func fieldNames(table formula.LookupTable) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range table.Rows {
		for k := range r.Values {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
