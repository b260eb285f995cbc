package cmd

import (
	"fmt"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bomgen",
	Short: "Parametric BOM formula engine",
	Long: `bomgen is a Go implementation of the parametric bill-of-materials
formula engine: a spreadsheet-style expression language over configuration
fields, computed variables, per-row fields, and numeric-keyed lookup
tables, with XLOOKUP-style EXACT/NEAREST resolution.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configDir resolves where bomgen looks for a default fixture/config
// directory, following the same XDG base-directory convention the rest
// of this pack's CLIs use for locating user config.
func configDir() (string, error) {
	return xdg.ConfigFile("bomgen")
}
