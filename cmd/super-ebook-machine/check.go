package main

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samhuann/SuperEbookMachine/pkg/converter"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verifies that the ebook-convert tool can be found and executed.",
	Long: `check resolves the ebook-convert executable the same way a conversion
run would (explicit --converter path, then the search path, then the standard
Calibre install location) and runs it with --version to confirm it works.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		explicit, _ := cmd.Flags().GetString("converter")
		path, err := converter.FindConverter(explicit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found converter: %s\n", path)

		tool := exec.CommandContext(cmd.Context(), path, "--version")
		var output bytes.Buffer
		tool.Stdout = &output
		tool.Stderr = &output
		if err := tool.Run(); err != nil {
			return fmt.Errorf("%w: converter at %s failed to run: %v", converter.ErrConvertFailed, path, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(output.String()))
		return nil
	},
}

func init() {
	checkCmd.Flags().String("converter", "", "Path to the ebook-convert executable to check")
	rootCmd.AddCommand(checkCmd)
}
