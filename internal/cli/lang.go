package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var languages = []string{"en", "fr", "rw", "es", "sw"}

var langCmd = &cobra.Command{
	Use:   "lang [code]",
	Short: "Show or set the language used for export file names",
	Long: `Show or set the interface language (en, fr, rw, es, sw).

Examples:
  terratrac lang
  terratrac lang fr`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: languages,
	RunE:      runLang,
}

func runLang(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println(store.Lang())
		return nil
	}

	code := strings.ToLower(args[0])
	if !slices.Contains(languages, code) {
		return fmt.Errorf("unknown language %q (use one of %s)", args[0], strings.Join(languages, ", "))
	}
	store.SetLang(code)
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("Language set to %s\n", code)
	return nil
}
