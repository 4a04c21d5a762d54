package main

import (
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/spf13/cobra"
)

var baseLocale string

var i18nCmd = &cobra.Command{
	Use:   "i18n",
	Short: "Locale catalog tools",
}

var i18nCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report keys each locale is missing or adds compared to the base locale",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := i18n.Load(baseLocale)
		if err != nil {
			return err
		}
		base := cat.Base(baseLocale)
		if len(base) == 0 {
			return fmt.Errorf("base locale %q has no messages", baseLocale)
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("Locale check against %s (%d keys)", baseLocale, len(base))))
		incomplete := 0
		for _, loc := range cat.Locales() {
			if loc == baseLocale {
				continue
			}
			missing, extra := i18n.MissingKeys(base, cat.Base(loc))
			if len(missing) == 0 && len(extra) == 0 {
				fmt.Printf("%s %s\n", okStyle.Render("✓"), loc)
				continue
			}
			if len(missing) > 0 {
				incomplete++
				fmt.Printf("%s %s missing %d: %s\n", errStyle.Render("✗"), loc, len(missing), strings.Join(missing, ", "))
			}
			if len(extra) > 0 {
				fmt.Printf("%s %s extra %d: %s\n", warnStyle.Render("!"), loc, len(extra), strings.Join(extra, ", "))
			}
		}
		if incomplete > 0 {
			return fmt.Errorf("%d locale(s) incomplete", incomplete)
		}
		return nil
	},
}

func init() {
	i18nCheckCmd.Flags().StringVar(&baseLocale, "base", "en", "Reference locale")
	i18nCmd.AddCommand(i18nCheckCmd)
}
