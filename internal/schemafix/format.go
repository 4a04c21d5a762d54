package schemafix

import (
	"fmt"
	"io"
	"strings"
)

// WriteText prints one compact block per table.
func WriteText(w io.Writer, tables []Table) error {
	for n, t := range tables {
		if n > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "TABLE %s\n", t.Name); err != nil {
			return err
		}
		for _, c := range t.Columns {
			if _, err := fmt.Fprintf(w, "  %s %s%s\n", c.Name, c.Type, flags(t, c)); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteMarkdown prints one markdown table per database table.
func WriteMarkdown(w io.Writer, tables []Table) error {
	var b strings.Builder
	for n, t := range tables {
		if n > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", t.Name)
		b.WriteString("| Column | Type | Flags |\n|---|---|---|\n")
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Name, c.Type, strings.TrimSpace(flags(t, c)))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func flags(t Table, c Column) string {
	var out []string
	for _, pk := range t.PrimaryKey {
		if pk == c.Name {
			out = append(out, "PK")
		}
	}
	if !c.Nullable {
		out = append(out, "NOT NULL")
	}
	if c.Default != "" {
		out = append(out, "DEFAULT "+c.Default)
	}
	if len(out) == 0 {
		return ""
	}
	return " " + strings.Join(out, " ")
}
