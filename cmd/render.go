package cmd

import (
	"fmt"
	"slices"
	"strings"

	"coldstore/pkg/database"
	"coldstore/pkg/storage/index"
	"coldstore/pkg/tables"
	"coldstore/pkg/tuple"
	"coldstore/pkg/utils/functools"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#06B6D4")
	accentColor    = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#94A3B8")
	textPrimary    = lipgloss.Color("#F8FAFC")
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B5CF6")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 2).
			MarginTop(1)

	tableNameStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Background(accentColor).
			Foreground(lipgloss.Color("#0F172A")).
			Padding(0, 1).
			MarginLeft(1)

	errorStyle = lipgloss.NewStyle().
			Background(errorColor).
			Foreground(textPrimary).
			Bold(true).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderGrid(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

// renderTable prints a compiled table: its columns, indexes and, when
// present, its eviction directory.
func renderTable(pt *tables.PersistentTable) string {
	desc := pt.Descriptor()

	var b strings.Builder
	b.WriteString(tableNameStyle.Render(desc.Name))
	if desc.IsReplicated() {
		b.WriteString(badgeStyle.Render("replicated"))
	} else {
		col, _ := desc.Schema.Column(int(desc.PartitionColumn))
		b.WriteString(badgeStyle.Render("partitioned on " + col.Name))
	}
	if desc.ExportOnly {
		b.WriteString(badgeStyle.Render("export only"))
	} else if desc.ExportEnabled {
		b.WriteString(badgeStyle.Render("exported"))
	}
	b.WriteString("\n")

	columns := functools.Map(desc.Schema.Columns(), func(c tuple.ColumnDef) []string {
		null := "NOT NULL"
		if c.AllowNull {
			null = "NULL"
		}
		return []string{fmt.Sprint(c.Ordinal), c.Name, c.Type.String(), fmt.Sprint(c.Length), null}
	})
	b.WriteString(renderGrid([]string{"#", "COLUMN", "TYPE", "LENGTH", "NULL"}, columns))
	b.WriteString("\n")

	var indexes [][]string
	if desc.PrimaryKey != nil {
		indexes = append(indexes, indexRow(desc, desc.PrimaryKey, "primary key"))
	}
	for _, s := range desc.Indexes {
		note := ""
		if slices.Contains(desc.UniqueIndexes, s.Name) {
			note = "unique constraint"
		}
		indexes = append(indexes, indexRow(desc, s, note))
	}
	if len(indexes) > 0 {
		b.WriteString(renderGrid([]string{"INDEX", "TYPE", "KEY", "UNIQUE", "INTS ONLY", ""}, indexes))
		b.WriteString("\n")
	}

	if dir, ok := pt.EvictedTable(); ok {
		layout := "tuple"
		if pt.VerticalPartitions() != nil {
			layout = "vertical"
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("eviction directory %s [%s] %s",
			dir.Name(), layout, strings.Join(dir.Schema().Names(), ", "))))
		b.WriteString("\n")
	}
	return b.String()
}

func indexRow(desc *tables.Descriptor, s *index.Scheme, note string) []string {
	key := make([]string, len(s.ColumnIndices))
	for i, c := range s.ColumnIndices {
		col, _ := desc.Schema.Column(int(c))
		key[i] = col.Name
	}
	return []string{
		s.Name, string(s.Type), strings.Join(key, ", "),
		fmt.Sprint(s.Unique), fmt.Sprint(s.IntsOnly), note,
	}
}

func renderSummary(info database.DatabaseInfo) string {
	line := fmt.Sprintf("%d tables compiled on %d partition(s), %d error(s)",
		info.TableCount, info.Partitions, info.CompileErrors)
	if info.CompileErrors > 0 {
		return errorStyle.Render(line)
	}
	return mutedStyle.Render(line)
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
