package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"docsnap/src/catalog"
	"docsnap/src/snapshot"
)

func newListCmd(stdout, stderr io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshot directories in the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, stderr)
			if err != nil {
				return err
			}
			entries, err := catalog.List(s.root.DirPath)
			if err != nil {
				return err
			}
			switch output {
			case "json":
				if entries == nil {
					entries = []catalog.Entry{}
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case "table", "":
				renderTable(stdout, s.root.String(), entries)
				return nil
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

func renderTable(w io.Writer, root string, entries []catalog.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no backup directories found"))
		fmt.Fprintln(w, dimStyle.Render("create one with: docsnap backup"))
		return
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		created, collections := "-", "-"
		if e.Manifest != nil {
			created = e.CreatedAt()
			collections = strings.Join(e.Manifest.Collections, ", ")
		} else if captured, ok := snapshot.ParseDirName(e.Name); ok {
			created = captured.Format("2006-01-02T15:04:05") + " (from name)"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Name, created, collections})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
		}).
		Headers("#", "NAME", "CREATED", "COLLECTIONS").
		Rows(rows...)

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("==> backups (%d) in %s", len(entries), root)))
	fmt.Fprintln(w, t)
}
