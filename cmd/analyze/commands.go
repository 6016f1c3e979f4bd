package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/dataprocessing"
	"github.com/CyprienPascal/PIP/internal/files"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

const placeholder = "n/a"

func pct(v domain.Value) string {
	return v.Format(2, placeholder)
}

func (c *cli) table(header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(c.out)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	return t
}

func (c *cli) trendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "trend",
		Short: "Mean abstention per election in chronological order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.engine.Analysis.Trend(cmd.Context())
			if err != nil {
				return err
			}

			t := c.table("Election", "Label", "Abstention %", "Variation", "Rows")
			for _, p := range report.Points {
				t.Append([]string{p.ElectionID, p.Label, pct(p.MeanAbstention), pct(p.Variation), strconv.Itoa(p.Rows)})
			}
			t.Render()
			fmt.Fprintf(c.out, "increases: %d, decreases: %d\n", report.Increases, report.Decreases)

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, report.Points)
		},
	}
}

func (c *cli) overviewCommand() *cobra.Command {
	var filter domain.OverviewFilter
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Abstention summary of one election, optionally narrowed to departments or a commune",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.engine.Analysis.Overview(cmd.Context(), filter)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "%s: %d rows, registered %s, abstentions %s, rate %s%%\n",
				report.Label, report.Rows,
				report.TotalRegistered.Format(0, placeholder),
				report.TotalAbstentions.Format(0, placeholder),
				pct(report.AbstentionRate))

			t := c.table("Department", "Code", "Abstention %")
			for _, d := range report.Departments {
				t.Append([]string{d.Department, d.Code, pct(d.Value)})
			}
			t.Render()

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, report.Departments)
		},
	}
	cmd.Flags().StringVar(&filter.Election, "election", "", "election id, e.g. 2022_legi_t1")
	cmd.Flags().StringSliceVar(&filter.Departments, "dept", nil, "department labels to keep (repeatable)")
	cmd.Flags().StringVar(&filter.Commune, "commune", "", "commune label to keep")
	_ = cmd.MarkFlagRequired("election")
	return cmd
}

// frequencyRow is one ranking frequency in the recurrence export
type frequencyRow struct {
	Ranking  string `csv:"ranking"`
	Entity   string `csv:"department"`
	Count    int    `csv:"count"`
	Groups   int    `csv:"elections"`
	Presence string `csv:"presence"`
}

func (c *cli) recurrenceCommand() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "recurrence",
		Short: "Departments recurring among the best and worst voters of each first round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.engine.Analysis.Recurrence(cmd.Context(), n)
			if err != nil {
				return err
			}

			var rows []frequencyRow
			for _, f := range report.BestFrequency {
				rows = append(rows, frequencyRow{"best", f.Entity, f.Count, f.Groups, string(f.Presence)})
			}
			for _, f := range report.WorstFrequency {
				rows = append(rows, frequencyRow{"worst", f.Entity, f.Count, f.Groups, string(f.Presence)})
			}

			t := c.table("Ranking", "Department", "Count", "Elections", "Presence")
			for _, r := range rows {
				t.Append([]string{r.Ranking, r.Entity, strconv.Itoa(r.Count), strconv.Itoa(r.Groups), r.Presence})
			}
			t.Render()

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, rows)
		},
	}
	cmd.Flags().IntVar(&n, "n", 0, "departments per ranking (0 uses the configured default)")
	return cmd
}

func (c *cli) blankNullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "blank-null",
		Short: "Blank and null vote shares next to abstention, with their correlations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.engine.Analysis.BlankNull(cmd.Context())
			if err != nil {
				return err
			}

			t := c.table("Election", "Blank %", "Null %", "Abstention %")
			for _, p := range report.Points {
				t.Append([]string{p.ElectionID, pct(p.Blank), pct(p.Null), pct(p.Abstention)})
			}
			t.Render()

			m := report.Correlations
			if len(m.Columns) > 0 {
				ct := c.table(append([]string{""}, m.Columns...)...)
				for i, col := range m.Columns {
					row := []string{col}
					for _, v := range m.Values[i] {
						row = append(row, v.Format(3, placeholder))
					}
					ct.Append(row)
				}
				ct.Render()
			}

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, report.Points)
		},
	}
}

func (c *cli) povertyCommand() *cobra.Command {
	var year string
	cmd := &cobra.Command{
		Use:   "poverty",
		Short: "Poverty rate against abstention per department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.engine.Analysis.Poverty(cmd.Context(), year)
			if err != nil {
				return err
			}

			t := c.table("Department", "Poverty %", "Abstention %")
			for _, r := range report.Rows {
				t.Append([]string{r.Department, pct(r.Poverty), pct(r.Abstention)})
			}
			t.Render()
			fmt.Fprintf(c.out, "median poverty %s, median abstention %s, correlation %s over %d departments\n",
				pct(report.MedianPoverty), pct(report.MedianAbstention),
				report.Correlation.Value.Format(3, placeholder), report.Correlation.Pairs)

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, report.Rows)
		},
	}
	cmd.Flags().StringVar(&year, "year", config.PovertyYears[0], "indicator year: "+strings.Join(config.PovertyYears, ", "))
	return cmd
}

func (c *cli) unemploymentCommand() *cobra.Command {
	var years []string
	cmd := &cobra.Command{
		Use:   "unemployment",
		Short: "Unemployment rate against first-round abstention per department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.engine.Analysis.Unemployment(cmd.Context(), years)
			if err != nil {
				return err
			}

			t := c.table("Year", "Rows", "Unemployment %", "Abstention %", "Correlation")
			for _, y := range report.Years {
				t.Append([]string{
					y.Year,
					strconv.Itoa(y.Rows),
					pct(y.MeanUnemployment),
					pct(y.MeanAbstention),
					y.Correlation.Value.Format(3, placeholder),
				})
			}
			t.Render()

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, report.Merged)
		},
	}
	cmd.Flags().StringSliceVar(&years, "year", nil, "years to analyse (repeatable): "+strings.Join(config.UnemploymentYears, ", "))
	return cmd
}

func (c *cli) ageCommand() *cobra.Command {
	var (
		year string
		n    int
	)
	cmd := &cobra.Command{
		Use:   "age",
		Short: "Abstention where each age bracket is most and least represented",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.engine.Analysis.Age(cmd.Context(), year, n)
			if err != nil {
				return err
			}

			var rows []domain.AgeRow
			t := c.table("Bracket", "Group", "Rows", "Proportion", "Abstention %")
			for _, b := range report.Brackets {
				for _, g := range []struct {
					name    string
					summary domain.AgeGroupSummary
				}{{"majority", b.Majority}, {"minority", b.Minority}} {
					t.Append([]string{
						b.Bracket,
						g.name,
						strconv.Itoa(len(g.summary.Rows)),
						pct(g.summary.MeanProportion),
						pct(g.summary.MeanAbstention),
					})
					rows = append(rows, g.summary.Rows...)
				}
			}
			t.Render()

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, rows)
		},
	}
	cmd.Flags().StringVar(&year, "year", config.AgeYears[0], "census year: "+strings.Join(config.AgeYears, ", "))
	cmd.Flags().IntVar(&n, "n", 0, "departments per group (0 uses the configured default)")
	return cmd
}

func (c *cli) nuancesCommand() *cobra.Command {
	var (
		year  int
		sexes []string
	)
	cmd := &cobra.Command{
		Use:   "nuances",
		Short: "Votes and seats per political nuance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := c.engine.Analysis.Nuances(cmd.Context(), year, sexes)
			if err != nil {
				return err
			}

			t := c.table("Nuance", "Votes", "Seats")
			for _, v := range report.Nuances {
				t.Append([]string{v.Nuance, v.Votes.Format(0, placeholder), v.Seats.Format(0, placeholder)})
			}
			t.Render()

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, report.Nuances)
		},
	}
	cmd.Flags().IntVar(&year, "year", 2022, "election year")
	cmd.Flags().StringSliceVar(&sexes, "sex", nil, "candidate sexes to keep, M and/or F (repeatable)")
	return cmd
}

func (c *cli) incomeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "income <department>",
		Short: "Yearly income deciles and priority areas of one department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.engine.Analysis.Income(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "%s (%s)\n", report.Label, report.Department)
			t := c.table(append([]string{"Year", "Priority areas"}, report.Deciles...)...)
			for _, p := range report.Points {
				row := []string{p.Year, p.PriorityAreas.Format(0, placeholder)}
				for _, d := range report.Deciles {
					row = append(row, p.Deciles[d].Format(0, placeholder))
				}
				t.Append(row)
			}
			t.Render()

			c.printDiagnostics(report.Diagnostics)
			return exportRows(c, report.Points)
		},
	}
}

func (c *cli) mapCommand() *cobra.Command {
	var (
		year, round int
		level       string
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Resolve the pre-rendered map fragment of a year, round and level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, err := c.engine.Analysis.Map(cmd.Context(), year, round, level)
			if err != nil {
				return err
			}

			t := c.table("Year", "Round", "Level", "File", "Exists")
			t.Append([]string{strconv.Itoa(sel.Year), strconv.Itoa(sel.Round), sel.Level, sel.File, strconv.FormatBool(sel.Exists)})
			t.Render()
			if sel.Exists {
				fmt.Fprintln(c.out, sel.Path)
			}

			return exportRows(c, []domain.MapSelection{sel})
		},
	}
	cmd.Flags().IntVar(&year, "year", 2024, "election or indicator year")
	cmd.Flags().IntVar(&round, "round", 1, "round for electoral levels")
	cmd.Flags().StringVar(&level, "level", files.LevelDept, "map level: "+strings.Join(files.Levels, ", "))
	return cmd
}

func (c *cli) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the catalog sources and whether they can be loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources := c.engine.Analysis.Sources(cmd.Context())

			t := c.table("ID", "File", "Format", "Key", "Available")
			for _, s := range sources {
				t.Append([]string{s.ID, s.File, s.Format, s.KeyColumn, strconv.FormatBool(s.Available)})
			}
			t.Render()

			return exportRows(c, sources)
		},
	}
}

func (c *cli) importCommand() *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:   "import <source>",
		Short: "Copy a file source into the configured SQL backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.engine.DB == nil {
				return fmt.Errorf("no storage backend configured (set PIP_STORAGE_DRIVER and PIP_STORAGE_DSN)")
			}
			id := args[0]
			if table == "" {
				table = id
			}

			// Read from the flat file even when the source is already mapped to a table
			reader := dataprocessing.NewLoader(config.DefaultSourceCatalog(), c.engine.Paths.DataDir)
			res := reader.Load(cmd.Context(), id)
			if res.Diagnostics.Has(domain.DiagSourceNotFound) {
				return fmt.Errorf("source %s cannot be imported: %s", id, res.Diagnostics.Of(domain.DiagSourceNotFound)[0].Message)
			}
			c.printDiagnostics(res.Diagnostics)

			if err := c.engine.DB.WriteTable(cmd.Context(), table, res.Value); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "imported %d rows of %s into table %s\n", res.Value.Len(), id, table)
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "target table (defaults to the source id)")
	return cmd
}
