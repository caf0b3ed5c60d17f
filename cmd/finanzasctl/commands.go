package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"finanzas/internal/analytics"
	"finanzas/internal/core"
	"finanzas/internal/export"
	"finanzas/internal/ports"
	"finanzas/internal/seed"
	"finanzas/internal/services"
)

type app struct {
	open func(ctx context.Context) (ports.Store, func() error, error)
	out  io.Writer
	now  func() time.Time
	user string
}

// withStore opens the ledger for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(ports.Store) error) (err error) {
	store, closeFn, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(store)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "finanzasctl",
		Short:         "Inspect and export a finanzas ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	defaultUser := os.Getenv("DEFAULT_USER_ID")
	if defaultUser == "" {
		defaultUser = "local"
	}
	root.PersistentFlags().StringVarP(&a.user, "user", "u", defaultUser, "User id whose ledger is read")
	root.SetOut(a.out)

	root.AddCommand(newReportCmd(a), newBudgetsCmd(a), newExportCmd(a), newSeedCmd(a))
	return root
}

// ─── report ─────────────────────────────────────────────────────────────────

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report [YYYY-MM]",
		Short: "Print the monthly report",
		Long:  `Print totals against the previous month, trends and the top categories. Defaults to the current month.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := core.MonthYearOf(a.now())
			if len(args) == 1 {
				var err error
				if month, err = core.ParseMonthYear(args[0]); err != nil {
					return err
				}
			}
			return a.withStore(cmd.Context(), func(store ports.Store) error {
				r, err := services.NewDashboardService(store).Report(cmd.Context(), a.user, month)
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), r)
				return nil
			})
		},
	}
}

func printReport(out io.Writer, r analytics.Report) {
	fmt.Fprintf(out, "%s (%d movimientos)\n\n", r.Title, r.TxCount)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tActual\tAnterior\tTendencia\t")
	fmt.Fprintf(tw, "Ingresos\t%s\t%s\t%+d%%\t\n", r.Current.Income, r.Previous.Income, r.Trends.Income)
	fmt.Fprintf(tw, "Gastos\t%s\t%s\t%+d%%\t\n", r.Current.Expense, r.Previous.Expense, r.Trends.Expense)
	fmt.Fprintf(tw, "Balance\t%s\t%s\t\t\n", r.Current.Net, r.Previous.Net)
	_ = tw.Flush()

	if len(r.TopExpenses) > 0 {
		fmt.Fprintln(out, "\nPrincipales gastos")
		for i, c := range r.TopExpenses {
			fmt.Fprintf(out, "%2d. %-20s %12s %3d%%\n", i+1, c.Name, c.Amount, c.Percent)
		}
	}
}

// ─── budgets ────────────────────────────────────────────────────────────────

func newBudgetsCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Print budget utilization for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := core.MonthYearOf(a.now())
			if month != "" {
				var err error
				if m, err = core.ParseMonthYear(month); err != nil {
					return err
				}
			}
			return a.withStore(cmd.Context(), func(store ports.Store) error {
				status, err := services.NewBudgetService(store).Status(cmd.Context(), a.user, m)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(status) == 0 {
					fmt.Fprintf(out, "No budgets for %s\n", m)
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CATEGORY\tSPENT\tLIMIT\tUSED\tSEVERITY")
				for _, s := range status {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\n", s.Category, s.Spent, s.Limit, s.Percent, s.Severity)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month as YYYY-MM (default current month)")
	return cmd
}

// ─── export ─────────────────────────────────────────────────────────────────

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions",
	}
	cmd.AddCommand(newExportCSVCmd(a))
	return cmd
}

func newExportCSVCmd(a *app) *cobra.Command {
	var (
		period, from, to, category, txType, outPath string
	)
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write the filtered transactions as spreadsheet-ready CSV",
		Long: `Write the filtered transactions as CSV with a UTF-8 BOM. Without --out the
file is written to the current directory as movimientos_YYYY-MM-DD.csv; use
--out - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := exportCriteria(a.now(), period, from, to, category, txType)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(store ports.Store) error {
				txs, err := services.NewDashboardService(store).Transactions(cmd.Context(), a.user, criteria)
				if err != nil {
					return err
				}
				if len(txs) == 0 {
					return export.ErrNothingToExport
				}

				if outPath == "-" {
					return export.WriteCSV(cmd.OutOrStdout(), txs)
				}
				if outPath == "" {
					outPath = export.FileName(a.now())
				}
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				if err := export.WriteCSV(f, txs); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d transactions to %s\n", len(txs), outPath)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&period, "period", "p", "", "current_month, prev_month or custom (default all time)")
	f.StringVar(&from, "from", "", "Start date YYYY-MM-DD")
	f.StringVar(&to, "to", "", "End date YYYY-MM-DD")
	f.StringVarP(&category, "category", "c", "", "Exact category name")
	f.StringVarP(&txType, "type", "t", "", "income or expense")
	f.StringVarP(&outPath, "out", "o", "", "Output file, - for stdout")
	return cmd
}

// exportCriteria mirrors the API filters. A named period replaces from/to
// unless it is custom.
func exportCriteria(now time.Time, period, from, to, category, txType string) (analytics.FilterCriteria, error) {
	c := analytics.FilterCriteria{Category: strings.TrimSpace(category)}
	var err error
	if from != "" {
		if c.StartDate, err = core.ParseDate(from); err != nil {
			return c, err
		}
	}
	if to != "" {
		if c.EndDate, err = core.ParseDate(to); err != nil {
			return c, err
		}
	}
	if txType != "" {
		t := core.TransactionType(txType)
		if !t.Valid() {
			return c, fmt.Errorf("%w: %q", core.ErrInvalidType, txType)
		}
		c.Type = t
	}
	if period != "" {
		sel := analytics.PeriodSelector{Kind: analytics.ParsePeriodKind(period), Start: c.StartDate, End: c.EndDate}
		c = c.WithRange(analytics.ResolvePeriod(now, sel))
	}
	return c, nil
}

// ─── seed ───────────────────────────────────────────────────────────────────

func newSeedCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Give the user the default categories and goals",
		Long:  `Seed the default categories and savings goals. Users that already have categories are left untouched.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults, err := seed.Load(file)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(store ports.Store) error {
				if err := services.NewSeeder(store, defaults).Ensure(cmd.Context(), a.user); err != nil {
					return err
				}
				cats, err := store.ListCategories(cmd.Context(), a.user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s has %d categories\n", a.user, len(cats))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "TOML seed file (default embedded defaults)")
	return cmd
}
