package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tracker/internal/cli"
	"tracker/internal/core"
)

var (
	flagYear  int
	flagMonth int
)

var analyticsCmd = &cobra.Command{
	Use:       "analytics [daily|monthly|yearly|all]",
	Short:     "Income, expenses and category breakdown for a period",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"daily", "monthly", "yearly", "all"},
	RunE:      runAnalytics,
}

func init() {
	analyticsCmd.Flags().IntVar(&flagYear, "year", 0, "Year for monthly/yearly periods (default current)")
	analyticsCmd.Flags().IntVar(&flagMonth, "month", 0, "Month for the monthly period (default current)")
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	if err := requireUserFlag(); err != nil {
		return err
	}
	period := core.PeriodMonthly
	if len(args) == 1 {
		p, err := core.ParsePeriod(args[0])
		if err != nil {
			return err
		}
		period = p
	}
	var year, month *int
	if cmd.Flags().Changed("year") {
		year = &flagYear
	}
	if cmd.Flags().Changed("month") {
		month = &flagMonth
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	report, err := e.analytics().Analytics(context.Background(), flagUser, period, year, month, time.Now())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  %s to %s",
		period, report.Range.Start.Format("2006-01-02"), report.Range.End.Format("2006-01-02"))))
	fmt.Println()
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Income", report.Stats.TotalIncome.String()},
		{"Expenses", report.Stats.TotalExpenses.String()},
		{"Net", report.Stats.Net.String()},
		{"Transactions", strconv.Itoa(report.Stats.TransactionCount)},
	}))
	fmt.Println()
	fmt.Print(breakdownTable("Expenses by category", report.ExpenseBreakdown))
	fmt.Print(breakdownTable("Income by category", report.IncomeBreakdown))
	return nil
}

func breakdownTable(title string, entries []core.CategoryBreakdownEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.CategoryName,
			e.Amount.String(),
			fmt.Sprintf("%.2f%%", e.Percentage),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Category", "Amount", "Share"},
		Rows:    rows,
	})
}
