package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"tussles/internal/config"
	"tussles/internal/database"
	"tussles/internal/finance"
	"tussles/internal/repository"
	"tussles/internal/service"

	"github.com/olekukonko/tablewriter"
)

func main() {
	var (
		netPeriod   = flag.String("period", "monthly", "net profit period: weekly, monthly or yearly")
		trendPeriod = flag.String("trend-period", "monthly", "trend bucket size: daily, weekly or monthly")
		trendCount  = flag.Int("count", finance.DefaultTrendCount, "number of most recent trend buckets")
		startDate   = flag.String("start", "", "inclusive start date for net profit (YYYY-MM-DD)")
		endDate     = flag.String("end", "", "inclusive end date for net profit (YYYY-MM-DD)")
		skipTrends  = flag.Bool("skip-trends", false, "do not print the trend table")
	)
	flag.Parse()

	period, err := finance.ParseNetProfitPeriod(*netPeriod)
	if err != nil {
		log.Fatalf("invalid -period: %v", err)
	}
	bucket, err := finance.ParseTrendPeriod(*trendPeriod)
	if err != nil {
		log.Fatalf("invalid -trend-period: %v", err)
	}
	rng, err := parseRange(*startDate, *endDate)
	if err != nil {
		log.Fatalf("invalid date range: %v", err)
	}

	cfg := config.Load()
	if !cfg.DatabaseConfigured() {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}

	financeService := service.NewFinanceService(
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		repository.NewCompanyRepository(db),
	)
	ctx := context.Background()

	report, err := financeService.NetProfit(ctx, period, rng)
	if err != nil {
		log.Fatalf("failed to compute net profit: %v", err)
	}
	printNetProfit(os.Stdout, report)

	if !*skipTrends {
		trends, err := financeService.ProfitTrends(ctx, bucket, *trendCount)
		if err != nil {
			log.Fatalf("failed to compute trends: %v", err)
		}
		printTrends(os.Stdout, trends)
	}

	breakeven, err := financeService.Breakeven(ctx)
	if err != nil {
		log.Fatalf("failed to compute break-even: %v", err)
	}
	printBreakeven(os.Stdout, breakeven)

	profits, err := financeService.CompanyProfits(ctx)
	if err != nil {
		log.Fatalf("failed to compute company profits: %v", err)
	}
	printCompanyProfits(os.Stdout, profits)
}

func printNetProfit(w io.Writer, r *finance.NetProfitReport) {
	fmt.Fprintf(w, "\nNet profit (%s)\n", r.Period)
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"Orders", strconv.Itoa(r.TotalOrders)},
		{"Revenue", r.Revenue.StringFixed(2)},
		{"Average order value", r.AverageOrderValue.StringFixed(2)},
		{"Material cost", r.MaterialCost.StringFixed(2)},
		{"Labor cost", r.LaborCost.StringFixed(2)},
		{"COGS", r.COGS.StringFixed(2)},
		{"Gross profit", r.GrossProfit.StringFixed(2)},
		{"Operating expenses", r.Opex.StringFixed(2)},
		{"Total costs", r.TotalCosts.StringFixed(2)},
		{"Net profit", r.NetProfit.StringFixed(2)},
		{"Profit margin %", r.ProfitMargin.StringFixed(2)},
	}
	for _, row := range rows {
		_ = table.Append(row)
	}
	render(table)

	if len(r.TopOrders) == 0 {
		return
	}
	fmt.Fprintln(w, "\nTop orders")
	top := tablewriter.NewWriter(w)
	top.Header("Order", "Company", "Sell price", "Gross profit", "Margin %")
	for _, o := range r.TopOrders {
		_ = top.Append([]string{o.ID.String(), o.CompanyName, o.SellPrice.StringFixed(2), o.GrossProfit.StringFixed(2), o.Margin.StringFixed(2)})
	}
	render(top)
}

func printTrends(w io.Writer, points []finance.TrendPoint) {
	fmt.Fprintln(w, "\nProfit trends")
	table := tablewriter.NewWriter(w)
	table.Header("Period", "Orders", "Revenue", "COGS", "Gross profit", "Opex", "Net profit", "Margin %")
	for _, p := range points {
		_ = table.Append([]string{
			p.Period,
			strconv.Itoa(p.Orders),
			p.Revenue.StringFixed(2),
			p.COGS.StringFixed(2),
			p.GrossProfit.StringFixed(2),
			p.Opex.StringFixed(2),
			p.NetProfit.StringFixed(2),
			p.ProfitMargin.StringFixed(2),
		})
	}
	render(table)
}

func printBreakeven(w io.Writer, r *finance.BreakevenReport) {
	fmt.Fprintln(w, "\nBreak-even")
	if r.InsufficientData {
		fmt.Fprintln(w, r.Message)
	}
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"Fixed costs (monthly salaries)", r.FixedCosts.StringFixed(2)},
		{"Sample size", strconv.Itoa(r.SampleSize)},
		{"Average revenue", r.AverageRevenue.StringFixed(2)},
		{"Average COGS", r.AverageCOGS.StringFixed(2)},
		{"Contribution margin", r.ContributionMargin.StringFixed(2)},
		{"Contribution margin %", r.ContributionMarginRatio.StringFixed(2)},
		{"Break-even revenue", r.BreakEvenRevenue.StringFixed(2)},
		{"Orders needed", strconv.FormatInt(r.OrdersNeeded, 10)},
		{"Completed this month", strconv.Itoa(r.CurrentMonthOrders)},
	}
	for _, row := range rows {
		_ = table.Append(row)
	}
	render(table)
}

func printCompanyProfits(w io.Writer, profits []finance.CompanyProfit) {
	fmt.Fprintln(w, "\nProfit by company")
	table := tablewriter.NewWriter(w)
	table.Header("Company", "Orders", "Revenue", "Total cost", "Gross profit", "Margin %")
	for _, p := range profits {
		_ = table.Append([]string{
			p.Name,
			strconv.Itoa(p.TotalOrders),
			p.Revenue.StringFixed(2),
			p.TotalCost.StringFixed(2),
			p.GrossProfit.StringFixed(2),
			p.ProfitMargin.StringFixed(2),
		})
	}
	render(table)
}

func render(table *tablewriter.Table) {
	if err := table.Render(); err != nil {
		log.Printf("failed to render table: %v", err)
	}
}

func parseRange(rawStart, rawEnd string) (finance.Range, error) {
	var rng finance.Range
	if rawStart != "" {
		t, err := time.Parse("2006-01-02", rawStart)
		if err != nil {
			return rng, fmt.Errorf("start: %w", err)
		}
		rng.Start = &t
	}
	if rawEnd != "" {
		t, err := time.Parse("2006-01-02", rawEnd)
		if err != nil {
			return rng, fmt.Errorf("end: %w", err)
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		rng.End = &t
	}
	return rng, nil
}
