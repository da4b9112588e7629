// Package finance derives revenue, profit and break-even figures from
// already fetched orders and users. Nothing here touches the database and
// every function is total over empty input.
package finance

import (
	"fmt"
	"sort"
	"time"

	"tussles/internal/apperror"
	"tussles/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

const (
	// BreakevenSampleSize is how many of the most recent completed orders
	// feed the break-even averages.
	BreakevenSampleSize = 100
	// TopOrdersLimit bounds the best-performing orders in a net profit report.
	TopOrdersLimit = 5
	// DefaultTrendCount is the number of trend buckets when none is asked for.
	DefaultTrendCount = 12

	insufficientDataMessage = "Insufficient data for break-even analysis"
)

var (
	hundred = decimal.NewFromInt(100)
	four    = decimal.NewFromInt(4)
	twelve  = decimal.NewFromInt(12)
	thirty  = decimal.NewFromInt(30)
)

// ParseNetProfitPeriod accepts weekly, monthly or yearly; empty means monthly.
func ParseNetProfitPeriod(raw string) (Period, error) {
	switch p := Period(raw); p {
	case "":
		return PeriodMonthly, nil
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return p, nil
	}
	return "", apperror.FieldError("period", "period must be one of weekly, monthly, yearly")
}

// ParseTrendPeriod accepts daily, weekly or monthly; empty means monthly.
func ParseTrendPeriod(raw string) (Period, error) {
	switch p := Period(raw); p {
	case "":
		return PeriodMonthly, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", apperror.FieldError("period", "period must be one of daily, weekly, monthly")
}

// Range bounds completed_at; nil ends are open.
type Range struct {
	Start *time.Time
	End   *time.Time
}

func (r Range) contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// DashboardStats rolls the per-status summary up into the dashboard headline.
func DashboardStats(rows []model.RevenueSummaryRow) model.DashboardStats {
	stats := model.DashboardStats{
		TotalExpectedRevenue: decimal.Zero,
		RevenueSummary:       make([]model.RevenueSummaryRow, 0, len(rows)),
	}
	for _, row := range rows {
		stats.TotalExpectedRevenue = stats.TotalExpectedRevenue.Add(row.TotalRevenue)
		if row.Status == model.OrderStatusAwaitingApproval {
			stats.PendingApprovals = row.OrderCount
		}
		stats.RevenueSummary = append(stats.RevenueSummary, row)
	}
	return stats
}

// TotalSalaries sums the monthly salaries of active users.
func TotalSalaries(users []model.User) decimal.Decimal {
	total := decimal.Zero
	for i := range users {
		if !users[i].IsActive {
			continue
		}
		total = total.Add(users[i].MonthlySalary())
	}
	return total
}

// Opex scales monthly salaries to period. Unknown periods cost nothing.
func Opex(period Period, monthlySalaries decimal.Decimal) decimal.Decimal {
	switch period {
	case PeriodDaily:
		return monthlySalaries.Div(thirty)
	case PeriodWeekly:
		return monthlySalaries.Div(four)
	case PeriodMonthly:
		return monthlySalaries
	case PeriodYearly:
		return monthlySalaries.Mul(twelve)
	}
	return decimal.Zero
}

// TopOrder is one of the best performing orders in a net profit report.
type TopOrder struct {
	ID          uuid.UUID       `json:"id"`
	CompanyName string          `json:"company_name,omitempty"`
	SellPrice   decimal.Decimal `json:"sell_price"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Margin      decimal.Decimal `json:"margin"`
}

type NetProfitReport struct {
	Period            Period          `json:"period"`
	StartDate         *time.Time      `json:"start_date,omitempty"`
	EndDate           *time.Time      `json:"end_date,omitempty"`
	Revenue           decimal.Decimal `json:"revenue"`
	TotalOrders       int             `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	COGS              decimal.Decimal `json:"cogs"`
	MaterialCost      decimal.Decimal `json:"material_cost"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	Opex              decimal.Decimal `json:"opex"`
	TotalCosts        decimal.Decimal `json:"total_costs"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	TopOrders         []TopOrder      `json:"top_orders"`
}

// NetProfit is revenue minus COGS minus period-scaled salaries over the
// completed orders whose completed_at falls inside rng.
func NetProfit(orders []model.Order, users []model.User, period Period, rng Range) NetProfitReport {
	completed := completedOrders(orders)
	inRange := make([]model.Order, 0, len(completed))
	for _, o := range completed {
		if rng.contains(*o.CompletedAt) {
			inRange = append(inRange, o)
		}
	}

	report := NetProfitReport{
		Period:       period,
		StartDate:    rng.Start,
		EndDate:      rng.End,
		Revenue:      decimal.Zero,
		MaterialCost: decimal.Zero,
		LaborCost:    decimal.Zero,
		TotalOrders:  len(inRange),
		TopOrders:    []TopOrder{},
	}
	for i := range inRange {
		report.Revenue = report.Revenue.Add(inRange[i].SellPrice())
		report.MaterialCost = report.MaterialCost.Add(inRange[i].MaterialCost)
		report.LaborCost = report.LaborCost.Add(inRange[i].LaborCost)
	}

	report.COGS = report.MaterialCost.Add(report.LaborCost)
	report.GrossProfit = report.Revenue.Sub(report.COGS)
	report.Opex = Opex(period, TotalSalaries(users)).Round(2)
	report.TotalCosts = report.COGS.Add(report.Opex)
	report.NetProfit = report.GrossProfit.Sub(report.Opex)
	report.ProfitMargin = percent(report.NetProfit, report.Revenue)
	report.AverageOrderValue = decimal.Zero
	if len(inRange) > 0 {
		report.AverageOrderValue = report.Revenue.Div(decimal.NewFromInt(int64(len(inRange)))).Round(2)
	}

	sort.SliceStable(inRange, func(i, j int) bool {
		return inRange[i].GrossProfit().GreaterThan(inRange[j].GrossProfit())
	})
	for i := 0; i < len(inRange) && i < TopOrdersLimit; i++ {
		o := &inRange[i]
		top := TopOrder{
			ID:          o.ID,
			SellPrice:   o.SellPrice(),
			GrossProfit: o.GrossProfit(),
			Margin:      percent(o.GrossProfit(), o.SellPrice()),
		}
		if o.Company != nil {
			top.CompanyName = o.Company.Name
		}
		report.TopOrders = append(report.TopOrders, top)
	}
	return report
}

type TrendPoint struct {
	Period       string          `json:"period"`
	Revenue      decimal.Decimal `json:"revenue"`
	COGS         decimal.Decimal `json:"cogs"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	Orders       int             `json:"orders"`
	Opex         decimal.Decimal `json:"opex"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
}

// ProfitTrends buckets completed orders by period and returns the most
// recent count buckets in ascending key order. count <= 0 keeps all.
func ProfitTrends(orders []model.Order, users []model.User, period Period, count int) []TrendPoint {
	opex := Opex(period, TotalSalaries(users)).Round(2)

	buckets := map[string]*TrendPoint{}
	for _, o := range completedOrders(orders) {
		key := BucketKey(period, *o.CompletedAt)
		point, ok := buckets[key]
		if !ok {
			point = &TrendPoint{
				Period:      key,
				Revenue:     decimal.Zero,
				COGS:        decimal.Zero,
				GrossProfit: decimal.Zero,
			}
			buckets[key] = point
		}
		point.Revenue = point.Revenue.Add(o.SellPrice())
		point.COGS = point.COGS.Add(o.COGS())
		point.GrossProfit = point.GrossProfit.Add(o.GrossProfit())
		point.Orders++
	}

	trends := make([]TrendPoint, 0, len(buckets))
	for _, point := range buckets {
		point.Opex = opex
		point.NetProfit = point.GrossProfit.Sub(opex)
		point.ProfitMargin = percent(point.NetProfit, point.Revenue)
		trends = append(trends, *point)
	}

	sort.Slice(trends, func(i, j int) bool { return trends[i].Period < trends[j].Period })
	if count > 0 && len(trends) > count {
		trends = trends[len(trends)-count:]
	}
	return trends
}

// BucketKey names the trend bucket t falls in: YYYY-MM-DD for days,
// the Monday starting the ISO week for weeks, YYYY-MM for months.
func BucketKey(period Period, t time.Time) string {
	t = t.UTC()
	switch period {
	case PeriodDaily:
		return t.Format("2006-01-02")
	case PeriodWeekly:
		offset := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -offset).Format("2006-01-02")
	default:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	}
}

type BreakevenReport struct {
	FixedCosts              decimal.Decimal `json:"fixed_costs"`
	AverageRevenue          decimal.Decimal `json:"average_revenue"`
	AverageCOGS             decimal.Decimal `json:"average_cogs"`
	ContributionMargin      decimal.Decimal `json:"contribution_margin"`
	ContributionMarginRatio decimal.Decimal `json:"contribution_margin_ratio"` // percent
	BreakEvenRevenue        decimal.Decimal `json:"break_even_revenue"`
	OrdersNeeded            int64           `json:"orders_needed"`
	CurrentMonthOrders      int             `json:"current_month_orders"`
	SampleSize              int             `json:"sample_size"`
	InsufficientData        bool            `json:"insufficient_data"`
	Message                 string          `json:"message,omitempty"`
}

// Breakeven estimates the revenue needed to cover active salaries, using the
// average margin of up to BreakevenSampleSize most recent completed orders.
func Breakeven(orders []model.Order, users []model.User, now time.Time) BreakevenReport {
	fixed := TotalSalaries(users)

	sample := completedOrders(orders)
	sort.SliceStable(sample, func(i, j int) bool {
		return sample[i].CompletedAt.After(*sample[j].CompletedAt)
	})
	if len(sample) > BreakevenSampleSize {
		sample = sample[:BreakevenSampleSize]
	}

	report := BreakevenReport{
		FixedCosts:              fixed,
		AverageRevenue:          decimal.Zero,
		AverageCOGS:             decimal.Zero,
		ContributionMargin:      decimal.Zero,
		ContributionMarginRatio: decimal.Zero,
		BreakEvenRevenue:        fixed,
		SampleSize:              len(sample),
	}
	if len(sample) == 0 {
		report.InsufficientData = true
		report.Message = insufficientDataMessage
		return report
	}

	sumRevenue, sumCOGS := decimal.Zero, decimal.Zero
	nowUTC := now.UTC()
	for i := range sample {
		sumRevenue = sumRevenue.Add(sample[i].SellPrice())
		sumCOGS = sumCOGS.Add(sample[i].COGS())

		done := sample[i].CompletedAt.UTC()
		if done.Year() == nowUTC.Year() && done.Month() == nowUTC.Month() {
			report.CurrentMonthOrders++
		}
	}

	n := decimal.NewFromInt(int64(len(sample)))
	sumMargin := sumRevenue.Sub(sumCOGS)
	report.AverageRevenue = sumRevenue.Div(n).Round(2)
	report.AverageCOGS = sumCOGS.Div(n).Round(2)
	report.ContributionMargin = sumMargin.Div(n).Round(2)
	report.BreakEvenRevenue = decimal.Zero

	if !sumRevenue.IsPositive() {
		return report
	}
	report.ContributionMarginRatio = percent(sumMargin, sumRevenue)

	// fixed/ratio and ceil(breakEven/avgRevenue), expressed over the sums.
	if sumMargin.IsPositive() {
		report.BreakEvenRevenue = fixed.Mul(sumRevenue).Div(sumMargin).Round(2)
		report.OrdersNeeded = fixed.Mul(n).Div(sumMargin).Ceil().IntPart()
	}
	return report
}

type CompanyProfit struct {
	CompanyID    uuid.UUID       `json:"company_id"`
	Name         string          `json:"name"`
	TotalOrders  int             `json:"total_orders"`
	Revenue      decimal.Decimal `json:"revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
}

// CompanyProfits ranks companies with at least one completed order by gross
// profit, highest first.
func CompanyProfits(orders []model.Order, companies []model.Company) []CompanyProfit {
	byID := make(map[uuid.UUID]*CompanyProfit, len(companies))
	for _, c := range companies {
		byID[c.ID] = &CompanyProfit{
			CompanyID:   c.ID,
			Name:        c.Name,
			Revenue:     decimal.Zero,
			TotalCost:   decimal.Zero,
			GrossProfit: decimal.Zero,
		}
	}

	for i := range orders {
		o := &orders[i]
		if o.Status != model.OrderStatusCompleted {
			continue
		}
		cp, ok := byID[o.CompanyID]
		if !ok {
			continue
		}
		cp.TotalOrders++
		cp.Revenue = cp.Revenue.Add(o.SellPrice())
		cp.TotalCost = cp.TotalCost.Add(o.COGS())
		cp.GrossProfit = cp.GrossProfit.Add(o.GrossProfit())
	}

	out := make([]CompanyProfit, 0, len(byID))
	for _, cp := range byID {
		if cp.TotalOrders == 0 {
			continue
		}
		cp.ProfitMargin = percent(cp.GrossProfit, cp.Revenue)
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GrossProfit.Equal(out[j].GrossProfit) {
			return out[i].GrossProfit.GreaterThan(out[j].GrossProfit)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// completedOrders keeps completed orders that carry a completion time.
func completedOrders(orders []model.Order) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == model.OrderStatusCompleted && o.CompletedAt != nil {
			out = append(out, o)
		}
	}
	return out
}

// percent returns part/whole*100 rounded to two places, or zero when whole is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
