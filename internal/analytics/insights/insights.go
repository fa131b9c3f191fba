// Package insights derives narrative findings from computed metrics. The
// rules are fixed thresholds; no statistical modelling is involved.
package insights

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/arbio/commerce-platform/internal/analytics/aggregator"
)

var (
	lowConversionRate = decimal.NewFromInt(10)
	strongGrowth      = decimal.NewFromInt(20)
	lowOrderValue     = decimal.NewFromInt(50)
)

const pendingBacklogLimit = 10

// Report holds the three independent finding lists. Any of them may be
// empty; a healthy business produces positive insights and nothing else.
type Report struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	Alerts          []string `json:"alerts"`
}

// Analyze applies the threshold rules to the metric snapshot. Each rule
// fires independently of the others.
func Analyze(metrics *aggregator.BusinessMetrics, comparison *aggregator.PeriodComparison, realTime *aggregator.RealTimeMetrics) *Report {
	report := &Report{
		Insights:        []string{},
		Recommendations: []string{},
		Alerts:          []string{},
	}

	if metrics.ConversionRate.LessThan(lowConversionRate) {
		report.Insights = append(report.Insights,
			fmt.Sprintf("Conversion rate is %s%%, which is below industry average", metrics.ConversionRate))
		report.Recommendations = append(report.Recommendations,
			"Consider implementing email marketing campaigns to convert users")
	} else {
		report.Insights = append(report.Insights,
			fmt.Sprintf("Good conversion rate of %s%%", metrics.ConversionRate))
	}

	revenueGrowth := comparison.Growth.RevenueGrowth
	switch {
	case revenueGrowth.IsNegative():
		report.Alerts = append(report.Alerts,
			fmt.Sprintf("Revenue declined by %s%% compared to previous period", revenueGrowth.Abs()))
		report.Recommendations = append(report.Recommendations,
			"Review product pricing and customer satisfaction metrics")
	case revenueGrowth.GreaterThan(strongGrowth):
		report.Insights = append(report.Insights,
			fmt.Sprintf("Excellent revenue growth of %s%%", revenueGrowth))
	}

	if metrics.AverageOrderValue.LessThan(lowOrderValue) {
		report.Recommendations = append(report.Recommendations,
			"Consider implementing upselling strategies to increase average order value")
	}

	if realTime.PendingOrders > pendingBacklogLimit {
		report.Alerts = append(report.Alerts,
			fmt.Sprintf("%d orders are pending processing", realTime.PendingOrders))
		report.Recommendations = append(report.Recommendations,
			"Review order processing workflow for bottlenecks")
	}

	return report
}
