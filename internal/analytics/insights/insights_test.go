package insights

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/arbio/commerce-platform/internal/analytics/aggregator"
)

func metricsWith(conversion, avgOrder float64) *aggregator.BusinessMetrics {
	return &aggregator.BusinessMetrics{
		ConversionRate:    decimal.NewFromFloat(conversion),
		AverageOrderValue: decimal.NewFromFloat(avgOrder),
	}
}

func comparisonWithGrowth(revenueGrowth float64) *aggregator.PeriodComparison {
	return &aggregator.PeriodComparison{
		Growth: aggregator.GrowthRates{RevenueGrowth: decimal.NewFromFloat(revenueGrowth)},
	}
}

func TestAnalyzeLowConversion(t *testing.T) {
	report := Analyze(metricsWith(5.5, 100), comparisonWithGrowth(10), &aggregator.RealTimeMetrics{})

	assert.Contains(t, report.Insights, "Conversion rate is 5.5%, which is below industry average")
	assert.Contains(t, report.Recommendations, "Consider implementing email marketing campaigns to convert users")
	assert.Empty(t, report.Alerts)
}

func TestAnalyzeHealthyBusiness(t *testing.T) {
	report := Analyze(metricsWith(25, 120), comparisonWithGrowth(15), &aggregator.RealTimeMetrics{PendingOrders: 3})

	assert.Equal(t, []string{"Good conversion rate of 25%"}, report.Insights)
	assert.Empty(t, report.Recommendations)
	assert.Empty(t, report.Alerts)
}

func TestAnalyzeRevenueDecline(t *testing.T) {
	report := Analyze(metricsWith(25, 120), comparisonWithGrowth(-12.5), &aggregator.RealTimeMetrics{})

	assert.Contains(t, report.Alerts, "Revenue declined by 12.5% compared to previous period")
	assert.Contains(t, report.Recommendations, "Review product pricing and customer satisfaction metrics")
}

func TestAnalyzeStrongGrowth(t *testing.T) {
	report := Analyze(metricsWith(25, 120), comparisonWithGrowth(35), &aggregator.RealTimeMetrics{})

	assert.Contains(t, report.Insights, "Excellent revenue growth of 35%")
	// Growth in the (0, 20] band produces neither insight nor alert.
	quiet := Analyze(metricsWith(25, 120), comparisonWithGrowth(20), &aggregator.RealTimeMetrics{})
	assert.Len(t, quiet.Insights, 1)
	assert.Empty(t, quiet.Alerts)
}

func TestAnalyzeLowOrderValueAndBacklog(t *testing.T) {
	report := Analyze(metricsWith(25, 30), comparisonWithGrowth(5), &aggregator.RealTimeMetrics{PendingOrders: 14})

	assert.Contains(t, report.Recommendations, "Consider implementing upselling strategies to increase average order value")
	assert.Contains(t, report.Alerts, "14 orders are pending processing")
	assert.Contains(t, report.Recommendations, "Review order processing workflow for bottlenecks")

	// Exactly 10 pending orders is not yet a backlog.
	calm := Analyze(metricsWith(25, 120), comparisonWithGrowth(5), &aggregator.RealTimeMetrics{PendingOrders: 10})
	assert.Empty(t, calm.Alerts)
}
