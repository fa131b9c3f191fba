package aggregator_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbio/commerce-platform/internal/analytics/aggregator"
	"github.com/arbio/commerce-platform/internal/analytics/repository"
	"github.com/arbio/commerce-platform/pkg/models"
)

func TestCohortAnalysis(t *testing.T) {
	repo := repository.NewMemoryRepository()

	// January cohort: two users, one of whom never ordered.
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	buyer := addUser(repo, "jan-buyer@example.com", true, jan)
	addUser(repo, "jan-idle@example.com", true, jan)
	addOrder(repo, buyer, models.OrderStatusDelivered, "100.00", jan.AddDate(0, 1, 0))
	// Cancelled orders still count toward cohort revenue.
	addOrder(repo, buyer, models.OrderStatusCancelled, "20.00", jan.AddDate(0, 2, 0))

	// March cohort: single user, single order.
	mar := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	solo := addUser(repo, "mar@example.com", true, mar)
	addOrder(repo, solo, models.OrderStatusPending, "40.00", mar)

	cohorts, err := aggregator.New(repo).CohortAnalysis(context.Background())
	require.NoError(t, err)
	require.Len(t, cohorts, 2)

	// Most recent cohort first.
	assert.Equal(t, "2025-03", cohorts[0].Cohort)
	assert.Equal(t, int64(1), cohorts[0].UsersCount)
	assert.Equal(t, "40", cohorts[0].TotalRevenue.String())
	assert.Equal(t, "100", cohorts[0].RetentionRate.String())

	january := cohorts[1]
	assert.Equal(t, "2025-01", january.Cohort)
	assert.Equal(t, int64(2), january.UsersCount)
	assert.Equal(t, "120", january.TotalRevenue.String())
	// The orderless user contributes one zero row: 120 / (2 + 1) = 40.
	assert.Equal(t, "40", january.AverageOrderValue.String())
	assert.Equal(t, "50", january.RetentionRate.String())
}

func TestCohortAnalysisLimit(t *testing.T) {
	repo := repository.NewMemoryRepository()
	for i := 0; i < 15; i++ {
		signup := time.Date(2024, time.Month(1+i%12), 3, 0, 0, 0, 0, time.UTC).AddDate(i/12, 0, 0)
		addUser(repo, fmt.Sprintf("u%d@example.com", i), true, signup)
	}

	cohorts, err := aggregator.New(repo).CohortAnalysis(context.Background())
	require.NoError(t, err)
	require.Len(t, cohorts, 12, "only the 12 most recent cohorts survive")
	assert.Equal(t, "2025-03", cohorts[0].Cohort)
	for i := 1; i < len(cohorts); i++ {
		assert.True(t, cohorts[i-1].Cohort > cohorts[i].Cohort, "cohorts sorted most recent first")
	}
}

func TestCohortAnalysisEmpty(t *testing.T) {
	cohorts, err := aggregator.New(repository.NewMemoryRepository()).CohortAnalysis(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cohorts)
}
