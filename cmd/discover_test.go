package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grantscout/grantscout/grant"
)

func TestCriteriaFromFlags(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("industry", []string{"Film", "Documentary"})
	viper.Set("location", []string{"NSW"})
	viper.Set("keyword", []string{"feature film"})
	viper.Set("category", "Documentary")
	viper.Set("amount-min", 50000.0)
	viper.Set("amount-max", 150000.0)
	viper.Set("deadline", "2026-06-30")
	viper.Set("status", "open")

	criteria, err := criteriaFromFlags()

	require.NoError(t, err)
	assert.Equal(t, []string{"Film", "Documentary"}, criteria.Industries)
	assert.Equal(t, []string{"NSW"}, criteria.Locations)
	assert.Equal(t, []string{"feature film"}, criteria.Keywords)
	assert.Equal(t, "Documentary", criteria.Category)
	assert.Equal(t, grant.AmountRange{Min: 50000, Max: 150000}, criteria.Amount)
	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), criteria.Deadline)
	assert.Equal(t, grant.StatusOpen, criteria.Status)
}

func TestCriteriaFromFlagsBadDeadline(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("deadline", "next tuesday")

	_, err := criteriaFromFlags()
	assert.Error(t, err)
}

func TestCriteriaFromFlagsEmpty(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	criteria, err := criteriaFromFlags()

	require.NoError(t, err)
	assert.Empty(t, criteria.Industries)
	assert.True(t, criteria.Deadline.IsZero())
}
