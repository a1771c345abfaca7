package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func timeHour(n int) time.Duration {
	return time.Duration(n) * time.Hour
}
