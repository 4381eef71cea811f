package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/scanpay-backend/internal/risk"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

func TestDemoScenariosScores(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	got := DemoScenarios(risk.NewScorer(time.UTC, risk.DefaultThreshold), now)
	require.Len(t, got, 5)

	want := []struct {
		score  int
		status enums.OrderStatus
	}{
		{0, enums.OrderStatusPending},
		{1, enums.OrderStatusPending},
		{4, enums.OrderStatusPending},
		{8, enums.OrderStatusFlagged},
		{5, enums.OrderStatusFlagged},
	}
	for i, w := range want {
		if got[i].SuspicionScore != w.score || got[i].Status != w.status {
			t.Fatalf("%s: score=%d status=%s rules=%v", got[i].OrderNumber, got[i].SuspicionScore, got[i].Status, got[i].TriggeredRules)
		}
	}
	require.Equal(t, []string{risk.RuleRapidScanning}, got[1].TriggeredRules)
	require.Equal(t, 20, got[4].ItemCount)
}

func TestDemoScenariosAtNightAddUnusualTime(t *testing.T) {
	now := time.Date(2025, 3, 14, 2, 0, 0, 0, time.UTC)
	got := DemoScenarios(risk.NewScorer(time.UTC, 0), now)
	require.Equal(t, 2, got[0].SuspicionScore)
	require.Contains(t, got[0].TriggeredRules, risk.RuleUnusualTime)
}
