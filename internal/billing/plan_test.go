package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		id      string
		want    PlanKind
		wantErr bool
	}{
		{id: "subscription", want: PlanSubscription},
		{id: "credits10", want: PlanCredits},
		{id: "credits", want: PlanCredits},
		{id: "credits500", want: PlanCredits},
		{id: "one_time", want: PlanOneTime},
		{id: "bogus", wantErr: true},
		{id: "", wantErr: true},
		{id: "SUBSCRIPTION", wantErr: true},
		{id: "one-time", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			plan, err := ParsePlan(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPlan)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Kind)
			assert.Equal(t, tt.id, plan.ID, "plan must echo the original identifier")
		})
	}
}

func TestRecurring(t *testing.T) {
	sub, err := ParsePlan("subscription")
	require.NoError(t, err)
	assert.True(t, sub.Recurring())

	credits, err := ParsePlan("credits10")
	require.NoError(t, err)
	assert.False(t, credits.Recurring())

	oneTime, err := ParsePlan("one_time")
	require.NoError(t, err)
	assert.False(t, oneTime.Recurring())
}
