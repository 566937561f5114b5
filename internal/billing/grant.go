package billing

import (
	"csvpilot/internal/entitlement"
)

// ApplyGrant upgrades a session's entitlement after the processor redirects
// back with a success indicator. Pro grants are naturally idempotent (a
// boolean), credit grants are not: a replayed success redirect adds the
// pack again. The verified webhook path is the place to fix that once it
// carries a durable ledger.
func ApplyGrant(plan Plan, state *entitlement.State, packSize int) {
	switch plan.Kind {
	case PlanSubscription, PlanOneTime:
		state.Pro = true
	case PlanCredits:
		state.Credits += packSize
	}
}
