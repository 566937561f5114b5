package billing

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownPlan is returned for plan identifiers outside the catalog
	ErrUnknownPlan = errors.New("unknown plan")
)

type PlanKind int

const (
	// PlanSubscription - recurring, unlimited while active
	PlanSubscription PlanKind = iota

	// PlanCredits - one-time purchase of a fixed-size credit pack
	PlanCredits

	// PlanOneTime - one-time purchase, permanent pro upgrade
	PlanOneTime
)

func (k PlanKind) String() string {
	switch k {
	case PlanSubscription:
		return "subscription"
	case PlanCredits:
		return "credits"
	case PlanOneTime:
		return "one_time"
	default:
		return "unknown"
	}
}

// Plan is a parsed purchase intent. ID keeps the identifier exactly as the
// client sent it, because the success redirect echoes it back for the grant.
type Plan struct {
	Kind PlanKind
	ID   string
}

// ParsePlan validates a plan identifier at the boundary. Internal code only
// ever sees the closed Plan variant; unknown identifiers stop here.
//
// The numeric suffix on "credits" identifiers (e.g. "credits10") is
// informational - pack size always comes from configuration.
func ParsePlan(id string) (Plan, error) {
	switch {
	case id == "subscription":
		return Plan{Kind: PlanSubscription, ID: id}, nil
	case strings.HasPrefix(id, "credits"):
		return Plan{Kind: PlanCredits, ID: id}, nil
	case id == "one_time":
		return Plan{Kind: PlanOneTime, ID: id}, nil
	default:
		return Plan{}, ErrUnknownPlan
	}
}

// Recurring reports whether the plan bills as a subscription
func (p Plan) Recurring() bool {
	return p.Kind == PlanSubscription
}
