package billing

import (
	"errors"
	"fmt"
	"net/url"

	"csvpilot/internal/config"

	stripe "github.com/stripe/stripe-go/v82"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
)

var (
	// ErrStripeNotConfigured is returned when no secret key is present
	ErrStripeNotConfigured = errors.New("stripe is not configured")

	// ErrPlanNotConfigured is returned when a plan needs a pre-configured
	// price reference and none exists. Only subscriptions hit this:
	// recurring prices can't be synthesized ad-hoc.
	ErrPlanNotConfigured = errors.New("plan has no configured price")
)

// Resolver maps a parsed plan to Stripe checkout session parameters and
// creates the hosted checkout session.
type Resolver struct {
	cfg *config.Config

	// Injected for tests
	createSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewResolver(cfg *config.Config) *Resolver {
	stripe.Key = cfg.Stripe.SecretKey

	return &Resolver{
		cfg:           cfg,
		createSession: stripesession.New,
	}
}

// Resolve builds the checkout parameters for a plan: transaction mode, one
// line item (configured price reference or ad-hoc price data), and the
// success URL carrying the plan identifier so the grant handler can route
// the redirect.
func (r *Resolver) Resolve(plan Plan) (*stripe.CheckoutSessionParams, error) {
	item, err := r.lineItem(plan)
	if err != nil {
		return nil, err
	}

	mode := stripe.CheckoutSessionModePayment
	if plan.Recurring() {
		mode = stripe.CheckoutSessionModeSubscription
	}

	successURL := fmt.Sprintf("%s/?success=1&plan=%s", r.cfg.Server.BaseURL, url.QueryEscape(plan.ID))
	cancelURL := fmt.Sprintf("%s/?cancelled=1", r.cfg.Server.BaseURL)

	return &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems:  []*stripe.CheckoutSessionLineItemParams{item},
		Metadata: map[string]string{
			"plan": plan.ID,
		},
	}, nil
}

func (r *Resolver) lineItem(plan Plan) (*stripe.CheckoutSessionLineItemParams, error) {
	priceID := ""
	switch plan.Kind {
	case PlanSubscription:
		priceID = r.cfg.Stripe.PriceSubscription
	case PlanCredits:
		priceID = r.cfg.Stripe.PriceCredits
	case PlanOneTime:
		priceID = r.cfg.Stripe.PriceOneTime
	}

	if priceID != "" {
		return &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}, nil
	}

	// No price reference configured - synthesize ad-hoc price data
	var name string
	var amount int64

	switch plan.Kind {
	case PlanSubscription:
		return nil, ErrPlanNotConfigured
	case PlanCredits:
		name = fmt.Sprintf("%d analysis credits", r.cfg.Quota.CreditsPerPack)
		amount = r.cfg.Quota.CreditsPackPrice * 100
	case PlanOneTime:
		name = "Lifetime unlimited analyses"
		amount = r.cfg.Quota.OneTimePrice * 100
	}

	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String("usd"),
			UnitAmount: stripe.Int64(amount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
		},
		Quantity: stripe.Int64(1),
	}, nil
}

// CreateSession resolves the plan and creates a hosted checkout session,
// returning its redirect URL
func (r *Resolver) CreateSession(plan Plan) (string, error) {
	if r.cfg.Stripe.SecretKey == "" {
		return "", ErrStripeNotConfigured
	}

	params, err := r.Resolve(plan)
	if err != nil {
		return "", err
	}

	sess, err := r.createSession(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	if sess == nil || sess.URL == "" {
		return "", fmt.Errorf("checkout session has no redirect URL")
	}

	return sess.URL, nil
}
