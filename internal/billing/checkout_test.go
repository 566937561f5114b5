package billing

import (
	"testing"

	"csvpilot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		Stripe: config.StripeConfig{SecretKey: "sk_test_123"},
		Quota: config.QuotaConfig{
			CreditsPerPack:   10,
			CreditsPackPrice: 9,
			OneTimePrice:     29,
		},
	}
}

func TestResolveCreditsAdHoc(t *testing.T) {
	r := NewResolver(testConfig())

	plan, err := ParsePlan("credits10")
	require.NoError(t, err)

	params, err := r.Resolve(plan)
	require.NoError(t, err)

	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	require.Len(t, params.LineItems, 1)

	item := params.LineItems[0]
	require.Nil(t, item.Price)
	require.NotNil(t, item.PriceData)
	assert.Equal(t, int64(900), *item.PriceData.UnitAmount)
	assert.Equal(t, "usd", *item.PriceData.Currency)
	assert.Equal(t, "10 analysis credits", *item.PriceData.ProductData.Name)
	assert.Equal(t, int64(1), *item.Quantity)

	assert.Contains(t, *params.SuccessURL, "success=1")
	assert.Contains(t, *params.SuccessURL, "plan=credits10")
	assert.Equal(t, "credits10", params.Metadata["plan"])
}

func TestResolveOneTimeAdHoc(t *testing.T) {
	r := NewResolver(testConfig())

	plan, err := ParsePlan("one_time")
	require.NoError(t, err)

	params, err := r.Resolve(plan)
	require.NoError(t, err)

	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	assert.Equal(t, int64(2900), *params.LineItems[0].PriceData.UnitAmount)
}

func TestResolveSubscriptionRequiresPriceID(t *testing.T) {
	r := NewResolver(testConfig())

	plan, err := ParsePlan("subscription")
	require.NoError(t, err)

	_, err = r.Resolve(plan)
	assert.ErrorIs(t, err, ErrPlanNotConfigured)
}

func TestResolvePrefersConfiguredPrice(t *testing.T) {
	cfg := testConfig()
	cfg.Stripe.PriceSubscription = "price_sub_123"
	cfg.Stripe.PriceCredits = "price_credits_123"
	r := NewResolver(cfg)

	sub, err := ParsePlan("subscription")
	require.NoError(t, err)

	params, err := r.Resolve(sub)
	require.NoError(t, err)
	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *params.Mode)
	assert.Equal(t, "price_sub_123", *params.LineItems[0].Price)
	assert.Nil(t, params.LineItems[0].PriceData)

	credits, err := ParsePlan("credits10")
	require.NoError(t, err)

	params, err = r.Resolve(credits)
	require.NoError(t, err)
	assert.Equal(t, "price_credits_123", *params.LineItems[0].Price)
}

func TestCreateSessionReturnsRedirectURL(t *testing.T) {
	r := NewResolver(testConfig())

	var got *stripe.CheckoutSessionParams
	r.createSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		got = params
		return &stripe.CheckoutSession{URL: "https://checkout.stripe.example/cs_test"}, nil
	}

	plan, err := ParsePlan("credits10")
	require.NoError(t, err)

	url, err := r.CreateSession(plan)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.example/cs_test", url)
	require.NotNil(t, got)
	assert.Equal(t, "credits10", got.Metadata["plan"])
}

func TestCreateSessionWithoutSecretKey(t *testing.T) {
	cfg := testConfig()
	cfg.Stripe.SecretKey = ""
	r := NewResolver(cfg)

	plan, err := ParsePlan("credits10")
	require.NoError(t, err)

	_, err = r.CreateSession(plan)
	assert.ErrorIs(t, err, ErrStripeNotConfigured)
}
