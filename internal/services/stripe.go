package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StripeProvider creates Stripe PaymentIntents and hands back their client
// secret.
type StripeProvider struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewStripeProvider(secretKey, baseURL string, log zerolog.Logger) *StripeProvider {
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	return &StripeProvider{
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "stripe").Logger(),
	}
}

type stripePaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

func (p *StripeProvider) CreatePayable(ctx context.Context, amountMinor int64, currency string) (string, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	form.Add("payment_method_types[]", "card")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("payments: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("payments: stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("payments: stripe api status %d: %s", resp.StatusCode, string(body))
	}

	var intent stripePaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return "", fmt.Errorf("payments: stripe decode: %w", err)
	}
	if intent.ClientSecret == "" {
		return "", fmt.Errorf("payments: stripe response missing client secret")
	}
	p.log.Info().Str("payment_intent", intent.ID).Int64("amount", amountMinor).Str("currency", currency).Msg("payment intent created")
	return intent.ClientSecret, nil
}
