package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/juriscalc/payment-bridge/internal/config"
	"github.com/juriscalc/payment-bridge/internal/errs"
	"github.com/juriscalc/payment-bridge/internal/models"
)

const createPaymentPath = "/api-payment/V4/Charge/CreatePayment"

// requestTimeout bounds the outbound call. No automatic retry: the
// gateway is idempotent on orderId, so retrying is the caller's call.
const requestTimeout = 30 * time.Second

// Client performs the outbound create-payment call against the Izipay
// API and folds its deployment-dependent response shapes into one
// GatewayOutcome.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// rawResponse covers every create-payment response shape observed
// across gateway deployments. Normalization precedence lives in
// normalize, nowhere else.
type rawResponse struct {
	Status        string `json:"status"`
	FormToken     string `json:"formToken"`
	PaymentURL    string `json:"paymentUrl"`
	RedirectURL   string `json:"redirectUrl"`
	TransactionID string `json:"transactionId"`
	ID            string `json:"id"`
	Answer        struct {
		FormToken     string `json:"formToken"`
		TransactionID string `json:"transactionId"`
		ErrorMessage  string `json:"errorMessage"`
	} `json:"answer"`
	ErrorMessage string `json:"errorMessage"`
}

// CreatePayment sends the signed payload to the gateway. The payload
// bytes go out exactly as signed; the X-Signature header carries the
// digest.
func (c *Client) CreatePayment(ctx context.Context, payload *models.SignedPayload) (*models.GatewayOutcome, error) {
	if c.cfg.APIKey == "" || c.cfg.SecretKey == "" || c.cfg.MerchantID == "" {
		return nil, errs.Configuration("gateway.CreatePayment",
			"gateway credentials are not configured: API_KEY, SECRET_KEY and MERCHANT_ID are required")
	}

	url := c.cfg.BaseURL + createPaymentPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.APIKey + ":" + c.cfg.SecretKey))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Signature", payload.Digest)
	req.Header.Set("User-Agent", "JurisCalc/1.0")

	c.logger.Info("calling gateway create-payment",
		zap.String("url", url),
		zap.String("api_key", redact(c.cfg.APIKey)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Transient("gateway.CreatePayment", "gateway request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transient("gateway.CreatePayment", "failed to read gateway response", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, errs.Transient("gateway.CreatePayment",
			fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errs.GatewayRejected("gateway.CreatePayment",
			fmt.Sprintf("gateway rejected the request with status %d", resp.StatusCode))
	}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errs.Transient("gateway.CreatePayment", "failed to decode gateway response", err)
	}

	// HTTP 200 with a domain-level decline is still a decline.
	if raw.Status == "ERROR" {
		detail := raw.ErrorMessage
		if detail == "" {
			detail = raw.Answer.ErrorMessage
		}
		c.logger.Warn("gateway declined payment",
			zap.String("detail", detail),
		)
		return nil, errs.GatewayRejected("gateway.CreatePayment", "gateway reported ERROR: "+detail)
	}

	return normalize(&raw), nil
}

// normalize resolves the response-shape aliases with a fixed
// precedence: formToken from answer.formToken then formToken; payment
// URL from paymentUrl then redirectUrl; transaction id from
// transactionId then id then answer.transactionId.
func normalize(raw *rawResponse) *models.GatewayOutcome {
	outcome := &models.GatewayOutcome{RawStatus: raw.Status}

	outcome.FormToken = raw.Answer.FormToken
	if outcome.FormToken == "" {
		outcome.FormToken = raw.FormToken
	}

	outcome.PaymentURL = raw.PaymentURL
	if outcome.PaymentURL == "" {
		outcome.PaymentURL = raw.RedirectURL
	}

	outcome.TransactionID = raw.TransactionID
	if outcome.TransactionID == "" {
		outcome.TransactionID = raw.ID
	}
	if outcome.TransactionID == "" {
		outcome.TransactionID = raw.Answer.TransactionID
	}

	return outcome
}

// redact keeps only a short prefix of a credential for diagnostics.
// Full secrets never reach logs or error payloads.
func redact(s string) string {
	if len(s) <= 8 {
		return "…"
	}
	return s[:8] + "…"
}
