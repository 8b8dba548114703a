// Package mercadopago creates hosted checkout preferences on Mercado Pago.
package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
)

const statementDescriptor = "PAYMENT CHECKOUT"

type Config struct {
	BaseURL         string
	AccessToken     string
	NotificationURL string
	SuccessURL      string
	PendingURL      string
	FailureURL      string
	CurrencyID      string
	Timeout         time.Duration
}

type Client struct {
	cfg  Config
	http *fasthttp.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("mercadopago: base url is required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("mercadopago: timeout must be positive")
	}
	if cfg.CurrencyID == "" {
		cfg.CurrencyID = "BRL"
	}

	return &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name:         "payment-checkout",
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
	}, nil
}

// Checkout performs exactly one preference-creation call. It never retries.
func (c *Client) Checkout(ctx context.Context, in CheckoutRequest) (*CheckoutArtifact, error) {
	body, err := json.Marshal(c.buildPreference(in))
	if err != nil {
		return nil, fmt.Errorf("mercadopago: encode preference: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("X-Idempotency-Key", in.ExternalReference)
	req.SetBody(body)

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, &Error{Payload: transportPayload(err), Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &Error{
			StatusCode: status,
			Payload:    errorPayload(resp.Body()),
			Err:        fmt.Errorf("unexpected status %d", status),
		}
	}

	var artifact CheckoutArtifact
	if err := json.Unmarshal(resp.Body(), &artifact); err != nil {
		return nil, &Error{
			StatusCode: status,
			Payload:    errorPayload(resp.Body()),
			Err:        fmt.Errorf("decode preference: %w", err),
		}
	}
	if artifact.ExternalReference == "" {
		artifact.ExternalReference = in.ExternalReference
	}

	return &artifact, nil
}

func (c *Client) buildPreference(in CheckoutRequest) preferenceRequest {
	pref := preferenceRequest{
		Items: []preferenceItem{{
			ID:          in.ExternalReference,
			Title:       in.Description,
			Description: in.Description,
			Quantity:    in.Quantity,
			CurrencyID:  c.cfg.CurrencyID,
			UnitPrice:   in.UnitPrice.InexactFloat64(),
		}},
		Payer: preferencePayer{
			Identification: identification{Type: "CPF", Number: in.TaxpayerID},
		},
		NotificationURL:     c.cfg.NotificationURL,
		ExternalReference:   in.ExternalReference,
		StatementDescriptor: statementDescriptor,
		Metadata:            map[string]string{"payment_id": in.ExternalReference},
	}

	if c.cfg.SuccessURL != "" || c.cfg.PendingURL != "" || c.cfg.FailureURL != "" {
		pref.BackURLs = &backURLs{
			Success: c.cfg.SuccessURL,
			Pending: c.cfg.PendingURL,
			Failure: c.cfg.FailureURL,
		}
		// auto_return is rejected by the API without a success URL
		if c.cfg.SuccessURL != "" {
			pref.AutoReturn = "approved"
		}
	}

	return pref
}

func (c *Client) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.cfg.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func errorPayload(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return append(json.RawMessage(nil), body...)
	}
	return json.RawMessage(strconv.Quote(string(body)))
}

func transportPayload(err error) json.RawMessage {
	return json.RawMessage(strconv.Quote(err.Error()))
}
