package coinbase

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const apiVersion = "2018-03-22"

var ErrNotConfigured = errors.New("coinbase commerce api key missing")

type Client struct {
	apiKey string
	http   *resty.Client
}

type ChargeRequest struct {
	Name        string
	Description string
	AmountCents int64
	OrderID     int64
}

type TimelineEntry struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type Charge struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	HostedURL string          `json:"hosted_url"`
	Timeline  []TimelineEntry `json:"timeline"`
}

// LatestStatus is the status of the last timeline entry, or "created".
func (c *Charge) LatestStatus() string {
	if len(c.Timeline) == 0 || c.Timeline[len(c.Timeline)-1].Status == "" {
		return "created"
	}
	return c.Timeline[len(c.Timeline)-1].Status
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coinbase createCharge failed: %d %s", e.StatusCode, e.Message)
}

func NewClient(address string, apiKey string) *Client {
	client := resty.New().
		SetBaseURL(address).
		SetHeader("X-CC-Api-Key", apiKey).
		SetHeader("X-CC-Version", apiVersion).
		SetHeader("Accept", "application/json")

	return &Client{apiKey: apiKey, http: client}
}

// AmountUSD renders a cent amount as a two-decimal USD string.
func AmountUSD(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body := map[string]interface{}{
		"name":         req.Name,
		"description":  req.Description,
		"pricing_type": "fixed_price",
		"local_price": map[string]string{
			"amount":   AmountUSD(req.AmountCents),
			"currency": "USD",
		},
		"metadata": map[string]string{
			"order_id": fmt.Sprintf("%d", req.OrderID),
		},
	}

	var result struct {
		Data Charge `json:"data"`
	}
	var failure struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	response, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/charges")
	if err != nil {
		return nil, fmt.Errorf("coinbase request error %w", err)
	}
	if response.IsError() {
		message := failure.Error.Message
		if message == "" {
			message = response.Status()
		}
		return nil, &APIError{StatusCode: response.StatusCode(), Message: message}
	}
	if result.Data.ID == "" || result.Data.HostedURL == "" {
		return nil, &APIError{StatusCode: response.StatusCode(), Message: "charge without id or hosted url"}
	}
	return &result.Data, nil
}
