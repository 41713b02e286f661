package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sokomart/grocery-api/internal/config"
)

// Sender delivers one SMS message. The worker receives it via its
// constructor, tests substitute a fake.
type Sender interface {
	Send(ctx context.Context, phone string, message string) error
}

// SMSClient talks to an Africa's Talking style messaging API.
type SMSClient struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	username string
	apiKey   string
	senderID string
}

func NewSMSClient(logger *slog.Logger, cfg config.SMS) *SMSClient {
	return &SMSClient{
		logger:   logger.With(slog.String("component", "sms")),
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
	}
}

type smsResponse struct {
	SMSMessageData struct {
		Recipients []struct {
			Number string `json:"number"`
			Status string `json:"status"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

func (c *SMSClient) Send(ctx context.Context, phone string, message string) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("to", phone)
	form.Set("message", message)
	if c.senderID != "" {
		form.Set("from", c.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read sms response: %w", err)
	}

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return fmt.Errorf("sms gateway returned %d: %s", res.StatusCode, string(body))
	}

	var parsed smsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to decode sms response: %w", err)
	}
	for _, r := range parsed.SMSMessageData.Recipients {
		if r.Status != "Success" {
			return fmt.Errorf("sms gateway rejected %s: %s", r.Number, r.Status)
		}
	}

	c.logger.Debug("sms sent", slog.String("to", phone))
	return nil
}
