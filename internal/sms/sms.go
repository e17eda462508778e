// Package sms delivers transactional text messages, preferring Twilio
// when configured and falling back to a generic JSON SMS API.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/medicothink/medicothink-backend/internal/config"
)

// Sender delivers one message to one phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// OtpMessage is bilingual so the code reads naturally regardless of the
// recipient's language.
func OtpMessage(code string) string {
	return fmt.Sprintf("Your MedicoThink verification code is: %s. Valid for 10 minutes. | رمز التحقق الخاص بك في MedicoThink هو: %s. صالح لمدة 10 دقائق.", code, code)
}

func WelcomeMessage(name string) string {
	return fmt.Sprintf("Welcome %s! Your MedicoThink account has been created successfully. | مرحباً %s! تم إنشاء حسابك في MedicoThink بنجاح.", name, name)
}

// TwilioSender posts to the Twilio Messages endpoint with basic auth.
type TwilioSender struct {
	sid    string
	token  string
	from   string
	client *http.Client
}

func NewTwilioSender(sid, token, from string) *TwilioSender {
	return &TwilioSender{sid: sid, token: token, from: from, client: &http.Client{}}
}

func (s *TwilioSender) Send(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", phone)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.sid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.sid, s.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio error: status %d: %s", resp.StatusCode, string(body))
	}
	slog.Info("sms sent via twilio", "phone", phone)
	return nil
}

// APISender posts to a generic JSON SMS gateway with bearer auth.
type APISender struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

func NewAPISender(apiURL, apiKey, from string) *APISender {
	return &APISender{apiURL: strings.TrimRight(apiURL, "/"), apiKey: apiKey, from: from, client: &http.Client{}}
}

func (s *APISender) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"from":    s.from,
		"to":      phone,
		"message": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms API error: status %d: %s", resp.StatusCode, string(body))
	}
	slog.Info("sms sent", "phone", phone)
	return nil
}

// LogSender is the no-provider fallback for local development. Messages
// are logged instead of delivered.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, phone, message string) error {
	slog.Info("sms test mode", "phone", phone, "message", message)
	return nil
}

// FromConfig picks the first configured provider: Twilio, then the
// generic API, then the development logger.
func FromConfig(cfg *config.Config) Sender {
	if cfg.TwilioSID != "" && cfg.TwilioToken != "" {
		return NewTwilioSender(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
	}
	if cfg.SMSAPIURL != "" && cfg.SMSAPIKey != "" {
		return NewAPISender(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSFrom)
	}
	slog.Warn("no SMS provider configured, using log sender")
	return LogSender{}
}
