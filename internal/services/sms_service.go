package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// SMSService delivers text messages through an external provider. Delivery
// is best-effort: failures are logged and must never fail the operation
// that triggered the send.
type SMSService struct {
	baseURL  string
	apiKey   string
	senderID string
	client   *http.Client
}

// NewSMSService creates a new SMSService.
func NewSMSService(baseURL, apiKey, senderID string) *SMSService {
	return &SMSService{
		baseURL:  baseURL,
		apiKey:   apiKey,
		senderID: senderID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// Send posts a message to the provider.
func (s *SMSService) Send(phone, message string) error {
	if s.baseURL == "" {
		log.Println("[SMS] Provider not configured, skipping send")
		return nil
	}

	body, err := json.Marshal(smsPayload{To: phone, From: s.senderID, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[SMS] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[SMS] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}

	return nil
}

// SendOTP formats and delivers a login code.
func (s *SMSService) SendOTP(phone, code string, ttl time.Duration) error {
	message := fmt.Sprintf("%s is your Masala login code. Valid for %d minutes. Do not share it.",
		code, int(ttl.Minutes()))
	return s.Send(phone, message)
}
