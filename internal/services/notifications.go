package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/doctors-portal/internal/models"
)

const textbeltURL = "https://textbelt.com/text"

// NotificationService sends booking confirmations by SMS through Textbelt.
type NotificationService struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewNotificationService returns a service that is a no-op when apiKey is empty.
func NewNotificationService(apiKey string, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		apiKey:     apiKey,
		endpoint:   textbeltURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "notifications").Logger(),
	}
}

// WithEndpoint overrides the Textbelt URL.
func (s *NotificationService) WithEndpoint(endpoint string) *NotificationService {
	s.endpoint = endpoint
	return s
}

// SendBookingConfirmationSMS texts the patient in the background so the
// API response is not held up.
func (s *NotificationService) SendBookingConfirmationSMS(b *models.Booking) {
	if s == nil || s.apiKey == "" {
		return
	}
	if b.Phone == "" {
		s.log.Debug().Str("booking_id", b.ID.Hex()).Msg("SMS not sent: booking has no phone number")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Send(ctx, b.Phone, confirmationText(b)); err != nil {
			s.log.Warn().Err(err).Str("booking_id", b.ID.Hex()).Msg("failed to send booking confirmation")
			return
		}
		s.log.Info().Str("booking_id", b.ID.Hex()).Msg("booking confirmation sent")
	}()
}

func confirmationText(b *models.Booking) string {
	return fmt.Sprintf("Appointment confirmed: %s on %s at %s.", b.Treatment, b.AppointmentDate, b.Slot)
}

// Send posts one SMS and reports Textbelt's verdict.
func (s *NotificationService) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("textbelt decode: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt rejected message: %s", result.Error)
	}
	return nil
}
