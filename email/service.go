// Package email sends booking confirmation messages. When SMTP is not
// configured the service logs the message instead of sending it, so local
// runs work without a mail server.
package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/lifegoals/quest-api/models"
	"github.com/lifegoals/quest-api/utils"
)

// LoadConfig loads SMTP configuration from environment.
func LoadConfig() *models.EmailConfig {
	return &models.EmailConfig{
		SMTPHost:    utils.GetEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:    utils.GetEnvInt("SMTP_PORT", 465),
		Username:    utils.GetEnvOrDefault("SMTP_USERNAME", ""),
		Password:    utils.GetEnvOrDefault("SMTP_PASSWORD", ""),
		FromAddress: utils.GetEnvOrDefault("FROM_EMAIL", "noreply@lifegoals.example.com"),
		FromName:    utils.GetEnvOrDefault("FROM_NAME", "Life Goals Quest"),
	}
}

// Service handles email sending.
type Service struct {
	config *models.EmailConfig
}

// NewService creates a new email service.
func NewService(config *models.EmailConfig) *Service {
	return &Service{config: config}
}

// BuildBookingConfirmation renders the confirmation sent after a visitor
// books a call slot.
func (es *Service) BuildBookingConfirmation(booking *models.Booking) (string, string) {
	subject := "Your call slot is booked"
	body := fmt.Sprintf(`Hello %s,

Thank you for taking the Life Goals Preparedness Quest!

Our Relationship Manager will connect with you on %s during %s.

If the slot no longer works for you, just reply to this email.

Best regards,
Life Goals Quest Team`, booking.Name, booking.PreferredDate, booking.PreferredTime)

	return subject, body
}

// SendEmail delivers a message, or logs it when SMTP is unconfigured.
func (es *Service) SendEmail(to, subject, body string) error {
	if es.config.Username == "" || es.config.Password == "" {
		utils.LogInfo("SMTP not configured, logging email instead")
		utils.LogInfo("=== EMAIL ===")
		utils.LogInfo("To: %s", to)
		utils.LogInfo("Subject: %s", subject)
		utils.LogInfo("Body: %s", body)
		utils.LogInfo("=============")
		return nil
	}

	return es.sendEmail(to, subject, body)
}

// sendEmail sends an email using SMTP with SSL support
func (es *Service) sendEmail(to, subject, body string) error {
	utils.LogInfo("Sending email to %s: %s", to, subject)

	message := fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", es.config.FromName, es.config.FromAddress, to, subject, body)

	// For port 465 (implicit SSL), we need to establish SSL connection first
	addr := fmt.Sprintf("%s:%d", es.config.SMTPHost, es.config.SMTPPort)

	var conn net.Conn
	var err error

	if es.config.SMTPPort == 465 {
		utils.LogDebug("Connecting to SMTP server %s with SSL", addr)
		tlsConfig := &tls.Config{
			ServerName: es.config.SMTPHost,
		}
		conn, err = tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			utils.LogError("Failed to establish SSL connection to %s: %v", addr, err)
			return err
		}
	} else {
		// Port 587 or 25 uses plain connection with STARTTLS
		utils.LogDebug("Connecting to SMTP server %s (plain)", addr)
		conn, err = net.Dial("tcp", addr)
		if err != nil {
			utils.LogError("Failed to connect to %s: %v", addr, err)
			return err
		}
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, es.config.SMTPHost)
	if err != nil {
		utils.LogError("Failed to create SMTP client: %v", err)
		return err
	}
	defer client.Quit()

	if es.config.SMTPPort != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{
				ServerName: es.config.SMTPHost,
			}
			if err = client.StartTLS(tlsConfig); err != nil {
				utils.LogError("Failed to start TLS: %v", err)
				return err
			}
		}
	}

	auth := smtp.PlainAuth("", es.config.Username, es.config.Password, es.config.SMTPHost)
	if err = client.Auth(auth); err != nil {
		utils.LogError("SMTP authentication failed: %v", err)
		return err
	}

	if err = client.Mail(es.config.FromAddress); err != nil {
		utils.LogError("Failed to set sender: %v", err)
		return err
	}
	if err = client.Rcpt(to); err != nil {
		utils.LogError("Failed to set recipient: %v", err)
		return err
	}

	writer, err := client.Data()
	if err != nil {
		utils.LogError("Failed to open data writer: %v", err)
		return err
	}
	defer writer.Close()

	if _, err = writer.Write([]byte(message)); err != nil {
		utils.LogError("Failed to write message: %v", err)
		return err
	}

	utils.LogInfo("Email sent successfully to %s", to)
	return nil
}
