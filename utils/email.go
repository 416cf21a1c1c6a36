package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// EmailConfig holds email configuration
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func emailConfigFromEnv() EmailConfig {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// SendBookingConfirmationEmail sends the payment confirmation for a booking
func SendBookingConfirmationEmail(to, bookingReference, listingTitle, amount string) error {
	config := emailConfigFromEnv()

	m := gomail.NewMessage()
	m.SetHeader("From", config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your Booking Confirmation")

	body := fmt.Sprintf(`
		<h2>Thank you for your booking!</h2>
		<p>Your payment has been received and your booking is confirmed.</p>
		<p><strong>Booking reference:</strong> %s</p>
		<p><strong>Listing:</strong> %s</p>
		<p><strong>Amount paid:</strong> %s</p>
		<p>We look forward to hosting you.</p>
	`, bookingReference, listingTitle, amount)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}
