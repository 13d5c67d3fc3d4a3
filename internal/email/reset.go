package email

import "fmt"

// Sender delivers transactional mail over the configured SMTP relay.
type Sender struct {
	Settings  SMTPSettings
	FromName  string
	FromEmail string
}

func (s *Sender) Configured() bool {
	return s != nil && s.Settings.Host != "" && s.FromEmail != ""
}

func (s *Sender) SendPasswordReset(toEmail, resetURL string) error {
	body := fmt.Sprintf(
		"Someone asked to reset the password for your DooDoo Log account.\r\n\r\n"+
			"Open this link to choose a new password (it expires soon and works once):\r\n\r\n%s\r\n\r\n"+
			"If this wasn't you, you can ignore this email.\r\n",
		resetURL,
	)
	return SendSMTP(s.Settings, Message{
		FromName:  s.FromName,
		FromEmail: s.FromEmail,
		ToEmail:   toEmail,
		Subject:   "Reset your DooDoo Log password",
		TextBody:  body,
	})
}
