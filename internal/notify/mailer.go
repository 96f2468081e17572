package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/rs/zerolog/log"
	"github.com/spardha-tech/spardha-backend/internal/config"
)

// Mailer sends transactional mail over SMTP. An unconfigured mailer (empty
// host) logs and drops messages instead of failing enrollment flows.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewMailer builds a mailer from the SMTP config section.
func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.SMTPFrom,
	}
}

func (m *Mailer) send(to, subject, body string) error {
	if m.host == "" {
		log.Warn().Str("to", to).Str("subject", subject).Msg("smtp not configured, dropping mail")
		return nil
	}

	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	msg := fmt.Sprintf("From: %s\r\n", m.from)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/html; charset=UTF-8\r\n"
	msg += "\r\n"
	msg += body

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const enrollmentTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .token { font-size: 28px; font-weight: bold; color: #007bff; letter-spacing: 3px; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Spardha - Enrollment Confirmed</h2>
        <p>Hi {{.Name}}, you are enrolled in <strong>{{.QuizTitle}}</strong>.</p>
        <p>Your entry token is:</p>
        <div class="token">{{.Token}}</div>
        <p>Keep it handy. You will present it at the venue before your session begins.</p>
        <div class="footer">
            <p>This is an automated message from Spardha. If you did not enroll, contact the organizers.</p>
        </div>
    </div>
</body>
</html>
`

// SendEnrollmentToken mails a participant their entry token for a quiz.
func (m *Mailer) SendEnrollmentToken(to, name, quizTitle, token string) error {
	t, err := template.New("enrollment").Parse(enrollmentTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var body bytes.Buffer
	data := map[string]string{
		"Name":      name,
		"QuizTitle": quizTitle,
		"Token":     token,
	}
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return m.send(to, fmt.Sprintf("Spardha - Enrolled in %s", quizTitle), body.String())
}
