package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"time"

	"portfolio-backend/backend/internal/domain/portfolio"
)

// SMTPSender 通过 SMTP 把联系表单转发到站长邮箱。
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
	to   string
	host string
}

// NewSMTPSender 根据 SMTPConfig 构造发送器。
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("smtp host, from and to are required")
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
		to:   cfg.To,
		host: cfg.Host,
	}, nil
}

// Name 返回发送渠道名称，用于日志。
func (s *SMTPSender) Name() string { return "smtp" }

// NotifyContact 发送联系表单通知，Reply-To 指向留言者邮箱。
func (s *SMTPSender) NotifyContact(ctx context.Context, msg *portfolio.ContactMessage) error {
	if s == nil {
		return fmt.Errorf("smtp sender not configured")
	}

	subject, textBody, _ := composeContactContent(msg)
	payload := buildMessage(s.from, s.to, msg.Email, subject, textBody)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("new smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(s.auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(envelopeAddress(s.from)); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(envelopeAddress(s.to)); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(payload); err != nil {
		_ = writer.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

func buildMessage(from, to, replyTo, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", formatAddress(from))
	fmt.Fprintf(&buf, "To: %s\r\n", formatAddress(to))
	if addr, err := mail.ParseAddress(singleLine(replyTo)); err == nil {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", addr.String())
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", encodeHeader(singleLine(subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

func envelopeAddress(raw string) string {
	if addr, err := mail.ParseAddress(raw); err == nil && addr.Address != "" {
		return addr.Address
	}
	return raw
}

func formatAddress(raw string) string {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return encodeHeader(singleLine(raw))
	}
	return addr.String()
}

func encodeHeader(value string) string {
	for i := 0; i < len(value); i++ {
		if value[i] >= 0x80 {
			return mime.QEncoding.Encode("UTF-8", value)
		}
	}
	return value
}
