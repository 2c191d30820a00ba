package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"portfolio-backend/backend/internal/config"
	"portfolio-backend/backend/internal/domain/portfolio"
	"portfolio-backend/backend/internal/infra/email"
	"portfolio-backend/backend/internal/service/contact"
)

// sendmail 用一条示例留言验证联系表单通知渠道的配置。
func main() {
	to := flag.String("to", "", "recipient email address (defaults to CONTACT_NOTIFY_TO)")
	channel := flag.String("channel", "smtp", "notification channel: smtp or aliyun")
	flag.Parse()

	config.LoadEnvFiles()

	recipient := strings.TrimSpace(*to)
	if recipient == "" {
		cfg, err := config.LoadServer()
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
		recipient = cfg.NotifyTo
	}
	if recipient == "" {
		log.Fatal("missing -to recipient email")
	}

	notifier, err := buildNotifier(strings.ToLower(strings.TrimSpace(*channel)), recipient)
	if err != nil {
		log.Fatal(err)
	}

	msg := &portfolio.ContactMessage{
		ID:        1,
		Name:      "Portfolio Test",
		Email:     recipient,
		Subject:   "Notification channel check",
		Message:   "This is a test message sent by cmd/sendmail.",
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := notifier.NotifyContact(ctx, msg); err != nil {
		log.Fatalf("send via %s failed: %v", notifier.Name(), err)
	}
	log.Printf("test notification dispatched to %s via %s", recipient, notifier.Name())
}

func buildNotifier(channel, to string) (contact.Notifier, error) {
	switch channel {
	case "aliyun":
		cfg, enabled, err := email.LoadAliyunConfigFromEnv(to)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, errors.New("aliyun config not fully set; check ALIYUN_DM_* variables")
		}
		return email.NewAliyunSender(cfg)
	default:
		cfg, enabled, err := email.LoadSMTPConfigFromEnv(to)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, errors.New("smtp config not fully set; check SMTP_* variables")
		}
		return email.NewSMTPSender(cfg)
	}
}
