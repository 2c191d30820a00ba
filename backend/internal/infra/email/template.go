package email

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"portfolio-backend/backend/internal/domain/portfolio"
)

var contactHTMLTemplate = template.Must(template.New("contact_html").Parse(`<p>New message from the portfolio contact form.</p>
<table cellpadding="4">
<tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
<tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
<tr><td><strong>Subject</strong></td><td>{{.Subject}}</td></tr>
<tr><td><strong>Received</strong></td><td>{{.Received}}</td></tr>
</table>
<pre style="white-space:pre-wrap;font-family:inherit">{{.Message}}</pre>`))

// composeContactContent 根据联系表单生成邮件主题与正文，HTML 部分由 html/template 转义。
func composeContactContent(msg *portfolio.ContactMessage) (subject string, textBody string, htmlBody string) {
	subject = "[Portfolio] " + singleLine(msg.Subject)

	received := msg.CreatedAt
	if received.IsZero() {
		received = time.Now().UTC()
	}
	receivedText := received.UTC().Format(time.RFC3339)

	textBody = fmt.Sprintf("New message from the portfolio contact form.\n\nName: %s\nEmail: %s\nSubject: %s\nReceived: %s\n\n%s\n",
		msg.Name, msg.Email, msg.Subject, receivedText, msg.Message,
	)

	data := struct {
		Name, Email, Subject, Received, Message string
	}{msg.Name, msg.Email, msg.Subject, receivedText, msg.Message}

	builder := new(strings.Builder)
	_ = contactHTMLTemplate.Execute(builder, data)
	htmlBody = builder.String()

	return subject, textBody, htmlBody
}

// singleLine 去掉换行，防止用户输入拼接出额外的邮件头。
func singleLine(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}
