package email

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"
	"time"
)

// renderVerificationEmail renders the HTML body of the verification email.
func renderVerificationEmail(ctx context.Context, link, code string) (string, error) {
	var buf bytes.Buffer
	if err := verificationEmail(link, code).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// buildMessage constructs an HTML email with headers.
func buildMessage(fromName, from, to, subject, html string) []byte {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	return []byte(msg.String())
}
