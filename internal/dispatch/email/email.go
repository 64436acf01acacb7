// Package email builds and sends the multipart MIME notification for a
// delivery record. Grounded on
// _examples/original_source/src/modules/mail.py's send_email_message:
// plain-text alternative, HTML alternative, and an inline related image
// part when a map is present.
package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// Config holds the SMTP connection and envelope settings.
type Config struct {
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	From      string
	Recipient string
}

// Sender delivers a fully-built email over SMTP.
type Sender struct {
	cfg Config
}

// New returns a Sender using cfg.
func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Subject encodes "MSGTYPE - SEVERITY - <timestamp>" per spec.md §4.7.
func Subject(rec model.DeliveryRecord) string {
	return fmt.Sprintf("%s - %s - %s", rec.MsgType, rec.Severity, rec.Sent)
}

// Build renders the full MIME message for rec, embedding the map image
// as a related part with a content-id reference if one is present.
func Build(rec model.DeliveryRecord, from, recipient string) ([]byte, error) {
	var buf bytes.Buffer

	mixed := multipart.NewWriter(&buf)
	headers := make(textproto.MIMEHeader)
	headers.Set("From", fmt.Sprintf("MOWAS Personal Warning Beacon <%s>", from))
	headers.Set("To", recipient)
	headers.Set("Subject", mime.QEncoding.Encode("utf-8", Subject(rec)))
	headers.Set("MIME-Version", "1.0")
	headers.Set("Content-Type", fmt.Sprintf("multipart/related; boundary=%q", mixed.Boundary()))
	headers.Set("Date", time.Now().Format(time.RFC1123Z))

	for k, vs := range headers {
		for _, v := range vs {
			fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
		}
	}
	buf.WriteString("\r\n")

	altPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", "alt-"+mixed.Boundary())},
	})
	if err != nil {
		return nil, fmt.Errorf("creating alternative part: %w", err)
	}
	alt := multipart.NewWriter(altPart)
	if err := alt.SetBoundary("alt-" + mixed.Boundary()); err != nil {
		return nil, fmt.Errorf("setting alternative boundary: %w", err)
	}

	plainPart, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=utf-8"}})
	if err != nil {
		return nil, fmt.Errorf("creating plain part: %w", err)
	}
	plainPart.Write([]byte(plainTextBody(rec)))

	var imageCID string
	if rec.Map.Present {
		imageCID = "mowas-map"
	}

	htmlPart, err := alt.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=utf-8"}})
	if err != nil {
		return nil, fmt.Errorf("creating html part: %w", err)
	}
	htmlPart.Write([]byte(htmlBody(rec, imageCID)))

	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("closing alternative writer: %w", err)
	}

	if rec.Map.Present {
		imgPart, err := mixed.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {"image/png"},
			"Content-Transfer-Encoding": {"base64"},
			"Content-ID":                {"<" + imageCID + ">"},
		})
		if err != nil {
			return nil, fmt.Errorf("creating image part: %w", err)
		}
		imgPart.Write([]byte(base64.StdEncoding.EncodeToString(rec.Map.Bytes)))
	}

	if err := mixed.Close(); err != nil {
		return nil, fmt.Errorf("closing mixed writer: %w", err)
	}

	return buf.Bytes(), nil
}

func plainTextBody(rec model.DeliveryRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", rec.Headline)
	fmt.Fprintf(&b, "Severity: %s  Urgency: %s  Sent: %s\n\n", rec.Severity, rec.Urgency, rec.Sent)
	fmt.Fprintf(&b, "%s\n\n", rec.Description)
	if rec.Instruction != "" {
		fmt.Fprintf(&b, "Instruction: %s\n\n", rec.Instruction)
	}
	for _, p := range rec.MatchedPoints {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", p.Address, p.Maidenhead, p.UTM)
	}
	return b.String()
}

func htmlBody(rec model.DeliveryRecord, imageCID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", rec.Headline)
	fmt.Fprintf(&b, "<p><b>%s</b> / %s / %s</p>", rec.MsgType, rec.Severity, rec.Sent)
	fmt.Fprintf(&b, "<p>%s</p>", rec.Description)
	if rec.Instruction != "" {
		fmt.Fprintf(&b, "<p><i>%s</i></p>", rec.Instruction)
	}
	if imageCID != "" {
		fmt.Fprintf(&b, `<img src="cid:%s">`, imageCID)
	}
	return b.String()
}

// Send builds and delivers rec over SMTP using s.cfg.
func (s *Sender) Send(rec model.DeliveryRecord) error {
	msg, err := Build(rec, s.cfg.From, s.cfg.Recipient)
	if err != nil {
		return fmt.Errorf("building email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{s.cfg.Recipient}, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
