package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"esignapi/internal/mail"
)

// Notice addresses one recipient of a shared document.
type Notice struct {
	OwnerName   string
	MemberName  string
	MemberEmail string
	MemberID    string
}

// Notifier emails recipients about documents waiting for them.
type Notifier interface {
	SignatureRequest(ctx context.Context, n Notice) error
	Reminder(ctx context.Context, n Notice) error
}

type mailNotifier struct {
	sender    mail.Sender
	clientURL string
	now       func() time.Time
}

// NewNotifier renders notices with links rooted at clientURL and sends them
// through sender.
func NewNotifier(sender mail.Sender, clientURL string) Notifier {
	return &mailNotifier{
		sender:    sender,
		clientURL: strings.TrimRight(clientURL, "/"),
		now:       time.Now,
	}
}

func (n *mailNotifier) SignatureRequest(ctx context.Context, nt Notice) error {
	return n.send(ctx, nt, "Document Signature Request from %s")
}

func (n *mailNotifier) Reminder(ctx context.Context, nt Notice) error {
	return n.send(ctx, nt, "Document Signature Reminder from %s")
}

func (n *mailNotifier) send(ctx context.Context, nt Notice, subject string) error {
	link := n.SignLink(nt.MemberID)
	owner := nt.OwnerName
	if owner == "" {
		owner = "PDF Pivot user"
	}
	name := nt.MemberName
	if name == "" {
		name = nt.MemberEmail
	}

	var html bytes.Buffer
	if err := requestTemplate.Execute(&html, map[string]any{
		"Owner":  owner,
		"Member": name,
		"Email":  nt.MemberEmail,
		"Link":   link,
		"Year":   n.now().Year(),
	}); err != nil {
		return fmt.Errorf("render notice: %w", err)
	}
	text := fmt.Sprintf("Hi %s,\n\n%s has requested your signature on a document using PDF Pivot's e-sign service.\n\nReview and sign: %s\n\nThis link is unique to %s.\n",
		name, owner, link, nt.MemberEmail)

	return n.sender.Send(ctx, mail.Message{
		To:      nt.MemberEmail,
		Subject: fmt.Sprintf(subject, owner),
		Text:    text,
		HTML:    html.String(),
	})
}

// SignLink is the client page a member opens to sign.
func (n *mailNotifier) SignLink(memberID string) string {
	return n.clientURL + "/sign-pdf?file_id=" + url.QueryEscape(memberID)
}

var requestTemplate = template.Must(template.New("esign-request").Parse(`<div style="font-family: Arial, sans-serif; background-color: #f7f8fa; padding: 20px;">
  <div style="max-width: 600px; background: #fff; margin: auto; border-radius: 8px; overflow: hidden;">
    <div style="background-color: #0056d2; color: #fff; padding: 20px; text-align: center;">
      <h2 style="margin: 0;">PDF Pivot - E-Sign Request</h2>
    </div>
    <div style="padding: 30px;">
      <p style="font-size: 16px;">Hi <strong>{{.Member}}</strong>,</p>
      <p style="font-size: 15px; line-height: 1.6;"><strong>{{.Owner}}</strong> has requested your signature on a document using PDF Pivot's e-sign service.</p>
      <p style="font-size: 15px; line-height: 1.6;">Please review and sign the document using the secure link below:</p>
      <div style="text-align: center; margin: 25px 0;">
        <a href="{{.Link}}" target="_blank" style="background-color: #0056d2; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">Review &amp; Sign Document</a>
      </div>
      <p style="font-size: 14px; color: #555;">If you did not expect this email, you can safely ignore it. This link is unique to your email address: <strong>{{.Email}}</strong>.</p>
      <hr style="border: none; border-top: 1px solid #ddd; margin: 25px 0;">
      <p style="font-size: 13px; color: #777; text-align: center;">&copy; {{.Year}} PDF Pivot. All rights reserved.</p>
    </div>
  </div>
</div>`))
