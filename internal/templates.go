package contact

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const notificationHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb; border-bottom: 2px solid #e5e7eb; padding-bottom: 10px;">New Contact Form Submission</h2>
  <div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
  </div>
  <div style="margin: 20px 0;">
    <h3 style="color: #374151; margin-bottom: 10px;">Message:</h3>
    <div style="background: white; padding: 20px; border: 1px solid #e5e7eb; border-radius: 8px; line-height: 1.6;">
      {{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}
    </div>
  </div>
  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb; color: #6b7280; font-size: 14px;">
    <p>This email was sent from your portfolio website contact form.</p>
    <p>Reply directly to this email to respond to {{.Name}}.</p>
  </div>
</div>
`

const notificationText = `New Contact Form Submission

Name: {{.Name}}
Email: {{.Email}}
Subject: {{.Subject}}

Message:
{{.Message}}

---
This email was sent from your portfolio website contact form.
Reply directly to this email to respond to {{.Name}}.
`

const autoReplyHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb;">Thank you for reaching out, {{.Name}}!</h2>
  <p>I've received your message and will get back to you as soon as possible, typically within 24-48 hours.</p>
  {{- if or .Owner.LinkedIn .Owner.GitHub}}
  <p>In the meantime, feel free to:</p>
  <ul>
    <li>Check out my latest projects on my portfolio</li>
    {{- if .Owner.LinkedIn}}
    <li>Connect with me on <a href="{{.Owner.LinkedIn}}" style="color: #2563eb;">LinkedIn</a></li>
    {{- end}}
    {{- if .Owner.GitHub}}
    <li>View my code on <a href="{{.Owner.GitHub}}" style="color: #2563eb;">GitHub</a></li>
    {{- end}}
  </ul>
  {{- end}}
  <p>Looking forward to working with you!</p>
  <p>Best regards{{if .Owner.Name}},<br>
  <strong>{{.Owner.Name}}</strong>{{if .Owner.Title}}<br>
  {{.Owner.Title}}{{end}}{{end}}</p>
  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb; color: #6b7280; font-size: 14px;">
    <p>This is an automated response to confirm receipt of your message.</p>
  </div>
</div>
`

const autoReplyText = `Thank you for reaching out, {{.Name}}!

I've received your message and will get back to you as soon as possible, typically within 24-48 hours.
{{if .Owner.LinkedIn}}
LinkedIn: {{.Owner.LinkedIn}}{{end}}{{if .Owner.GitHub}}
GitHub: {{.Owner.GitHub}}{{end}}

Looking forward to working with you!

Best regards{{if .Owner.Name}},
{{.Owner.Name}}{{if .Owner.Title}}
{{.Owner.Title}}{{end}}{{end}}

---
This is an automated response to confirm receipt of your message.
`

var (
	notificationHTMLTmpl = htmltemplate.Must(htmltemplate.New("notification.html").Parse(notificationHTML))
	notificationTextTmpl = texttemplate.Must(texttemplate.New("notification.txt").Parse(notificationText))
	autoReplyHTMLTmpl    = htmltemplate.Must(htmltemplate.New("autoreply.html").Parse(autoReplyHTML))
	autoReplyTextTmpl    = texttemplate.Must(texttemplate.New("autoreply.txt").Parse(autoReplyText))
)

type notificationData struct {
	Submission
	Lines []string
}

type autoReplyData struct {
	Name  string
	Owner OwnerCfg
}

// renderNotification builds the owner-facing bodies. User fields are
// HTML-escaped in the HTML body and left as typed in the text body.
func renderNotification(s Submission) (html, text string, err error) {
	data := notificationData{
		Submission: s,
		Lines:      strings.Split(strings.ReplaceAll(s.Message, "\r\n", "\n"), "\n"),
	}
	var hb, tb bytes.Buffer
	if err := notificationHTMLTmpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := notificationTextTmpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

func renderAutoReply(name string, owner OwnerCfg) (html, text string, err error) {
	data := autoReplyData{Name: name, Owner: owner}
	var hb, tb bytes.Buffer
	if err := autoReplyHTMLTmpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := autoReplyTextTmpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
