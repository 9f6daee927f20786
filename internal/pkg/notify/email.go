package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/jordan-wright/email"
	"github.com/spf13/viper"
)

// Data keeps values for the notification email
type Data struct {
	Email             string
	CallID            string
	Summary           string
	TranslatedSummary string
	Link              string
}

const defaultTemplate = `<html>
<body>
<p>Hello,</p>
<p>Your requested callback has finished. Here is the consultation summary:</p>
<p style="white-space: pre-line">{{.Summary}}</p>
{{if .TranslatedSummary}}<p style="white-space: pre-line">{{.TranslatedSummary}}</p>{{end}}
<p><a href="{{.Link}}">Open the secure report view</a></p>
<p>The sign-in link is personal, please do not forward this email.</p>
</body>
</html>`

// TemplateEmailMaker prepares the notification email from a html template
type TemplateEmailMaker struct {
	from    string
	subject string
	tmpl    *template.Template
}

// NewTemplateEmailMaker creates maker configured by viper
func NewTemplateEmailMaker(c *viper.Viper) (*TemplateEmailMaker, error) {
	res := TemplateEmailMaker{}
	res.from = c.GetString("mail.from")
	if res.from == "" {
		return nil, fmt.Errorf("no mail.from")
	}
	res.subject = c.GetString("mail.subject")
	if res.subject == "" {
		res.subject = "Your callback summary"
	}
	var err error
	res.tmpl, err = template.New("email").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("can't parse email template: %w", err)
	}
	return &res, nil
}

// Make prepares the email
func (m *TemplateEmailMaker) Make(data *Data) (*email.Email, error) {
	if data.Email == "" {
		return nil, fmt.Errorf("no email")
	}
	if data.Summary == "" {
		return nil, fmt.Errorf("no summary")
	}
	if data.Link == "" {
		return nil, fmt.Errorf("no link")
	}
	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("can't execute email template: %w", err)
	}
	res := email.NewEmail()
	res.From = m.from
	res.To = []string{data.Email}
	res.Subject = m.subject
	res.HTML = buf.Bytes()
	return res, nil
}
