package mail

import (
	"bytes"
	"html/template"
)

// NewPasswordSubject is the subject of the password reset email.
const NewPasswordSubject = "Your New Password - ACEMC Billing System"

var newPasswordTmpl = template.Must(template.New("new_password").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Your New Password</title>
</head>
<body style="font-family: Arial, sans-serif; color: #1f2937; background: #f3f4f6; padding: 24px;">
<div style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px;">
  <h1 style="font-size: 20px; margin-top: 0;">ACEMC Billing System</h1>
  <p>Hello {{.Name}},</p>
  <p>Your password has been reset by an administrator. Use the password below to sign in:</p>
  <div style="font-family: monospace; font-size: 18px; background: #f9fafb; border: 1px dashed #9ca3af; padding: 12px 16px; text-align: center; letter-spacing: 1px;">{{.Password}}</div>
  <p style="background: #fef3c7; border-left: 4px solid #f59e0b; padding: 12px;">
    <strong>Security notice:</strong> change this password after you sign in and never share it with anyone.
  </p>
  <p>If you did not expect this email, contact your system administrator.</p>
  <hr style="border: none; border-top: 1px solid #e5e7eb;">
  <p style="font-size: 12px; color: #6b7280;">&copy; {{.Year}} ACE Medical Center Tuguegarao</p>
</div>
</body>
</html>
`))

// NewPasswordMessage renders the password reset email for a user.
func NewPasswordMessage(name, email, password string, year int) (Message, error) {
	var buf bytes.Buffer
	err := newPasswordTmpl.Execute(&buf, struct {
		Name     string
		Password string
		Year     int
	}{name, password, year})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:       email,
		ToName:   name,
		Subject:  NewPasswordSubject,
		HTMLBody: buf.String(),
	}, nil
}
