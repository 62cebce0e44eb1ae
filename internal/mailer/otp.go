package mailer

import (
	"context"
	"fmt"
)

const otpSubject = "Shopmate Login Code"

// SendCode delivers a one-time login code to the given address.
func (m *Mailer) SendCode(ctx context.Context, to, code string) error {
	return m.Send(ctx, to, otpSubject, otpBody(to, code))
}

func otpBody(email, code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Login Code</title>
</head>
<body style="font-family: sans-serif; background-color: #f5f5f5; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 40px; border-radius: 12px; text-align: center;">
        <h1 style="color: #2c3e50;">Verify your email</h1>
        <p>Hello %s,</p>
        <p>Your one-time login code is:</p>
        <div style="font-size: 42px; color: #3498db; font-weight: bold; letter-spacing: 4px; margin: 30px 0;">%s</div>
        <p style="font-size: 14px; color: #7f8c8d;">This code expires in 5 minutes. Do not share it with anyone.</p>
    </div>
</body>
</html>`, email, code)
}
