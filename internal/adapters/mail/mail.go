package mail

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// Attachment 是随邮件转发的文件。
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message 是一封纯文本通知邮件。
type Message struct {
	From       string
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// Sender 发送一封邮件。实现需要尊重 ctx 的截止时间。
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Build 把 Message 转为 gomail 消息。
func Build(m Message) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)

	if a := m.Attachment; a != nil {
		content := a.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {fmt.Sprintf("%s; name=%q", a.ContentType, a.Filename)},
			}))
		}
		msg.Attach(a.Filename, settings...)
	}
	return msg
}

// SMTPSender 通过 SMTP 发送邮件。
type SMTPSender struct {
	dialer *gomail.Dialer
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, username, password)}
}

// Send 发送邮件；gomail 本身不支持 ctx，超时后直接返回，后台连接自行结束。
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(Build(m))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send abandoned: %w", ctx.Err())
	}
}
