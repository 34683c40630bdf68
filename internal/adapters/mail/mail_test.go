package mail

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_PlainTextWithAttachment(t *testing.T) {
	msg := Build(Message{
		From:    "hazard-report@example.com",
		To:      "officer@example.com",
		Subject: "Hazard report #1",
		Body:    "Location: Dock 3",
		Attachment: &Attachment{
			Filename:    "dock.jpg",
			ContentType: "image/jpeg",
			Content:     []byte("jpeg-bytes"),
		},
	})

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "To: officer@example.com")
	assert.Contains(t, raw, "Subject: Hazard report #1")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, `filename="dock.jpg"`)
	assert.Contains(t, raw, "image/jpeg")
}

func TestBuild_WithoutAttachment(t *testing.T) {
	var buf bytes.Buffer
	_, err := Build(Message{From: "a@example.com", To: "b@example.com", Subject: "s", Body: "b"}).WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Content-Disposition: attachment")
}

func TestSMTPSender_RespectsDeadline(t *testing.T) {
	// 10.255.255.1 为不可路由地址，连接会挂起直到超时。
	s := NewSMTPSender("10.255.255.1", 25, "", "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.Send(ctx, Message{From: "a@example.com", To: "b@example.com", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
