package emailsvc

import (
	"encoding/base64"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manitascreativas/escuela/core"
)

func TestConsoleServiceMock(t *testing.T) {
	ResetSentMessages()
	svc := NewConsoleServiceMock(core.NewTestConfig())
	to := []mail.Address{{Name: "Secretaría", Address: "secretaria@manitas.gt"}}

	withAttachment := &core.EmailMessage{To: to, Subject: "Recibo"}
	withAttachment.Attach([]byte("%PDF-1.4 recibo"), "recibo.pdf", "")
	withText := &core.EmailMessage{To: to, Subject: "Aviso", BodyStr: "Hola"}
	noRecipients := &core.EmailMessage{Subject: "Nadie", BodyStr: "Hola"}

	svc.SendMessages(withAttachment, withText, noRecipients)

	sent := SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "Recibo", sent[0].Subject)
	require.Len(t, sent[0].Attachments, 1)
	at := sent[0].Attachments[0]
	assert.Equal(t, "application/pdf", at.ContentType)
	assert.Equal(t, "recibo.pdf", at.Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 recibo")), at.Content)

	assert.Equal(t, "Aviso", sent[1].Subject)
	assert.Equal(t, "Hola", sent[1].TextContent)
}
