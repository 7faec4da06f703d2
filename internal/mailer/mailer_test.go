package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/quotedprintable"
	"strings"
	"testing"
	"time"

	"opsportal/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func approvedExpense() model.ProjectExpense {
	at := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
	return model.ProjectExpense{
		Tag:                 "tag-1",
		Name:                "Cement",
		SubmittedBy:         &model.User{Username: "lan"},
		ApprovalReceive:     true,
		ApprovedReceiveBy:   model.ApproverSnapshot{Username: "minh", Department: "Board"},
		ApprovalReceiveDate: &at,
	}
}

func TestExpenseApproved(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifierWithSender(sender, "portal@example.com")

	require.NoError(t, n.ExpenseApproved(context.Background(), "lan@example.com", approvedExpense()))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"portal@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"lan@example.com"}, msg.GetHeader("To"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	_, encoded, found := strings.Cut(buf.String(), "\r\n\r\n")
	require.True(t, found)
	body, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(encoded)))
	require.NoError(t, err)
	assert.Contains(t, string(body), "approved by minh Board at 01-05-2024 10:00:00")
	assert.Contains(t, string(body), "tag-1")
}

func TestExpenseApprovedWithoutRecipient(t *testing.T) {
	sender := &fakeSender{}
	err := NewNotifierWithSender(sender, "portal@example.com").ExpenseApproved(context.Background(), " ", approvedExpense())

	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestExpenseApprovedPropagatesSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	err := NewNotifierWithSender(sender, "portal@example.com").ExpenseApproved(context.Background(), "lan@example.com", approvedExpense())

	assert.EqualError(t, err, "smtp down")
}
