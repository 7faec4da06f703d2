// Package mailer sends the portal's email notifications over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"opsportal/internal/model"
	"opsportal/pkg/timefmt"

	"gopkg.in/gomail.v2"
)

var approvedTmpl = template.Must(template.New("approved").Parse(`<p>Xin chào {{.Submitter}},</p>
<p>Khoản chi <b>{{.Name}}</b> (tag {{.Tag}}) đã được duyệt nhận bởi {{.Approver}} lúc {{.ApprovedAt}}.</p>
<p>Your project expense <b>{{.Name}}</b> was approved by {{.Approver}} at {{.ApprovedAt}}.</p>`))

// Sender is the part of gomail.Dialer the notifier needs
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier emails submitters when their expense is approved
type Notifier struct {
	sender Sender
	from   string
}

func NewNotifier(host string, port int, user, password, from string) *Notifier {
	return &Notifier{sender: gomail.NewDialer(host, port, user, password), from: from}
}

// NewNotifierWithSender is used by tests and by callers that own the SMTP connection
func NewNotifierWithSender(sender Sender, from string) *Notifier {
	return &Notifier{sender: sender, from: from}
}

func (n *Notifier) ExpenseApproved(ctx context.Context, recipient string, expense model.ProjectExpense) error {
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("expense %s has no recipient address", expense.Tag)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	submitter := recipient
	if expense.SubmittedBy != nil {
		submitter = expense.SubmittedBy.Username
	}

	var body strings.Builder
	err := approvedTmpl.Execute(&body, map[string]string{
		"Submitter":  submitter,
		"Name":       expense.Name,
		"Tag":        expense.Tag,
		"Approver":   expense.ApprovedReceiveBy.String(),
		"ApprovedAt": timefmt.FormatPtr(expense.ApprovalReceiveDate),
	})
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", "Khoản chi đã được duyệt / Expense approved: "+expense.Name)
	msg.SetBody("text/html", body.String())

	return n.sender.DialAndSend(msg)
}
