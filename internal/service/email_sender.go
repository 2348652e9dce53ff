package service

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/config"
	"expense-manager/internal/model"
)

type EmailSender struct {
	dialer  *mail.Dialer
	from    string
	logger  *logrus.Logger
	enabled bool
	now     Clock
}

func NewEmailSender(cfg *config.Config, now Clock, logger *logrus.Logger) *EmailSender {
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	return &EmailSender{
		dialer:  d,
		from:    cfg.SMTPUser,
		logger:  logger,
		enabled: cfg.EmailEnabled,
		now:     now,
	}
}

// SendOverspendAlert сообщает, что расходы по счету опередили плановые
func (es *EmailSender) SendOverspendAlert(email string, account *model.Account) error {
	if !es.enabled {
		es.logger.Debug("Отправка уведомлений отключена")
		return nil
	}

	subject := "Budget alert: spending is ahead of plan"
	content := fmt.Sprintf(`
		<h1>Spending is ahead of your budget</h1>
		<p>Account: <strong>%s</strong></p>
		<p>Days in debt: <strong>%d</strong></p>
		<p>Spent: <strong>%.2f %s</strong> of <strong>%.2f %s</strong></p>
		<p>Balance: <strong>%.2f %s</strong>, left per day: <strong>%.2f %s</strong></p>
		<p>Date: <strong>%s</strong></p>
		<small>This is an automated message, please do not reply</small>
	`, accountLabel(account), account.DaysInDebt,
		account.ExpenseAmount, account.Currency, account.Amount, account.Currency,
		account.Balance, account.Currency, account.LeftDailyExpenditure, account.Currency,
		es.now().Format("02.01.2006 15:04"))

	return es.sendEmail(email, subject, content)
}

// SendSettlementNotice подтверждает погашение долга или займа
func (es *EmailSender) SendSettlementNotice(email string, original, settlement *model.Transaction) error {
	if !es.enabled {
		es.logger.Debug("Отправка уведомлений отключена")
		return nil
	}

	status := fmt.Sprintf("partially paid, %.2f %s remaining", original.Amount, original.Currency)
	if original.IsPaid {
		status = "fully paid"
	}

	subject := fmt.Sprintf("%s settled: %s", original.Type, original.Name)
	content := fmt.Sprintf(`
		<h1>%s payment recorded</h1>
		<p>Transaction: <strong>%s</strong></p>
		<p>Amount: <strong>%.2f %s</strong> (%s)</p>
		<p>Status: <strong>%s</strong></p>
		<p>Date: <strong>%s</strong></p>
		<small>This is an automated message, please do not reply</small>
	`, original.Type, original.Name, settlement.Amount, settlement.Currency, settlement.Type,
		status, es.now().Format("02.01.2006 15:04"))

	return es.sendEmail(email, subject, content)
}

func (es *EmailSender) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", es.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		es.logger.WithError(err).Error("Ошибка отправки email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	es.logger.Infof("Email успешно отправлен на %s", to)
	return nil
}

func accountLabel(a *model.Account) string {
	if a.Description != nil && *a.Description != "" {
		return *a.Description
	}
	if m, y, ok := a.Period(); ok {
		return fmt.Sprintf("%s %d", m, y)
	}
	return a.CreatedAt.Format(time.DateOnly)
}
