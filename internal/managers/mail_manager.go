// Package managers handles the sending of matching notifications using the Mailgun service
// and the Hermes package for email formatting.
package managers

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"
)

// MailMgr is an interface that outlines the contract for email management.
// It includes methods for notifying users about matching requests.
type MailMgr interface {
	Enabled() bool
	SendMatchingRequestMail(email, receiverNickname, senderNickname string) error
	SendMatchConfirmedMail(email, senderNickname, receiverNickname string) error
}

// MailManager is a concrete implementation of the MailMgr interface.
// It uses the Mailgun service for sending emails and the Hermes package for formatting emails.
type MailManager struct {
	Hermes     *hermes.Hermes
	Mailgun    *mailgun.MailgunImpl
	production bool
}

const (
	mailDomain  = "mail.silverrock.app"
	from        = "Silverrock <team@mail.silverrock.app>"
	sendTimeout = 2 * time.Second
)

// Enabled reports whether mails are actually sent, which is only the case in production.
func (mm *MailManager) Enabled() bool {
	return mm.production
}

// SendMatchingRequestMail tells the receiver of a new matching request who sent it.
func (mm *MailManager) SendMatchingRequestMail(email, receiverNickname, senderNickname string) error {
	if !mm.production {
		log.Info("Skipping matching request mail in development mode")
		return nil
	}

	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: receiverNickname,
			Intros: []string{
				fmt.Sprintf("%s would like to get to know you and sent you a matching request.", senderNickname),
			},
			Outros: []string{
				"Open Silverrock to accept or decline the request.",
			},
		},
	}

	return mm.send(email, "You received a new matching request", mailBody)
}

// SendMatchConfirmedMail tells the sender of a matching request that it was accepted.
func (mm *MailManager) SendMatchConfirmedMail(email, senderNickname, receiverNickname string) error {
	if !mm.production {
		log.Info("Skipping match confirmation mail in development mode")
		return nil
	}

	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: senderNickname,
			Intros: []string{
				fmt.Sprintf("Good news! %s accepted your matching request.", receiverNickname),
				"You can find your new friend in your friend list.",
			},
			Outros: []string{
				"Have fun getting to know each other!",
			},
		},
	}

	return mm.send(email, "Your matching request was accepted", mailBody)
}

func (mm *MailManager) send(email, subject string, mailBody hermes.Email) error {
	emailBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	message := mm.Mailgun.NewMessage(from, subject, "", email)
	message.SetHtml(emailBody)
	_, _, err = mm.Mailgun.Send(ctx, message)
	if err != nil {
		log.Warning("Error sending mail: " + err.Error())
		return err
	}
	log.Debug("Mail sent to ", email)

	return nil
}

// NewMailManager initializes a new MailManager instance with configured Mailgun and Hermes settings.
// Mails are only sent when running in production.
func NewMailManager(apiKey string, production bool) MailMgr {
	log.Info("Initializing mail manager")

	if !production {
		log.Println("Running in development mode, email will not be sent to users")
	}

	mailgunInstance := mailgun.NewMailgun(mailDomain, apiKey)
	mailgunInstance.SetAPIBase(mailgun.APIBaseEU)

	mm := &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:        "Silverrock",
				Link:        "https://silverrock.app/",
				Copyright:   "© Silverrock",
				TroubleText: "If you’re having trouble with the button '{ACTION}', copy and paste the URL below into your web browser.",
			},
		},
		Mailgun:    mailgunInstance,
		production: production,
	}
	log.Info("Initialized mail manager")
	return mm
}
