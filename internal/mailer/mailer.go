package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	mail "github.com/wneessen/go-mail"
	"github.com/yuin/goldmark"

	"notekeeper/internal/library"
	"notekeeper/internal/users"
)

// Config holds the SMTP settings. An empty Host disables sending entirely;
// messages are then logged and dropped.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer delivers the notification mail the domain events ask for. Every send
// runs in its own goroutine with bounded retry; failures are logged and never
// reach the operation that emitted the event.
type Mailer struct {
	client *mail.Client
	from   string
	md     goldmark.Markdown
	log    *slog.Logger
}

func New(cfg Config, log *slog.Logger) (*Mailer, error) {
	m := &Mailer{from: cfg.From, md: goldmark.New(), log: log}
	if cfg.Host == "" {
		return m, nil
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, err
	}
	m.client = client
	return m, nil
}

type attachment struct {
	name string
	data []byte
}

// Publish implements library.EventSink.
func (m *Mailer) Publish(e library.Event) {
	switch ev := e.(type) {
	case library.NoteDeleted:
		go m.send(ev.Owner.Email, "Note deleted", m.noteDeletedBody(ev), nil)
	case library.FolderDeleted:
		go m.send(ev.Owner.Email, "Folder deleted", m.folderDeletedBody(ev), nil)
	case library.LibraryCleared:
		go m.send(ev.Owner.Email, "Library cleared", m.libraryClearedBody(ev), nil)
	}
}

// SendBinBackup mails the rendered bin as a PDF attachment.
func (m *Mailer) SendBinBackup(owner library.Owner, notes []library.Note, pdf []byte) {
	go m.send(owner.Email, "Bin backup", m.binBackupBody(owner, notes),
		[]attachment{{name: "backup_bin.pdf", data: pdf}})
}

// SendAccountDeleted implements users.Notifier.
func (m *Mailer) SendAccountDeleted(u users.User) {
	go m.send(u.Email, "Account deleted", m.accountDeletedBody(u), nil)
}

func (m *Mailer) send(to, subject, html string, attachments []attachment) {
	if m.client == nil {
		m.log.Info("mail disabled, dropping message", "to", to, "subject", subject)
		return
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		m.log.Error("invalid mail sender", "error", err, "from", m.from)
		return
	}
	if err := msg.To(to); err != nil {
		m.log.Error("invalid mail recipient", "error", err, "to", to)
		return
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)
	for _, a := range attachments {
		msg.AttachReader(a.name, bytes.NewReader(a.data))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backoff := retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		m.log.Error("failed to send mail", "error", err, "to", to, "subject", subject)
		return
	}
	m.log.Info("mail sent", "to", to, "subject", subject)
}
