package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inbucket/html2text"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the outbound mail transport settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	// mandatory, opportunistic or none
	TLSPolicy string `mapstructure:"tls_policy"`
}

// Inline is an attachment referenced from the HTML body as cid:<Name>.
type Inline struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message represents an email message
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string // optional, will be auto-generated from HTML if empty
	Inline  []Inline
}

// Client sends mail over SMTP.
type Client struct {
	cfg    SMTPConfig
	client *mail.Client
	logger *slog.Logger
}

func tlsPolicy(policy string) mail.TLSPolicy {
	switch policy {
	case "mandatory":
		return mail.TLSMandatory
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}

// NewClient creates a new email client
func NewClient(cfg SMTPConfig) (*Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &Client{
		cfg:    cfg,
		client: client,
		logger: slog.With("component", "email"),
	}, nil
}

// Send sends an email message
func (c *Client) Send(ctx context.Context, msg *Message) error {
	m, err := c.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	if err := c.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	c.logger.Debug("Sent email", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (c *Client) buildMessage(msg *Message) (*mail.Msg, error) {
	if msg.Text == "" {
		text, err := htmlToText(msg.HTML)
		if err != nil {
			return nil, fmt.Errorf("failed to convert HTML to text: %w", err)
		}
		msg.Text = text
	}

	m := mail.NewMsg()
	if err := m.From(c.cfg.From); err != nil {
		return nil, err
	}
	if err := m.To(msg.To...); err != nil {
		return nil, err
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	for _, inline := range msg.Inline {
		err := m.EmbedReader(inline.Name, bytes.NewReader(inline.Data),
			mail.WithFileContentType(mail.ContentType(inline.ContentType)))
		if err != nil {
			return nil, fmt.Errorf("failed to embed %s: %w", inline.Name, err)
		}
	}

	return m, nil
}

// htmlToText converts HTML to plain text
func htmlToText(htmlContent string) (string, error) {
	text, err := html2text.FromString(htmlContent, html2text.Options{
		PrettyTables: true,
		OmitLinks:    false,
	})
	if err != nil {
		slog.Error("failed to convert HTML to text", "error", err)
		return "", err
	}
	return text, nil
}
