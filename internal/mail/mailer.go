package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/Goofygiraffe06/prepwise/internal/auth"
	"github.com/Goofygiraffe06/prepwise/internal/logging"
	"github.com/Goofygiraffe06/prepwise/internal/utils"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// TLSMode selects how the connection to the relay is secured.
type TLSMode string

const (
	// TLSStartTLS upgrades a plain connection and fails if the relay does not offer STARTTLS.
	TLSStartTLS TLSMode = "starttls"
	// TLSImplicit connects over TLS from the first byte (port 465).
	TLSImplicit TLSMode = "implicit"
	// TLSNone talks plain SMTP, for local relays only.
	TLSNone TLSMode = "none"
)

var ErrUnknownTLSMode = errors.New("unknown smtp tls mode")

// ParseTLSMode maps an SMTP_TLS value to a TLSMode. Empty means STARTTLS.
func ParseTLSMode(s string) (TLSMode, error) {
	switch m := TLSMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return TLSStartTLS, nil
	case TLSStartTLS, TLSImplicit, TLSNone:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTLSMode, s)
	}
}

// Config describes the outgoing relay.
type Config struct {
	RelayAddr string
	From      string
	Username  string
	Password  string
	TLS       TLSMode
	// TLSConfig overrides the client TLS settings; ServerName defaults to the relay host.
	TLSConfig *tls.Config
	// Signer is optional; without it messages go out unsigned.
	Signer *DKIMSigner
}

// Mailer relays transactional messages through an SMTP server.
type Mailer struct {
	cfg    Config
	dialer net.Dialer
	now    func() time.Time
}

func NewMailer(cfg Config) *Mailer {
	if cfg.TLS == "" {
		cfg.TLS = TLSStartTLS
	}
	return &Mailer{cfg: cfg, dialer: net.Dialer{Timeout: 30 * time.Second}, now: time.Now}
}

// SendWelcome mails a new user after registration.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.buildWelcome(to, name)
	if err != nil {
		return err
	}

	if m.cfg.Signer != nil {
		if msg, err = m.cfg.Signer.Sign(msg); err != nil {
			return fmt.Errorf("dkim sign: %w", err)
		}
	}

	from, err := netmail.ParseAddress(m.cfg.From)
	if err != nil {
		return fmt.Errorf("sender address: %w", err)
	}
	if err := m.send(ctx, from.Address, []string{to}, msg); err != nil {
		logging.WarnLog("Welcome mail failed [%s]: %v", utils.HashEmail(to), err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("smtp send: %w", err)
	}

	logging.InfoLog("Welcome mail sent [%s]", utils.HashEmail(to))
	return nil
}

// send runs one SMTP transaction. The connection is closed as soon as ctx is done,
// which aborts any command still waiting on the relay.
func (m *Mailer) send(ctx context.Context, from string, to []string, msg []byte) error {
	c, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if m.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("relay does not support AUTH")
		}
		if err := c.Auth(sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)); err != nil {
			return err
		}
	}

	if err := c.SendMail(from, to, bytes.NewReader(msg)); err != nil {
		return err
	}
	return c.Quit()
}

func (m *Mailer) dial(ctx context.Context) (*smtp.Client, error) {
	host, _, err := net.SplitHostPort(m.cfg.RelayAddr)
	if err != nil {
		return nil, fmt.Errorf("relay address: %w", err)
	}
	tlsConfig := &tls.Config{ServerName: host}
	if m.cfg.TLSConfig != nil {
		tlsConfig = m.cfg.TLSConfig.Clone()
		if tlsConfig.ServerName == "" {
			tlsConfig.ServerName = host
		}
	}

	var conn net.Conn
	switch m.cfg.TLS {
	case TLSImplicit:
		d := tls.Dialer{NetDialer: &m.dialer, Config: tlsConfig}
		conn, err = d.DialContext(ctx, "tcp", m.cfg.RelayAddr)
	case TLSStartTLS, TLSNone:
		conn, err = m.dialer.DialContext(ctx, "tcp", m.cfg.RelayAddr)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTLSMode, m.cfg.TLS)
	}
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	wrapped := &ctxConn{Conn: conn, stop: stop}

	if m.cfg.TLS == TLSStartTLS {
		c, err := smtp.NewClientStartTLS(wrapped, tlsConfig)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return smtp.NewClient(wrapped), nil
}

// ctxConn releases the context watcher together with the connection.
type ctxConn struct {
	net.Conn
	stop func() bool
}

func (c *ctxConn) Close() error {
	c.stop()
	return c.Conn.Close()
}

func (m *Mailer) buildWelcome(to, name string) ([]byte, error) {
	rcpt, err := netmail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	from, err := netmail.ParseAddress(m.cfg.From)
	if err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	id, err := auth.GenerateSessionID()
	if err != nil {
		return nil, err
	}

	name = strings.Join(strings.Fields(name), " ")
	rcpt.Name = name
	_, domain, _ := strings.Cut(from.Address, "@")

	var b strings.Builder
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from.String())
	header("To", rcpt.String())
	header("Subject", "Welcome to Prepwise")
	header("Date", m.now().Format(time.RFC1123Z))
	header("Message-ID", "<"+id[:32]+"@"+domain+">")
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", name)
	b.WriteString("Your Prepwise account is ready. Sign in to start practicing job interviews with AI.\r\n")

	return []byte(b.String()), nil
}
