package ldap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"passui/internal/config"

	"github.com/go-ldap/ldap/v3"
)

// ConnectTimeout bounds TCP connect and TLS handshake of every connection.
const ConnectTimeout = 5 * time.Second

// Conn is the subset of ldap.Client used for a password change.
type Conn interface {
	Bind(username, password string) error
	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)
	Modify(modifyRequest *ldap.ModifyRequest) error
	PasswordModify(passwordModifyRequest *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error)
	Close() error
}

// Dialer opens a fresh, unauthenticated connection. Connections are never
// shared between requests because each one binds as a different identity.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

type URLDialer struct {
	URL       string
	StartTLS  bool
	TLSConfig *tls.Config
	Timeout   time.Duration
}

func NewDialer(cfg config.LdapProvider) *URLDialer {
	scheme := "ldap"
	if cfg.UseSSL {
		scheme = "ldaps"
	}
	return &URLDialer{
		URL:      fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))),
		StartTLS: cfg.StartTLS,
		TLSConfig: &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.SkipTLSVerify,
			MinVersion:         tls.VersionTLS12,
		},
		Timeout: ConnectTimeout,
	}
}

func (d *URLDialer) Dial(ctx context.Context) (Conn, error) {
	opts := []ldap.DialOpt{
		ldap.DialWithDialer(&net.Dialer{Timeout: d.Timeout}),
		ldap.DialWithTLSConfig(d.TLSConfig),
	}

	conn, err := ldap.DialURL(d.URL, opts...)
	if err != nil {
		return nil, err
	}

	if d.StartTLS {
		if err := conn.StartTLS(d.TLSConfig); err != nil {
			conn.Close()
			return nil, at(stepStartTLS, err)
		}
	}

	// Abandoning the connection is the only way to interrupt a blocking
	// operation, so cancellation closes it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	return &ctxConn{Conn: conn, stop: stop}, nil
}

type ctxConn struct {
	*ldap.Conn
	stop func() bool
}

func (c *ctxConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
