package ldap

import (
	"context"
	"fmt"

	"passui/internal/config"
	"passui/internal/outcome"

	"github.com/go-ldap/ldap/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "passui/internal/auth/ldap"

// Directory changes passwords in an LDAP or Active Directory server.
type Directory struct {
	cfg      config.LdapProvider
	dialer   Dialer
	modifier PasswordModifier
	logger   zerolog.Logger
	tracer   trace.Tracer
}

type Option func(*Directory)

// WithDialer replaces the dialer derived from the configuration.
func WithDialer(d Dialer) Option {
	return func(dir *Directory) {
		dir.dialer = d
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(dir *Directory) {
		dir.tracer = t
	}
}

func NewDirectory(cfg config.LdapProvider, logger zerolog.Logger, opts ...Option) (*Directory, error) {
	for _, tmpl := range []string{cfg.UserDN, cfg.UserSearchFilter, cfg.UserSearchBindDN, cfg.BindDN} {
		if _, err := Format(tmpl, usernameValues("")); err != nil {
			return nil, errors.Wrap(err, "illegal config")
		}
	}

	modifier, err := ModifierFor(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "illegal config")
	}

	d := &Directory{
		cfg:      cfg,
		dialer:   NewDialer(cfg),
		modifier: modifier,
		logger:   logger.With().Str("component", "ldap").Logger(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ChangePassword resolves the user's DN, binds and changes the password.
// Every returned error is an *outcome.Failure.
func (d *Directory) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	err := d.changePassword(ctx, username, oldPassword, newPassword)
	if err == nil {
		return nil
	}

	failure := Classify(err)
	switch failure.Category {
	case outcome.DirectoryUnreachable, outcome.DirectoryProtocolError:
		d.logger.Error().
			Str("username", username).
			Str("error_type", fmt.Sprintf("%T", rootCause(err))).
			Err(err).
			Msg("password change failed")
	default:
		d.logger.Debug().
			Str("username", username).
			Stringer("category", failure.Category).
			Err(err).
			Msg("password change rejected")
	}
	return failure
}

func (d *Directory) changePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	userDN, err := d.resolveUserDN(ctx, username, oldPassword)
	if err != nil {
		return err
	}

	bindDN := userDN
	if d.cfg.BindDN != "" {
		if bindDN, err = Format(d.cfg.BindDN, usernameValues(username)); err != nil {
			return err
		}
	}
	bindPass := oldPassword
	if d.cfg.BindPass != nil {
		bindPass = *d.cfg.BindPass
	}
	if bindDN == "" || userDN == "" {
		return ErrMissingBindDN
	}

	conn, err := d.bind(ctx, bindDN, bindPass)
	if err != nil {
		return err
	}
	defer conn.Close()

	return d.modify(ctx, conn, userDN, oldPassword, newPassword)
}

func (d *Directory) resolveUserDN(ctx context.Context, username, oldPassword string) (string, error) {
	if d.cfg.UserDN != "" {
		return Format(d.cfg.UserDN, usernameValues(username))
	}

	ctx, span := d.tracer.Start(ctx, "ldap.resolve")
	defer span.End()

	conn, err := d.dial(ctx)
	if err != nil {
		return "", record(span, err)
	}
	defer conn.Close()

	if d.cfg.UserSearchBindDN != "" {
		bindDN, err := Format(d.cfg.UserSearchBindDN, usernameValues(username))
		if err != nil {
			return "", record(span, err)
		}
		bindPass := oldPassword
		if d.cfg.UserSearchBindPass != nil {
			bindPass = *d.cfg.UserSearchBindPass
		}
		span.SetAttributes(attribute.String("ldap.search_bind_dn", bindDN))
		if err := conn.Bind(bindDN, bindPass); err != nil {
			return "", record(span, at(stepBind, err))
		}
	}

	userDN, err := d.findUserDN(conn, username)
	if err != nil {
		return "", record(span, err)
	}
	span.SetAttributes(attribute.String("ldap.user_dn", userDN))
	return userDN, nil
}

func (d *Directory) findUserDN(conn Conn, username string) (string, error) {
	filter, err := Format(d.cfg.UserSearchFilter, usernameValues(ldap.EscapeFilter(username)))
	if err != nil {
		return "", err
	}

	req := ldap.NewSearchRequest(
		d.cfg.UserSearchBase,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{"dn"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return "", at(stepSearch, err)
	}
	if len(res.Entries) == 0 {
		return "", ErrUserNotFound
	}
	return res.Entries[0].DN, nil
}

func (d *Directory) bind(ctx context.Context, bindDN, bindPass string) (Conn, error) {
	ctx, span := d.tracer.Start(ctx, "ldap.bind", trace.WithAttributes(attribute.String("ldap.bind_dn", bindDN)))
	defer span.End()

	conn, err := d.dial(ctx)
	if err != nil {
		return nil, record(span, err)
	}
	if err := conn.Bind(bindDN, bindPass); err != nil {
		conn.Close()
		return nil, record(span, at(stepBind, err))
	}
	return conn, nil
}

func (d *Directory) modify(ctx context.Context, conn Conn, userDN, oldPassword, newPassword string) error {
	_, span := d.tracer.Start(ctx, "ldap.modify", trace.WithAttributes(
		attribute.String("ldap.user_dn", userDN),
		attribute.String("ldap.type", string(d.cfg.Type)),
	))
	defer span.End()

	if err := d.modifier.ModifyPassword(conn, userDN, oldPassword, newPassword); err != nil {
		return record(span, at(stepModify, err))
	}
	return nil
}

func (d *Directory) dial(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := d.dialer.Dial(ctx)
	if err != nil {
		var op *opError
		if errors.As(err, &op) {
			return nil, err
		}
		return nil, at(stepDial, err)
	}
	return conn, nil
}

func record(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
