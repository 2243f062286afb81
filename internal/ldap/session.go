package ldap

import (
	"context"
	"crypto/tls"
	"errors"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Session is a single-use connection to one target directory. It moves
// through Unconnected, Initialized, Bound and Closed in that order.
//
// A Session is not safe for concurrent use.
type Session struct {
	id     string
	target Target
	params ConnectionParams
	config SessionConfig

	conn  Conn
	state SessionState
	last  *ResultSet
}

// NewSession resolves the connection parameters of target from the
// configuration store named by cfg. A nil cfg uses the defaults.
func NewSession(ctx context.Context, target Target, cfg *SessionConfig) (*Session, error) {
	if !target.Valid() {
		return nil, NewConfigurationError("new_session",
			"the requested target is not available, must be one of: kuleuven, vsc", nil)
	}

	config, err := sessionConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := LoadConfigStore(config.ConfigFile)
	if err != nil {
		var dirErr *DirectoryError
		if errors.As(err, &dirErr) {
			return nil, withTarget(dirErr, target)
		}
		return nil, err
	}

	return newSession(ctx, target, store, config)
}

// NewSessionFromStore builds a session from an already loaded store.
// cfg.ConfigFile is ignored.
func NewSessionFromStore(ctx context.Context, target Target, store *ConfigStore, cfg *SessionConfig) (*Session, error) {
	if !target.Valid() {
		return nil, NewConfigurationError("new_session",
			"the requested target is not available, must be one of: kuleuven, vsc", nil)
	}
	if store == nil {
		return nil, withTarget(NewConfigurationError("new_session", "configuration store is nil", nil), target)
	}

	config, err := sessionConfig(cfg)
	if err != nil {
		return nil, err
	}

	return newSession(ctx, target, store, config)
}

func sessionConfig(cfg *SessionConfig) (SessionConfig, error) {
	var config SessionConfig
	if cfg != nil {
		config = *cfg
	}
	if err := config.applyDefaults(); err != nil {
		return config, err
	}
	return config, nil
}

func newSession(ctx context.Context, target Target, store *ConfigStore, config SessionConfig) (*Session, error) {
	params, err := store.ConnectionParams(target)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:     uuid.NewString(),
		target: target,
		params: *params,
		config: config,
		state:  StateUnconnected,
	}

	tflog.Debug(s.logContext(ctx), "Created directory session", map[string]any{
		"uri":          params.URI,
		"base_dn":      params.BaseDN,
		"bind_dn":      params.BindDN,
		"anonymous":    params.Credential == "",
		"config_file":  store.Path(),
		"skip_tls":     config.SkipTLSVerify,
		"start_tls":    config.StartTLS,
		"timeout_secs": config.Timeout.Seconds(),
	})

	return s, nil
}

// logContext attaches the session correlation fields to ctx.
func (s *Session) logContext(ctx context.Context) context.Context {
	ctx = tflog.SetField(ctx, "session_id", s.id)
	return tflog.SetField(ctx, "target", s.target.String())
}

// ID returns the session correlation id.
func (s *Session) ID() string { return s.id }

// Target returns the directory the session was created for.
func (s *Session) Target() Target { return s.target }

// Params returns a copy of the resolved connection parameters.
func (s *Session) Params() ConnectionParams { return s.params }

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// Result returns the result of the most recent successful search, or nil.
func (s *Session) Result() *ResultSet { return s.last }

// Initialize opens the protocol handle. TLS certificates are verified unless
// SkipTLSVerify is set.
func (s *Session) Initialize(ctx context.Context) error {
	ctx = s.logContext(ctx)

	if s.state != StateUnconnected {
		return withTarget(NewStateError("initialize", s.state, StateUnconnected.String()), s.target)
	}

	endpoint, err := ParseEndpoint(s.params.URI)
	if err != nil {
		return withTarget(NewConfigurationError("initialize", "invalid endpoint URI", err), s.target)
	}

	opts := DialOptions{
		StartTLS: s.config.StartTLS,
		Timeout:  s.config.Timeout,
	}
	if endpoint.UseTLS || (s.config.StartTLS && endpoint.Scheme == "ldap") {
		opts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			ServerName:         endpoint.Host,
			InsecureSkipVerify: s.config.SkipTLSVerify, //nolint:gosec // explicit opt-in
		}
	}

	fields := map[string]any{
		"uri":       s.params.URI,
		"endpoint":  endpoint.String(),
		"use_tls":   endpoint.UseTLS,
		"start_tls": opts.StartTLS,
	}

	return LogOperation(ctx, "initialize", fields, func() error {
		if err := ctx.Err(); err != nil {
			return withTarget(NewConnectionError("initialize", err), s.target)
		}

		conn, err := s.config.Dialer.Dial(ctx, s.params.URI, opts)
		if err != nil {
			LogConnectionEvent(ctx, "connection_failed", map[string]any{
				"uri":   s.params.URI,
				"error": err.Error(),
			})
			return withTarget(NewConnectionError("initialize", err), s.target)
		}

		s.conn = conn
		s.state = StateInitialized

		LogConnectionEvent(ctx, "connection_established", map[string]any{
			"uri": s.params.URI,
		})
		return nil
	})
}

// Bind authenticates with the identity and credential from the store.
func (s *Session) Bind(ctx context.Context) error {
	return s.BindAs(ctx, s.params.BindDN, s.params.Credential)
}

// BindAs authenticates with an explicit identity. An empty credential
// performs an unauthenticated bind. On failure the session stays Initialized.
func (s *Session) BindAs(ctx context.Context, who, cred string) error {
	ctx = s.logContext(ctx)

	if s.state == StateUnconnected || s.state == StateClosed {
		return withTarget(NewStateError("bind", s.state, StateInitialized.String()), s.target)
	}

	fields := map[string]any{
		"bind_dn":   who,
		"anonymous": cred == "",
	}

	return LogOperation(ctx, "bind", fields, func() error {
		if err := ctx.Err(); err != nil {
			return withTarget(NewConnectionError("bind", err), s.target)
		}

		var err error
		if cred == "" {
			err = s.conn.UnauthenticatedBind(who)
		} else {
			err = s.conn.Bind(who, cred)
		}

		if err != nil {
			// A failed bind leaves the connection anonymous.
			s.state = StateInitialized
			LogConnectionEvent(ctx, "authentication_failed", map[string]any{
				"bind_dn": who,
				"error":   err.Error(),
			})
			return withTarget(NewAuthenticationError(err), s.target)
		}

		s.state = StateBound
		LogConnectionEvent(ctx, "authentication_success", map[string]any{
			"bind_dn": who,
		})
		return nil
	})
}

// Open initializes and binds the session. On failure any opened handle is
// released and the session returns to Unconnected.
func (s *Session) Open(ctx context.Context) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	if err := s.Bind(ctx); err != nil {
		if releaseErr := s.release(s.logContext(ctx)); releaseErr != nil {
			tflog.Warn(s.logContext(ctx), "Failed to release handle after bind failure", map[string]any{
				"error": releaseErr.Error(),
			})
		}
		s.state = StateUnconnected
		return err
	}

	return nil
}

// Search runs a subtree search for filter below the configured base DN and
// returns every matching entry with all user attributes. A session that is
// Initialized but not yet Bound makes exactly one implicit bind attempt.
//
// The returned ResultSet also becomes the session's current result,
// replacing the previous one.
func (s *Session) Search(ctx context.Context, filter string) (*ResultSet, error) {
	ctx = s.logContext(ctx)

	if s.state == StateUnconnected || s.state == StateClosed {
		return nil, withTarget(NewStateError("search", s.state, StateBound.String()), s.target)
	}

	filter = NormalizeFilter(filter)
	if err := ValidateFilter(filter); err != nil {
		var dirErr *DirectoryError
		if errors.As(err, &dirErr) {
			return nil, withTarget(dirErr, s.target)
		}
		return nil, err
	}

	if s.state == StateInitialized {
		tflog.Warn(ctx, "Searching on an unbound session, attempting bind", map[string]any{
			"filter": filter,
		})
		if err := s.Bind(ctx); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{
		"base_dn": s.params.BaseDN,
		"filter":  filter,
		"scope":   "subtree",
	}

	var rs *ResultSet
	err := LogOperation(ctx, "search", fields, func() error {
		if err := ctx.Err(); err != nil {
			return withTarget(NewConnectionError("search", err), s.target)
		}

		req := ldap.NewSearchRequest(
			s.params.BaseDN,
			ldap.ScopeWholeSubtree,
			ldap.NeverDerefAliases,
			0, // SizeLimit
			int(s.config.Timeout.Seconds()),
			false, // TypesOnly
			filter,
			nil, // all user attributes
			nil, // Controls
		)

		result, err := s.conn.Search(req)
		if err != nil {
			LogLDAPError(ctx, "search", err, fields)
			var ldapErr *ldap.Error
			if errors.As(err, &ldapErr) && categorizeError(ldapErr.ResultCode) == ErrorCategoryConnection {
				return withTarget(NewConnectionError("search", err), s.target)
			}
			return withTarget(NewQueryError(err), s.target)
		}

		rs = NewResultSet(s.params.BaseDN, filter, result.Entries)
		tflog.Debug(ctx, "Search returned entries", map[string]any{
			"entries_found": rs.Len(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.last = rs
	return rs, nil
}

// GetField returns the first value of field for every entry of the most
// recent search. See ResultSet.Field.
func (s *Session) GetField(field Field) ([]string, error) {
	values, err := s.last.Field(field)
	if err != nil {
		var dirErr *DirectoryError
		if errors.As(err, &dirErr) {
			return nil, withTarget(dirErr, s.target)
		}
		return nil, err
	}
	return values, nil
}

// GetUserInfo returns the attributes of the user uid in the most recent
// search result, or nil when the user is not part of it.
func (s *Session) GetUserInfo(ctx context.Context, uid string) (map[string][]string, error) {
	info, err := s.last.UserInfo(s.logContext(ctx), uid)
	if err != nil {
		var dirErr *DirectoryError
		if errors.As(err, &dirErr) {
			return nil, withTarget(dirErr, s.target)
		}
		return nil, err
	}
	return info, nil
}

// Close unbinds and releases the handle. Closing a closed session is a no-op.
func (s *Session) Close(ctx context.Context) error {
	ctx = s.logContext(ctx)

	if s.state == StateClosed {
		tflog.Debug(ctx, "Session already closed")
		return nil
	}

	err := s.release(ctx)
	s.state = StateClosed
	return err
}

// release unbinds and closes the handle, if any. The handle is dropped even
// when the unbind fails.
func (s *Session) release(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}

	conn := s.conn
	s.conn = nil

	unbindErr := conn.Unbind()
	closeErr := conn.Close()

	if unbindErr != nil {
		LogConnectionEvent(ctx, "release_failed", map[string]any{
			"error": unbindErr.Error(),
		})
		return withTarget(NewConnectionError("close", unbindErr), s.target)
	}
	if closeErr != nil {
		LogConnectionEvent(ctx, "release_failed", map[string]any{
			"error": closeErr.Error(),
		})
		return withTarget(NewConnectionError("close", closeErr), s.target)
	}

	LogConnectionEvent(ctx, "connection_released", nil)
	return nil
}

// Run opens the session, calls fn and closes the session afterwards, also
// when fn fails or panics. An error from fn takes precedence over a close
// error.
func (s *Session) Run(ctx context.Context, fn func(*Session) error) (err error) {
	if err := s.Open(ctx); err != nil {
		return err
	}

	defer func() {
		closeErr := s.Close(ctx)
		if closeErr == nil {
			return
		}
		if err == nil {
			err = closeErr
			return
		}
		tflog.Warn(s.logContext(ctx), "Failed to close session", map[string]any{
			"error": closeErr.Error(),
		})
	}()

	return fn(s)
}

// WithSession creates a session for target, opens it and hands it to fn.
// The session is always closed before WithSession returns.
func WithSession(ctx context.Context, target Target, cfg *SessionConfig, fn func(*Session) error) error {
	s, err := NewSession(ctx, target, cfg)
	if err != nil {
		return err
	}
	return s.Run(ctx, fn)
}
