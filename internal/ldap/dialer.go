package ldap

import (
	"context"
	"net"

	"github.com/go-ldap/ldap/v3"
)

// goLDAPDialer opens handles with github.com/go-ldap/ldap/v3.
type goLDAPDialer struct{}

// NewDialer returns the default Dialer backed by go-ldap.
func NewDialer() Dialer {
	return goLDAPDialer{}
}

// Dial connects to uri. go-ldap only speaks protocol version 3, so no
// version negotiation is needed.
func (goLDAPDialer) Dial(ctx context.Context, uri string, opts DialOptions) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialOpts := []ldap.DialOpt{
		ldap.DialWithDialer(&net.Dialer{Timeout: opts.Timeout}),
	}
	if opts.TLSConfig != nil {
		dialOpts = append(dialOpts, ldap.DialWithTLSConfig(opts.TLSConfig))
	}

	conn, err := ldap.DialURL(uri, dialOpts...)
	if err != nil {
		return nil, err
	}

	if opts.Timeout > 0 {
		conn.SetTimeout(opts.Timeout)
	}

	if opts.StartTLS {
		if endpoint, perr := ParseEndpoint(uri); perr == nil && endpoint.Scheme == "ldap" {
			if err := conn.StartTLS(opts.TLSConfig); err != nil {
				conn.Close()
				return nil, err
			}
		}
	}

	return &goLDAPConn{conn: conn}, nil
}

// goLDAPConn adapts *ldap.Conn to Conn.
type goLDAPConn struct {
	conn *ldap.Conn
}

func (c *goLDAPConn) Bind(username, password string) error {
	return c.conn.Bind(username, password)
}

func (c *goLDAPConn) UnauthenticatedBind(username string) error {
	return c.conn.UnauthenticatedBind(username)
}

func (c *goLDAPConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return c.conn.Search(req)
}

// Unbind is a no-op once the connection is closing, for example after the
// server dropped it.
func (c *goLDAPConn) Unbind() error {
	if c.conn.IsClosing() {
		return nil
	}
	return c.conn.Unbind()
}

func (c *goLDAPConn) Close() error {
	if c.conn.IsClosing() {
		return nil
	}
	c.conn.Close()
	return nil
}
