package ldap

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Endpoint describes a parsed directory endpoint URI.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
	UseTLS bool
}

// String returns the endpoint as host:port, or the socket path for ldapi.
func (e *Endpoint) String() string {
	if e.Scheme == "ldapi" {
		return e.Host
	}
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// ParseEndpoint validates an ldap://, ldaps:// or ldapi:// URI.
func ParseEndpoint(uri string) (*Endpoint, error) {
	if uri == "" {
		return nil, fmt.Errorf("URI cannot be empty")
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}

	endpoint := &Endpoint{Scheme: strings.ToLower(u.Scheme)}

	switch endpoint.Scheme {
	case "ldaps":
		endpoint.UseTLS = true
		endpoint.Port = 636
	case "ldap":
		endpoint.Port = 389
	case "ldapi":
		endpoint.Host = u.Host
		if endpoint.Host == "" {
			endpoint.Host = "/var/run/slapd/ldapi"
		}
		return endpoint, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q, must be ldap://, ldaps:// or ldapi://", u.Scheme)
	}

	endpoint.Host = u.Hostname()
	if endpoint.Host == "" {
		return nil, fmt.Errorf("URI %q has no host", uri)
	}

	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid port number: %s", portStr)
		}
		endpoint.Port = port
	}

	return endpoint, nil
}
