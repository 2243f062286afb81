/*
Package ldap provides directory sessions against the KU Leuven and VSC
account directories for the Terraform VSC provider.

# Targets and configuration

Each session is created for one Target. Its endpoint URI, search base, bind
identity and credential are read from a flat configuration store:

	kul_uri   ldaps://ldap.example.kuleuven.be
	kul_base  ou=people,dc=kuleuven,dc=be
	kul_who   None
	kul_cred  None
	vsc_uri   ldaps://ldap.example.vscentrum.be
	vsc_base  ou=vsc,dc=vscentrum,dc=be
	vsc_who   cn=reader,dc=vscentrum,dc=be
	vsc_cred  secret

The first token of a line is the key and the last token is the value. The
literal None stands for an empty value, which selects an unauthenticated
bind. The store is read from SessionConfig.ConfigFile, the VSC_LDAP_CONFIG
environment variable or DefaultConfigFile, in that order.

# Session lifecycle

A Session moves through Unconnected, Initialized, Bound and Closed:

	err := ldap.WithSession(ctx, ldap.TargetVSC, nil, func(s *ldap.Session) error {
		if _, err := s.Search(ctx, ldap.UserFilter("vsc12345")); err != nil {
			return err
		}
		info, err := s.GetUserInfo(ctx, "vsc12345")
		...
	})

Search on a session that is initialized but not bound makes one implicit
bind attempt. Operations invoked in the wrong state return a StateError.

# Results

Search returns a ResultSet that is independent of later searches. Field
returns the first value of an attribute for every entry, using the first
entry to decide whether the attribute exists. UserInfo returns the
attribute map of a single account, or nil when it is absent.

# Error Handling

Failures are reported as *DirectoryError values with a category
(configuration, connection, authentication, state, query or field), the
LDAP result code when one is available and a retryable flag for transient
transport conditions. A user missing from a result is not an error.
*/
package ldap
