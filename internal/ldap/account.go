package ldap

import (
	"strconv"
	"strings"
)

// Account is a typed view of a VSC account entry.
type Account struct {
	// Core identification
	DN        string `json:"dn"`
	UID       string `json:"uid"`
	UIDNumber int64  `json:"uidNumber,omitempty"`
	GIDNumber int64  `json:"gidNumber,omitempty"`

	// Personal information
	CommonName string `json:"cn,omitempty"`
	Gecos      string `json:"gecos,omitempty"`
	Mail       string `json:"mail,omitempty"`

	// Affiliation
	Status         string `json:"status,omitempty"`         // e.g. active, inactive
	Institute      string `json:"institute,omitempty"`      // e.g. leuven, gent
	InstituteLogin string `json:"instituteLogin,omitempty"` // Login at the home institute
	ResearchField  string `json:"researchField,omitempty"`

	// Storage
	HomeDirectory    string `json:"homeDirectory,omitempty"`
	DataDirectory    string `json:"dataDirectory,omitempty"`
	ScratchDirectory string `json:"scratchDirectory,omitempty"`
	HomeQuota        int64  `json:"homeQuota,omitempty"`
	DataQuota        int64  `json:"dataQuota,omitempty"`
	ScratchQuota     int64  `json:"scratchQuota,omitempty"`
	MukHomeOnScratch bool   `json:"mukHomeOnScratch,omitempty"`

	// Shell access
	LoginShell string   `json:"loginShell,omitempty"`
	PublicKeys []string `json:"pubkey,omitempty"`

	ObjectClasses []string `json:"objectClass,omitempty"`
}

// NewAccount maps an entry onto an Account. Unparseable numeric attributes
// are left at zero.
func NewAccount(e Entry) *Account {
	return &Account{
		DN:               e.DN,
		UID:              e.First(FieldUID),
		UIDNumber:        parseInt(e.First(FieldUIDNumber)),
		GIDNumber:        parseInt(e.First(FieldGIDNumber)),
		CommonName:       e.First(FieldCN),
		Gecos:            e.First(FieldGecos),
		Mail:             e.First(FieldMail),
		Status:           e.First(FieldStatus),
		Institute:        e.First(FieldInstitute),
		InstituteLogin:   e.First(FieldInstituteLogin),
		ResearchField:    e.First(FieldResearchField),
		HomeDirectory:    e.First(FieldHomeDirectory),
		DataDirectory:    e.First(FieldDataDirectory),
		ScratchDirectory: e.First(FieldScratchDirectory),
		HomeQuota:        parseInt(e.First(FieldHomeQuota)),
		DataQuota:        parseInt(e.First(FieldDataQuota)),
		ScratchQuota:     parseInt(e.First(FieldScratchQuota)),
		MukHomeOnScratch: parseBool(e.First(FieldMukHomeOnScratch)),
		LoginShell:       e.First(FieldLoginShell),
		PublicKeys:       e.Attributes[string(FieldPubkey)],
		ObjectClasses:    e.Attributes[string(FieldObjectClass)],
	}
}

// Active reports whether the account status is "active".
func (a *Account) Active() bool {
	return strings.EqualFold(a.Status, "active")
}

func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseBool accepts LDAP boolean syntax (TRUE/FALSE) as well as Go forms.
func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return false
	}
	return v
}
