package ldap

import (
	"context"
	"maps"
	"slices"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

// Entry is one search result: a distinguished name and its multi-valued attributes.
type Entry struct {
	DN         string
	Attributes map[string][]string
}

// Has reports whether the entry carries the attribute.
func (e Entry) Has(field Field) bool {
	_, ok := e.Attributes[string(field)]
	return ok
}

// First returns the first value of the attribute, or "" when absent or empty.
func (e Entry) First(field Field) string {
	values := e.Attributes[string(field)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// ResultSet is the ordered outcome of a single search. It is an owned value:
// later searches on the same session do not modify it.
type ResultSet struct {
	Filter  string
	BaseDN  string
	Entries []Entry
}

// NewResultSet converts go-ldap entries, preserving server order.
func NewResultSet(baseDN, filter string, entries []*ldap.Entry) *ResultSet {
	rs := &ResultSet{
		Filter:  filter,
		BaseDN:  baseDN,
		Entries: make([]Entry, 0, len(entries)),
	}
	for _, e := range entries {
		if e == nil {
			continue
		}
		attrs := make(map[string][]string, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs[a.Name] = slices.Clone(a.Values)
		}
		rs.Entries = append(rs.Entries, Entry{DN: e.DN, Attributes: attrs})
	}
	return rs
}

// Len returns the number of entries.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Entries)
}

// Empty reports whether the result holds no entries.
func (rs *ResultSet) Empty() bool {
	return rs.Len() == 0
}

// Field returns the first value of field for every entry, in entry order.
// The first entry acts as the schema probe: a field it lacks is a FieldError.
// An empty or nil result yields nil without error.
func (rs *ResultSet) Field(field Field) ([]string, error) {
	if rs.Empty() {
		return nil, nil
	}

	if !rs.Entries[0].Has(field) {
		return nil, NewFieldError(field, "")
	}

	values := make([]string, 0, len(rs.Entries))
	for _, e := range rs.Entries {
		if !e.Has(field) {
			return nil, NewFieldError(field, e.DN)
		}
		values = append(values, e.First(field))
	}

	return values, nil
}

// lookupUID returns the index of the entry whose uid matches, or -1.
func (rs *ResultSet) lookupUID(uid string) (int, error) {
	uids, err := rs.Field(FieldUID)
	if err != nil {
		return -1, err
	}
	return slices.Index(uids, uid), nil
}

// UserInfo returns a copy of the attribute map of the entry whose uid is
// uid. A user that is not present is logged as a warning and yields nil.
func (rs *ResultSet) UserInfo(ctx context.Context, uid string) (map[string][]string, error) {
	if rs.Empty() {
		return nil, nil
	}

	idx, err := rs.lookupUID(uid)
	if err != nil {
		return nil, err
	}

	if idx < 0 {
		tflog.Warn(ctx, "Could not find the user", map[string]any{
			"uid":     uid,
			"filter":  rs.Filter,
			"entries": len(rs.Entries),
		})
		return nil, nil
	}

	info := make(map[string][]string, len(rs.Entries[idx].Attributes))
	for k, v := range rs.Entries[idx].Attributes {
		info[k] = slices.Clone(v)
	}
	return info, nil
}

// Account returns the typed view of the entry whose uid is uid, or nil.
func (rs *ResultSet) Account(ctx context.Context, uid string) (*Account, error) {
	if rs.Empty() {
		return nil, nil
	}

	idx, err := rs.lookupUID(uid)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		tflog.Warn(ctx, "Could not find the user", map[string]any{
			"uid":    uid,
			"filter": rs.Filter,
		})
		return nil, nil
	}

	return NewAccount(rs.Entries[idx]), nil
}

// AttributeNames returns the sorted attribute names of the first entry.
func (rs *ResultSet) AttributeNames() []string {
	if rs.Empty() {
		return nil
	}
	return slices.Sorted(maps.Keys(rs.Entries[0].Attributes))
}
