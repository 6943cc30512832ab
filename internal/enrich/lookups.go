// Package enrich denormalises dimension rows: it splices in alias, UDA and
// attribute values from side lookups and decodes packed per-plan-type fields.
package enrich

import "sort"

// Lookups holds the association tables of one dimension, scanned once
// before its members are extracted.
type Lookups struct {
	aliasTables []string
	aliases     map[string]map[int64]string
	udas        map[int64][]string
	attrs       map[string]map[int64]string
}

// NewLookups returns empty lookups.
func NewLookups() *Lookups {
	return &Lookups{
		aliases: make(map[string]map[int64]string),
		udas:    make(map[int64][]string),
		attrs:   make(map[string]map[int64]string),
	}
}

// AddAlias records the alias of member in table. Tables are kept in order of
// first appearance.
func (l *Lookups) AddAlias(table string, member int64, alias string) {
	m, ok := l.aliases[table]
	if !ok {
		m = make(map[int64]string)
		l.aliases[table] = m
		l.aliasTables = append(l.aliasTables, table)
	}
	m[member] = alias
}

// AddUDA associates a user-defined attribute with member.
func (l *Lookups) AddUDA(member int64, value string) {
	l.udas[member] = append(l.udas[member], value)
}

// AddAttribute records the member's value in an attribute dimension.
func (l *Lookups) AddAttribute(dimension string, member int64, value string) {
	m, ok := l.attrs[dimension]
	if !ok {
		m = make(map[int64]string)
		l.attrs[dimension] = m
	}
	m[member] = value
}

// AliasTables returns the alias table names in order of first appearance.
func (l *Lookups) AliasTables() []string { return l.aliasTables }

// AttributeDimensions returns the associated attribute dimensions, sorted.
func (l *Lookups) AttributeDimensions() []string {
	dims := make([]string, 0, len(l.attrs))
	for d := range l.attrs {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}

// Alias returns the member's alias in table.
func (l *Lookups) Alias(table string, member int64) (string, bool) {
	a, ok := l.aliases[table][member]
	return a, ok
}

// UDAs returns the member's user-defined attributes in association order.
func (l *Lookups) UDAs(member int64) []string { return l.udas[member] }

// Attribute returns the member's value in an attribute dimension.
func (l *Lookups) Attribute(dimension string, member int64) (string, bool) {
	v, ok := l.attrs[dimension][member]
	return v, ok
}

// Stats returns the number of alias, UDA and attribute associations.
func (l *Lookups) Stats() (aliases, udas, attrs int) {
	for _, m := range l.aliases {
		aliases += len(m)
	}
	for _, v := range l.udas {
		udas += len(v)
	}
	for _, m := range l.attrs {
		attrs += len(m)
	}
	return aliases, udas, attrs
}
