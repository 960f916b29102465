package store

import "encoding/json"

// Query is one listing predicate, wire-encoded the way the store expects.
type Query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// Equal matches rows whose attribute equals any of the given values.
func Equal(attribute string, values ...string) Query {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Query{Method: "equal", Attribute: attribute, Values: vs}
}

// OrderDesc sorts the listing by attribute, descending.
func OrderDesc(attribute string) Query {
	return Query{Method: "orderDesc", Attribute: attribute}
}

func (q Query) encode() string {
	b, _ := json.Marshal(q)
	return string(b)
}
