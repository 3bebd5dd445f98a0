package endpoints

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/samvad-hq/postman-echo-client/pkg/echoerr"
)

// Pair is a single query string name/value.
type Pair struct {
	Name  string
	Value string
}

// Query is an ordered sequence of query string pairs. Order is preserved when encoding.
type Query []Pair

// Pairs builds a Query from alternating names and values. A trailing name without a value gets an empty value.
func Pairs(kv ...string) Query {
	q := make(Query, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		p := Pair{Name: kv[i]}
		if i+1 < len(kv) {
			p.Value = kv[i+1]
		}
		q = append(q, p)
	}
	return q
}

// QueryFromStruct encodes a struct with `url:"..."` tags into a Query.
// Keys are emitted in sorted order; repeated values keep their slice order.
func QueryFromStruct(v any) (Query, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: query struct is nil", echoerr.ErrInvalidArgument)
	}
	values, err := query.Values(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query struct: %w", echoerr.ErrInvalidArgument, err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var q Query
	for _, k := range keys {
		for _, val := range values[k] {
			q = append(q, Pair{Name: k, Value: val})
		}
	}
	return q, nil
}

// Len returns the number of pairs.
func (q Query) Len() int { return len(q) }

// Encode renders the pairs as a percent-encoded query string without the leading '?'.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// rawJoin joins names with '&' without encoding them.
func rawJoin(names []string) string {
	return strings.Join(names, "&")
}
