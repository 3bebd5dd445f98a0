package contract

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/postman-echo-client/pkg/echoerr"
	"github.com/tidwall/gjson"
)

// document is a parsed top-level JSON value. Lookups never fail: absent or
// wrongly typed fields resolve to the zero value of the requested kind.
type document struct {
	root gjson.Result
}

func parseDocument(json string) (document, error) {
	if json == "" {
		return document{}, fmt.Errorf("%w: response json was empty", echoerr.ErrInvalidArgument)
	}
	// Invalid UTF-8 sequences decode to U+FFFD.
	json = strings.ToValidUTF8(json, "\uFFFD")
	if !gjson.Valid(json) {
		return document{}, fmt.Errorf("%w: response json is malformed", echoerr.ErrParse)
	}
	return document{root: gjson.Parse(json)}, nil
}

// field finds a top-level property by exact key. gjson paths treat '.', '*'
// and '?' specially, so keys are compared directly instead.
func (d document) field(name string) (gjson.Result, bool) {
	if !d.root.IsObject() {
		return gjson.Result{}, false
	}
	var (
		found gjson.Result
		ok    bool
	)
	d.root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			found, ok = value, true
			return false
		}
		return true
	})
	return found, ok
}

func (d document) String(name string) string {
	v, ok := d.field(name)
	if !ok || v.Type != gjson.String {
		return ""
	}
	return v.String()
}

func (d document) OptionalString(name string) *string {
	v, ok := d.field(name)
	if !ok || v.Type != gjson.String {
		return nil
	}
	s := v.String()
	return &s
}

func (d document) Bool(name string) bool {
	v, ok := d.field(name)
	return ok && v.Type == gjson.True
}

func (d document) StringMap(name string) map[string]string {
	v, ok := d.field(name)
	if !ok {
		return map[string]string{}
	}
	return toStringMap(v, false)
}

func (d document) LowerStringMap(name string) map[string]string {
	v, ok := d.field(name)
	if !ok {
		return map[string]string{}
	}
	return toStringMap(v, true)
}

// toStringMap flattens an object into name/value strings. Non-string values
// keep their JSON text; anything but an object yields an empty map.
func toStringMap(v gjson.Result, lowerKeys bool) map[string]string {
	out := map[string]string{}
	if !v.IsObject() {
		return out
	}
	v.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if lowerKeys {
			k = strings.ToLower(k)
		}
		if value.Type == gjson.String {
			out[k] = value.String()
		} else {
			out[k] = value.Raw
		}
		return true
	})
	return out
}
