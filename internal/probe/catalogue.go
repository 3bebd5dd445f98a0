package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/postman-echo-client/pkg/endpoints"
	"gopkg.in/yaml.v3"
)

// Supported probe types.
const (
	TypeGet             = "get"
	TypePost            = "post"
	TypePut             = "put"
	TypePatch           = "patch"
	TypeDelete          = "delete"
	TypeHeaders         = "headers"
	TypeResponseHeaders = "response_headers"
	TypeBasicAuth       = "basic_auth"
	TypeDigestAuth      = "digest_auth"
	TypeHawkAuth        = "hawk_auth"
	TypeOAuth1          = "oauth1"
	TypeCookies         = "cookies"
	TypeStatus          = "status"
	TypeStream          = "stream"
	TypeDelay           = "delay"
	TypeUTF8            = "utf8"
	TypeGzip            = "gzip"
	TypeDeflate         = "deflate"
	TypeIP              = "ip"
)

var knownTypes = map[string]struct{}{
	TypeGet: {}, TypePost: {}, TypePut: {}, TypePatch: {}, TypeDelete: {},
	TypeHeaders: {}, TypeResponseHeaders: {},
	TypeBasicAuth: {}, TypeDigestAuth: {}, TypeHawkAuth: {}, TypeOAuth1: {},
	TypeCookies: {}, TypeStatus: {}, TypeStream: {}, TypeDelay: {},
	TypeUTF8: {}, TypeGzip: {}, TypeDeflate: {}, TypeIP: {},
}

// Param is one ordered name/value pair of a probe query.
type Param struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Probe is a single check declared in the probe catalogue.
type Probe struct {
	ID      string            `json:"id" yaml:"id"`
	Type    string            `json:"type" yaml:"type"`
	Enabled *bool             `json:"enabled" yaml:"enabled"`
	Query   []Param           `json:"query" yaml:"query"`
	Headers map[string]string `json:"headers" yaml:"headers"`
	Body    string            `json:"body" yaml:"body"`
	// Authorized selects valid credentials for auth probes; defaults to true.
	Authorized *bool `json:"authorized" yaml:"authorized"`
	// Code, Length and Seconds feed the status, stream and delay probes.
	Code    int `json:"code" yaml:"code"`
	Length  int `json:"length" yaml:"length"`
	Seconds int `json:"seconds" yaml:"seconds"`
}

// QueryPairs returns the probe query in declaration order.
func (p Probe) QueryPairs() endpoints.Query {
	q := make(endpoints.Query, 0, len(p.Query))
	for _, kv := range p.Query {
		q = append(q, endpoints.Pair{Name: kv.Name, Value: kv.Value})
	}
	return q
}

// WantAuthorized reports whether an auth probe sends valid credentials.
func (p Probe) WantAuthorized() bool {
	return p.Authorized == nil || *p.Authorized
}

type catalogueFile struct {
	Probes []Probe `json:"probes" yaml:"probes"`
}

// Catalogue holds the validated probes of a catalogue file.
type Catalogue struct {
	probes []Probe
}

// LoadCatalogue reads probes from a YAML or JSON file.
func LoadCatalogue(path string) (*Catalogue, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("probes file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read probes file: %w", err)
	}
	return parseCatalogue(raw, filepath.Ext(path))
}

func parseCatalogue(raw []byte, ext string) (*Catalogue, error) {
	var file catalogueFile
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("decode json probes: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("decode yaml probes: %w", err)
		}
	}
	if len(file.Probes) == 0 {
		return nil, errors.New("probes file contains no probes entries")
	}

	seen := make(map[string]struct{}, len(file.Probes))
	out := make([]Probe, 0, len(file.Probes))
	for i := range file.Probes {
		p := sanitizeProbe(file.Probes[i])
		if err := validateProbe(p); err != nil {
			return nil, fmt.Errorf("probes[%d]: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate probe id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return &Catalogue{probes: out}, nil
}

func sanitizeProbe(p Probe) Probe {
	p.ID = strings.TrimSpace(p.ID)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	if p.Enabled == nil {
		def := true
		p.Enabled = &def
	}
	query := p.Query[:0:0]
	for _, kv := range p.Query {
		kv.Name = strings.TrimSpace(kv.Name)
		if kv.Name == "" {
			continue
		}
		query = append(query, kv)
	}
	p.Query = query
	if len(p.Headers) > 0 {
		headers := make(map[string]string, len(p.Headers))
		for k, v := range p.Headers {
			if k = strings.TrimSpace(k); k != "" {
				headers[k] = v
			}
		}
		p.Headers = headers
	}
	return p
}

func validateProbe(p Probe) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if _, ok := knownTypes[p.Type]; !ok {
		return fmt.Errorf("unsupported probe type %q for probe %q", p.Type, p.ID)
	}
	switch p.Type {
	case TypeStatus:
		if p.Code < endpoints.MinStatusCode || p.Code > endpoints.MaxStatusCode {
			return fmt.Errorf("code must be in [%d, %d] for probe %q", endpoints.MinStatusCode, endpoints.MaxStatusCode, p.ID)
		}
	case TypeStream:
		if p.Length <= 0 {
			return fmt.Errorf("length must be positive for probe %q", p.ID)
		}
	case TypeDelay:
		if p.Seconds < 0 || p.Seconds > endpoints.MaxDelaySeconds {
			return fmt.Errorf("seconds must be in [0, %d] for probe %q", endpoints.MaxDelaySeconds, p.ID)
		}
	case TypeCookies:
		if len(p.Query) == 0 {
			return fmt.Errorf("cookies probe %q needs at least one query pair", p.ID)
		}
	}
	return nil
}

// All returns every probe in file order.
func (c *Catalogue) All() []Probe {
	if c == nil {
		return nil
	}
	out := make([]Probe, len(c.probes))
	copy(out, c.probes)
	return out
}

// Enabled returns the enabled probes in file order.
func (c *Catalogue) Enabled() []Probe {
	if c == nil {
		return nil
	}
	out := make([]Probe, 0, len(c.probes))
	for _, p := range c.probes {
		if p.Enabled == nil || *p.Enabled {
			out = append(out, p)
		}
	}
	return out
}
