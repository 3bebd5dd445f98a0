package auth

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/samvad-hq/postman-echo-client/pkg/httpclient"
)

type field struct {
	name  string
	value string
}

var hawkFields = []field{
	{"access_token", "xyz1"},
	{"id", "U1"},
	{"server_secret", "zeppelin"},
	{"admin", "true"},
}

var oauth1Fields = []field{
	{"code", "xWnkliVQJURqB2x1"},
	{"grant_type", "authorization_code"},
	{"redirect_uri", "https://www.getpostman.com/oauth2/callback"},
	{"client_id", "abc123"},
	{"client_secret", "ssh-secret"},
}

// HawkContent returns the token exchange body sent to the Hawk endpoint.
func HawkContent() (*httpclient.Body, error) {
	return multipartForm(hawkFields)
}

// OAuth1Content returns the token exchange body sent to the OAuth1 endpoint.
func OAuth1Content() (*httpclient.Body, error) {
	return multipartForm(oauth1Fields)
}

// multipartForm wraps the url-encoded fields in a single multipart/form-data part.
func multipartForm(fields []field) (*httpclient.Body, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {"application/x-www-form-urlencoded"},
		"Content-Disposition": {"form-data"},
	})
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write([]byte(encodeFields(fields))); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	return &httpclient.Body{ContentType: w.FormDataContentType(), Data: buf.Bytes()}, nil
}

func encodeFields(fields []field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, url.QueryEscape(f.name)+"="+url.QueryEscape(f.value))
	}
	return strings.Join(parts, "&")
}
