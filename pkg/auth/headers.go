// Package auth provides the canned authentication material accepted by the
// Postman Echo auth endpoints.
//
// The values are fixtures matching the service's fixed users, nonces and
// keys. Nothing here negotiates or signs anything.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/postman-echo-client/pkg/echoerr"
)

// HeaderAuthorization is the header all auth helpers write.
const HeaderAuthorization = "Authorization"

const (
	// BasicCredential is postman:password.
	BasicCredential = "Basic cG9zdG1hbjpwYXNzd29yZA=="

	// DigestCredential answers the service's fixed digest nonce for postman:password.
	DigestCredential = `Digest username="postman", realm="Users", nonce="ni1LiL0O37PRRhofWdCLmwFsnEtH1lew", uri="/digest-auth", response="254679099562cf07df9b6f5d8d15db44", opaque=""`

	// HawkCredential is a pre-computed Hawk header for id dh37fgj492je.
	HawkCredential = `Hawk id="dh37fgj492je", ts="1604891768", nonce="qPnAq_", mac="d9VSLEOODbLWsBkOKBatOZtJr5y9+gvNO57yxOKVu+k="`

	// OAuth1Credential is a pre-signed OAuth 1.0 header for consumer key RKCGzna7bv9YD57c.
	OAuth1Credential = `OAuth oauth_consumer_key="RKCGzna7bv9YD57c",oauth_signature_method="HMAC-SHA1",oauth_timestamp="1472121261",oauth_nonce="ki0RQW",oauth_version="1.0",oauth_signature="s0rK92Myxx7ceUBVzlMaxiiXU00%3D"`
)

// Set adds the header or replaces every existing value stored under the same
// name, compared case-insensitively.
func Set(headers map[string]string, name, value string) error {
	if headers == nil {
		return fmt.Errorf("%w: headers map is nil", echoerr.ErrInvalidArgument)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: header name is empty", echoerr.ErrInvalidArgument)
	}
	Remove(headers, name)
	headers[http.CanonicalHeaderKey(name)] = value
	return nil
}

// Remove deletes every value stored under name, compared case-insensitively.
func Remove(headers map[string]string, name string) {
	for k := range headers {
		if strings.EqualFold(k, name) {
			delete(headers, k)
		}
	}
}

// SetBasic sets the Authorization header accepted by the basic-auth endpoint.
func SetBasic(headers map[string]string) error {
	return Set(headers, HeaderAuthorization, BasicCredential)
}

// SetDigest sets the Authorization header accepted by the digest-auth endpoint.
func SetDigest(headers map[string]string) error {
	return Set(headers, HeaderAuthorization, DigestCredential)
}

// SetHawk sets a caller supplied Hawk Authorization value.
func SetHawk(headers map[string]string, value string) error {
	return Set(headers, HeaderAuthorization, value)
}

// SetOAuth1 sets a caller supplied OAuth 1.0 Authorization value.
func SetOAuth1(headers map[string]string, value string) error {
	return Set(headers, HeaderAuthorization, value)
}
