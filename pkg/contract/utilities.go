package contract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/postman-echo-client/pkg/echoerr"
)

// HawkSuccessMarker is the phrase the Hawk endpoint returns on success.
const HawkSuccessMarker = "Hawk Authentication Successful"

// ParseIPAddress extracts the ip field of the ip endpoint response.
func ParseIPAddress(body []byte) (string, error) {
	doc, err := parseDocument(string(body))
	if err != nil {
		return "", err
	}
	return doc.String("ip"), nil
}

// IsHawkAuthSuccessful reports whether the body carries the Hawk success marker.
func IsHawkAuthSuccessful(body []byte) bool {
	return bytes.Contains(body, []byte(HawkSuccessMarker))
}

// ParseResponseHeaders decodes the response-headers endpoint body, a flat
// object of the query pairs sent. Names keep their original case.
func ParseResponseHeaders(body []byte) (map[string]string, error) {
	doc, err := parseDocument(string(body))
	if err != nil {
		return nil, err
	}
	return toStringMap(doc.root, false), nil
}

// ParseUTF8Text returns the visible text of the UTF-8 demo page with
// surrounding whitespace trimmed.
func ParseUTF8Text(body []byte) (string, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("%w: utf8 response was empty", echoerr.ErrInvalidArgument)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %w", echoerr.ErrParse, err)
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Find("body").Text()), nil
}
