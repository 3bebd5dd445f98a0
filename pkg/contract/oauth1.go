package contract

import (
	"encoding/json"
	"fmt"

	"github.com/samvad-hq/postman-echo-client/pkg/echoerr"
)

// OAuth1FailureResponse is the diagnostic payload returned when an OAuth 1.0 signature is rejected.
type OAuth1FailureResponse struct {
	Status                string `json:"status"`
	Message               string `json:"message"`
	BaseURI               string `json:"base_uri"`
	NormalizedParamString string `json:"normalized_param_string"`
	BaseString            string `json:"base_string"`
	SigningKey            string `json:"signing_key"`
}

// ParseOAuth1Failure decodes an OAuth1 failure body. An empty body yields nil without error.
func ParseOAuth1Failure(body []byte) (*OAuth1FailureResponse, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var out OAuth1FailureResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode oauth1 failure: %w", echoerr.ErrParse, err)
	}
	return &out, nil
}
