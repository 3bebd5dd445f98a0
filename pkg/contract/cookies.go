package contract

// CookiesResponse lists the cookies currently set on the service.
type CookiesResponse struct {
	Cookies map[string]string
}

// ParseCookiesResponse decodes a cookies endpoint response.
func ParseCookiesResponse(json string) (*CookiesResponse, error) {
	doc, err := parseDocument(json)
	if err != nil {
		return nil, err
	}
	return &CookiesResponse{Cookies: doc.StringMap("cookies")}, nil
}
