package headers

import (
	"encoding/base64"
	"net/http"
)

// Headers carries the per-service request headers. Every client owns one
// and stamps it on each outgoing request.
type Headers struct {
	UserAgent     string
	Authorization string
	Extra         map[string]string
}

func Bearer(token, userAgent string) *Headers {
	return &Headers{UserAgent: userAgent, Authorization: "Bearer " + token}
}

func Basic(username, password, userAgent string) *Headers {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return &Headers{UserAgent: userAgent, Authorization: "Basic " + creds}
}

// ClientID is imgur's anonymous upload scheme.
func ClientID(clientID, userAgent string) *Headers {
	return &Headers{UserAgent: userAgent, Authorization: "Client-ID " + clientID}
}

func Anonymous(userAgent string) *Headers {
	return &Headers{UserAgent: userAgent}
}

func (h *Headers) GetBasicHeaders() map[string]string {
	headers := map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      h.UserAgent,
	}
	if h.Authorization != "" {
		headers["Authorization"] = h.Authorization
	}
	for key, value := range h.Extra {
		headers[key] = value
	}
	return headers
}

func (h *Headers) AddHeadersToRequest(req *http.Request) {
	if h == nil {
		return
	}
	for key, value := range h.GetBasicHeaders() {
		if value == "" {
			continue
		}
		req.Header.Set(key, value)
	}
}
