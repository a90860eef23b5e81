package ilphttp

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// parseAuth extracts (username, password) from an Authorization header that
// is either standard HTTP Basic, or the Bearer "username:password" form
// this protocol also accepts.
func parseAuth(r *http.Request) (username, password string, err *apiError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", authError("missing Authorization header")
	}

	if u, p, ok := r.BasicAuth(); ok {
		return u, p, nil
	}

	const bearerPrefix = "Bearer "
	if strings.HasPrefix(header, bearerPrefix) {
		creds := strings.TrimPrefix(header, bearerPrefix)
		user, pass, ok := strings.Cut(creds, ":")
		if !ok {
			return "", "", authError("malformed bearer credentials")
		}

		return user, pass, nil
	}

	// Tolerate a bare base64(username:password) with no scheme prefix.
	if decoded, decErr := base64.StdEncoding.DecodeString(header); decErr == nil {
		user, pass, ok := strings.Cut(string(decoded), ":")
		if ok {
			return user, pass, nil
		}
	}

	return "", "", authError("unparseable Authorization header")
}
