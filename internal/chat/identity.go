package chat

import "strings"

// Identity is the client-asserted user identity extracted from the handshake
// query. No authentication is implied; the router trusts it only as the
// session binding and stamps it onto every message the session sends.
type Identity struct {
	UserID   string
	UserName string
}

// ParseIdentity extracts userId and userName from the raw query component of
// the handshake URI. Pairs are plain key=value separated by "&"; the first
// occurrence of each key wins. Returns ok=false when either field is missing.
func ParseIdentity(rawQuery string) (Identity, bool) {
	var ident Identity
	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || value == "" {
			continue
		}
		switch key {
		case "userId":
			if ident.UserID == "" {
				ident.UserID = value
			}
		case "userName":
			if ident.UserName == "" {
				ident.UserName = value
			}
		}
	}
	return ident, ident.UserID != "" && ident.UserName != ""
}
