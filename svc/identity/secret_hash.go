package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SecretHash is Base64(HMAC-SHA256(clientSecret, username+clientID)).
// It is empty when the app client has no secret.
func SecretHash(username, clientID, clientSecret string) string {
	if clientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
