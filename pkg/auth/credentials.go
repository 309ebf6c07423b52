// Package auth shapes the opaque credential bundle INIT carries. It does
// not hash, validate, or enforce anything: auth-policy enforcement is a
// server-side concern out of scope for this client (spec.md §2's
// non-goals).
package auth

// Basic builds the credential map a Bolt server expects for basic auth:
// scheme "basic" plus the given principal, credentials, and realm.
func Basic(principal, credentials, realm string) map[string]any {
	token := map[string]any{
		"scheme":      "basic",
		"principal":   principal,
		"credentials": credentials,
	}
	if realm != "" {
		token["realm"] = realm
	}
	return token
}

// None builds the credential map for a server with auth disabled.
func None() map[string]any {
	return map[string]any{"scheme": "none"}
}
