package instrumentation

import (
	"strconv"
	"strings"
)

// Cardinality helpers keep label values bounded. Raw URL paths, email
// addresses and IDs never become label values.

// TierLabel maps an assistant tier to a fixed label value.
func TierLabel(tier int) string {
	if tier < 1 || tier > 4 {
		return "unknown"
	}
	return strconv.Itoa(tier)
}

// RouteLabel returns the route template for an HTTP path. Unknown paths
// collapse to "other".
func RouteLabel(path string, routes []string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	for _, r := range routes {
		if r == path {
			return r
		}
	}
	return "other"
}

// ExtractUserDomain extracts the domain part from an email address.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
func ExtractUserDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return "unknown"
	}
	return strings.ToLower(email[at+1:])
}

// Common operation types.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationSend   = "send"
)
