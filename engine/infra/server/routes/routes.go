package routes

import "fmt"

const apiVersion = "v1"

// Version returns the API version used in routing (e.g., "v1").
func Version() string {
	return apiVersion
}

// Base returns the versioned API base path (e.g., "/api/v1").
func Base() string {
	return fmt.Sprintf("/api/%s", Version())
}

// Webhooks returns the public webhooks base path (e.g., "/api/v1/webhooks").
func Webhooks() string {
	return Base() + "/webhooks"
}

// Auth returns the authentication base path (e.g., "/api/v1/auth").
func Auth() string {
	return Base() + "/auth"
}

// Users returns the users base path (e.g., "/api/v1/users").
func Users() string {
	return Base() + "/users"
}

// Billing returns the billing base path (e.g., "/api/v1/billing").
func Billing() string {
	return Base() + "/billing"
}

// Liveness and Readiness are unversioned probe paths.
func Liveness() string  { return "/healthz" }
func Readiness() string { return "/readyz" }
