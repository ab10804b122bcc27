// Package apikey issues and validates the API keys that authenticate
// webhook deliveries and management calls.
package apikey
