// Package connection manages per-user OAuth credentials for the external
// services a user has linked. It stores one credential row per (user,
// service) pair and exposes lookups used by the API layer and the source
// clients.
package connection
