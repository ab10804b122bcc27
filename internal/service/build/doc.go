// Package build orchestrates ad-record builds: it routes an inbound payload
// to the transformer for its declared source type and persists the resulting
// canonical record.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports net/http
// or database/sql directly. Construction and persistence are separate atomic
// steps: a record that fails transformation is never persisted, and a
// persisted record is always fully populated.
package build
