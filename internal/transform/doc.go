// Package transform normalizes heterogeneous third-party payloads into the
// canonical ad record.
//
// Each source system (Notion's typed-property model, Airtable's
// array-of-attachment model) gets its own Transformer. A Transformer is
// constructed per payload, extracts every canonical field through a
// field-map-aware resolver, derives asset filenames, coerces URL fields, and
// produces a validated domain.AdData with a fresh build id.
//
// Extraction is tolerant: a missing field or an unrecognized Notion property
// type yields absence, not an error. Missing required fields become a hard
// *domain.ValidationError only when the record is constructed.
package transform
