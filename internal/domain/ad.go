package domain

import (
	"fmt"
	"net/url"
)

// SourceType identifies the third-party system an ad record came from.
type SourceType string

const (
	SourceNotion   SourceType = "notion"
	SourceAirtable SourceType = "airtable"
)

// MediaType enumerates the supported ad creative media types.
type MediaType string

const (
	MediaStatic MediaType = "static"
	MediaVideo  MediaType = "video"
)

// ImportStatus enumerates the lifecycle states of an ad import.
// Records are created as ImportBuilding; the downstream build consumer
// transitions them to complete or error.
type ImportStatus string

const (
	ImportBuilding ImportStatus = "building"
	ImportComplete ImportStatus = "complete"
	ImportError    ImportStatus = "error"
)

// AdData is the canonical ad record every source payload is normalized into.
// A record is created exactly once per inbound payload and is immutable from
// the ingestion side; only the downstream build consumer updates its status.
type AdData struct {
	SourceType     SourceType `json:"source_type" db:"source_type"`
	SourceRecordID string     `json:"source_record_id" db:"source_record_id"`
	SourceTableID  string     `json:"source_table_id,omitempty" db:"source_table_id"`
	UserID         string     `json:"user_id" db:"user_id"`
	BuildID        string     `json:"build_id" db:"build_id"`

	// AdID is an optional passthrough id of a pre-existing ad in the
	// destination system.
	AdID string `json:"ad_id,omitempty" db:"ad_id"`

	AdName      string    `json:"ad_name" db:"ad_name"`
	AdHeadline  string    `json:"ad_headline" db:"ad_headline"`
	AdBody      string    `json:"ad_body" db:"ad_body"`
	AdLinkURL   string    `json:"ad_link_url" db:"ad_link_url"`
	AdMediaType MediaType `json:"ad_media_type" db:"ad_media_type"`
	AdCTALabel  string    `json:"ad_cta_label" db:"ad_cta_label"`

	AdAssetURL              string `json:"ad_asset_url" db:"ad_asset_url"`
	AdAssetFilename         string `json:"ad_asset_filename" db:"ad_asset_filename"`
	AdAssetVerticalURL      string `json:"ad_asset_vertical_url,omitempty" db:"ad_asset_vertical_url"`
	AdAssetVerticalFilename string `json:"ad_asset_vertical_filename,omitempty" db:"ad_asset_vertical_filename"`

	DestinationAdAccountID  string `json:"destination_ad_account_id" db:"destination_ad_account_id"`
	DestinationAdsetID      string `json:"destination_adset_id" db:"destination_adset_id"`
	DestinationTemplateAdID string `json:"destination_template_ad_id" db:"destination_template_ad_id"`

	AdImportStatus ImportStatus `json:"ad_import_status" db:"ad_import_status"`
}

// ValidationError reports a canonical field that could not be resolved from
// the source payload or failed validation. It is the caller-error half of
// the failure surface: handlers map it to a 4xx response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MissingField builds a ValidationError for a required field with no value.
func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "required field is missing or empty"}
}

// InvalidField builds a ValidationError for a field with a bad value.
func InvalidField(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// requiredStrings lists the mandatory plain-string fields in the order they
// are checked. The first empty one names the validation failure.
func (a *AdData) requiredStrings() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"source_type", string(a.SourceType)},
		{"source_record_id", a.SourceRecordID},
		{"user_id", a.UserID},
		{"build_id", a.BuildID},
		{"ad_name", a.AdName},
		{"ad_headline", a.AdHeadline},
		{"ad_body", a.AdBody},
		{"ad_link_url", a.AdLinkURL},
		{"ad_media_type", string(a.AdMediaType)},
		{"ad_cta_label", a.AdCTALabel},
		{"ad_asset_url", a.AdAssetURL},
		{"ad_asset_filename", a.AdAssetFilename},
		{"destination_ad_account_id", a.DestinationAdAccountID},
		{"destination_adset_id", a.DestinationAdsetID},
		{"destination_template_ad_id", a.DestinationTemplateAdID},
		{"ad_import_status", string(a.AdImportStatus)},
	}
}

// Validate checks every invariant of the canonical record: all required
// fields non-empty, enums well-formed, URL fields absolute HTTP(S) URLs.
// It returns a *ValidationError naming the first offending field.
func (a *AdData) Validate() error {
	for _, f := range a.requiredStrings() {
		if f.value == "" {
			return MissingField(f.name)
		}
	}

	switch a.SourceType {
	case SourceNotion, SourceAirtable:
	default:
		return InvalidField("source_type", fmt.Sprintf("unknown source type %q", a.SourceType))
	}

	switch a.AdMediaType {
	case MediaStatic, MediaVideo:
	default:
		return InvalidField("ad_media_type", fmt.Sprintf("must be %q or %q, got %q", MediaStatic, MediaVideo, a.AdMediaType))
	}

	switch a.AdImportStatus {
	case ImportBuilding, ImportComplete, ImportError:
	default:
		return InvalidField("ad_import_status", fmt.Sprintf("unknown status %q", a.AdImportStatus))
	}

	if err := validateAbsoluteURL("ad_link_url", a.AdLinkURL); err != nil {
		return err
	}
	if err := validateAbsoluteURL("ad_asset_url", a.AdAssetURL); err != nil {
		return err
	}
	if a.AdAssetVerticalURL != "" {
		if err := validateAbsoluteURL("ad_asset_vertical_url", a.AdAssetVerticalURL); err != nil {
			return err
		}
	}
	return nil
}

func validateAbsoluteURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return InvalidField(field, fmt.Sprintf("invalid URL %q: %v", raw, err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return InvalidField(field, fmt.Sprintf("%q is not an absolute http(s) URL", raw))
	}
	return nil
}

// Row converts the record to its flat persistence form: one string value per
// column, URLs serialized as plain strings. Optional fields are present with
// empty values so the row shape is stable.
func (a *AdData) Row() map[string]string {
	return map[string]string{
		"source_type":                string(a.SourceType),
		"source_record_id":           a.SourceRecordID,
		"source_table_id":            a.SourceTableID,
		"user_id":                    a.UserID,
		"build_id":                   a.BuildID,
		"ad_id":                      a.AdID,
		"ad_name":                    a.AdName,
		"ad_headline":                a.AdHeadline,
		"ad_body":                    a.AdBody,
		"ad_link_url":                a.AdLinkURL,
		"ad_media_type":              string(a.AdMediaType),
		"ad_cta_label":               a.AdCTALabel,
		"ad_asset_url":               a.AdAssetURL,
		"ad_asset_filename":          a.AdAssetFilename,
		"ad_asset_vertical_url":      a.AdAssetVerticalURL,
		"ad_asset_vertical_filename": a.AdAssetVerticalFilename,
		"destination_ad_account_id":  a.DestinationAdAccountID,
		"destination_adset_id":       a.DestinationAdsetID,
		"destination_template_ad_id": a.DestinationTemplateAdID,
		"ad_import_status":           string(a.AdImportStatus),
	}
}

// AdDataFromRow reconstructs a record from its flat persistence form.
func AdDataFromRow(row map[string]string) *AdData {
	return &AdData{
		SourceType:              SourceType(row["source_type"]),
		SourceRecordID:          row["source_record_id"],
		SourceTableID:           row["source_table_id"],
		UserID:                  row["user_id"],
		BuildID:                 row["build_id"],
		AdID:                    row["ad_id"],
		AdName:                  row["ad_name"],
		AdHeadline:              row["ad_headline"],
		AdBody:                  row["ad_body"],
		AdLinkURL:               row["ad_link_url"],
		AdMediaType:             MediaType(row["ad_media_type"]),
		AdCTALabel:              row["ad_cta_label"],
		AdAssetURL:              row["ad_asset_url"],
		AdAssetFilename:         row["ad_asset_filename"],
		AdAssetVerticalURL:      row["ad_asset_vertical_url"],
		AdAssetVerticalFilename: row["ad_asset_vertical_filename"],
		DestinationAdAccountID:  row["destination_ad_account_id"],
		DestinationAdsetID:      row["destination_adset_id"],
		DestinationTemplateAdID: row["destination_template_ad_id"],
		AdImportStatus:          ImportStatus(row["ad_import_status"]),
	}
}
