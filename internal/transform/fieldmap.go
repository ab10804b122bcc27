package transform

import (
	"sort"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/logger"
)

// Canonical field names shared by every source system.
const (
	FieldAdID                    = "ad_id"
	FieldAdName                  = "ad_name"
	FieldAdHeadline              = "ad_headline"
	FieldAdBody                  = "ad_body"
	FieldAdLink                  = "ad_link"
	FieldAdMediaType             = "ad_media_type"
	FieldAdCTALabel              = "ad_cta_label"
	FieldAdAsset                 = "ad_asset"
	FieldAdAssetVertical         = "ad_asset_vertical"
	FieldDestinationAdAccountID  = "destination_ad_account_id"
	FieldDestinationAdsetID      = "destination_adset_id"
	FieldDestinationTemplateAdID = "destination_template_ad_id"
)

// FieldMap maps a source-native field/property name to a canonical field
// name. It is supplied per request and never persisted. Canonical fields
// without an entry fall back to identical-name lookup in the source payload.
type FieldMap map[string]string

// Transformer produces one canonical ad record from one raw source payload.
type Transformer interface {
	Transform(userID string) (*domain.AdData, error)
}

// Attachment is a {url, filename} pair extracted from a file-attachment
// field. The filename, when present, is used verbatim, never re-derived.
type Attachment struct {
	URL      string
	Filename string
}

// fieldResolver answers "which source-native name holds this canonical
// field?". The inverse index (canonical name → source name) is built once
// per transformation instead of re-scanning the field map on every access.
type fieldResolver struct {
	sourceNames map[string]string
}

// newFieldResolver inverts the field map. Source names are visited in
// lexical order so that duplicate mappings to the same canonical field
// resolve identically on every run: the first name in that order wins and
// later collisions are logged.
func newFieldResolver(fields FieldMap) *fieldResolver {
	inverse := make(map[string]string, len(fields))

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, src := range names {
		canonical := fields[src]
		if kept, dup := inverse[canonical]; dup {
			logger.Warn("field map maps multiple source fields to one canonical field",
				"canonical", canonical, "kept", kept, "ignored", src)
			continue
		}
		inverse[canonical] = src
	}
	return &fieldResolver{sourceNames: inverse}
}

func (r *fieldResolver) resolve(canonical string) string {
	if src, ok := r.sourceNames[canonical]; ok {
		return src
	}
	return canonical
}
