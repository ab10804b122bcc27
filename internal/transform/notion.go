package transform

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/logger"
)

// notionPropertyTags lists the supported property types in dispatch
// precedence order. When a property carries no usable "type" discriminant
// the first matching key wins; rich_text deliberately precedes rollup.
var notionPropertyTags = []string{"rich_text", "select", "rollup", "url", "formula", "files"}

// NotionTransformer normalizes a Notion page payload (webhook shape: the
// page object nested under "data") into a canonical ad record.
type NotionTransformer struct {
	payload map[string]interface{}
	fields  *fieldResolver
}

// NewNotionTransformer creates a transformer for one Notion payload. The
// optional field map renames Notion property names to canonical fields.
func NewNotionTransformer(payload map[string]interface{}, fields FieldMap) *NotionTransformer {
	return &NotionTransformer{payload: payload, fields: newFieldResolver(fields)}
}

func (t *NotionTransformer) page() map[string]interface{} {
	data, _ := t.payload["data"].(map[string]interface{})
	return data
}

func (t *NotionTransformer) properties() map[string]interface{} {
	props, _ := t.page()["properties"].(map[string]interface{})
	return props
}

// PropertyValue extracts one canonical field's value from the page's typed
// properties. A missing property, empty value, or unrecognized property type
// yields "" (absence, never an error) so unexpected upstream schema
// additions don't break ingestion.
func (t *NotionTransformer) PropertyValue(name string) string {
	src := t.fields.resolve(name)
	prop, ok := t.properties()[src].(map[string]interface{})
	if !ok || len(prop) == 0 {
		logger.Warn("notion property not found", "property", src, "field", name)
		return ""
	}

	// Dispatch on the declared type discriminant; fall back to probing the
	// known tags in precedence order for payloads that omit it.
	tag, _ := prop["type"].(string)
	if _, present := prop[tag]; tag == "" || !present {
		tag = ""
		for _, k := range notionPropertyTags {
			if _, ok := prop[k]; ok {
				tag = k
				break
			}
		}
	}

	var value string
	switch tag {
	case "rich_text":
		value = concatRichText(prop["rich_text"])
	case "select":
		sel, _ := prop["select"].(map[string]interface{})
		value, _ = sel["name"].(string)
	case "rollup":
		value = rollupRichText(prop["rollup"])
	case "url":
		raw, _ := prop["url"].(string)
		value = ensureScheme(raw)
	case "formula":
		f, _ := prop["formula"].(map[string]interface{})
		if ft, _ := f["type"].(string); ft == "string" {
			value, _ = f["string"].(string)
		}
	case "files":
		value = t.firstFileURL(prop["files"], src)
	default:
		logger.Warn("unhandled notion property type", "property", src, "type", tag)
		return ""
	}

	logger.Debug("extracted notion property", "property", src, "field", name, "value", value)
	return value
}

// concatRichText joins the content of every text block, in order.
func concatRichText(v interface{}) string {
	blocks, _ := v.([]interface{})
	var out string
	for _, b := range blocks {
		block, _ := b.(map[string]interface{})
		text, _ := block["text"].(map[string]interface{})
		content, _ := text["content"].(string)
		out += content
	}
	return out
}

// rollupRichText joins the first rich-text block's content from every rollup
// array item, in order.
func rollupRichText(v interface{}) string {
	rollup, _ := v.(map[string]interface{})
	items, _ := rollup["array"].([]interface{})
	var out string
	for _, it := range items {
		item, _ := it.(map[string]interface{})
		rt, _ := item["rich_text"].([]interface{})
		if len(rt) == 0 {
			continue
		}
		block, _ := rt[0].(map[string]interface{})
		text, _ := block["text"].(map[string]interface{})
		content, _ := text["content"].(string)
		out += content
	}
	return out
}

// firstFileURL returns the URL of the first file in a files property.
// Internal Notion files read from file.url, external files from
// external.url; unknown file-type variants yield no value.
func (t *NotionTransformer) firstFileURL(v interface{}, property string) string {
	files, _ := v.([]interface{})
	if len(files) == 0 {
		logger.Warn("no files found for property", "property", property)
		return ""
	}

	file, _ := files[0].(map[string]interface{})
	fileType, _ := file["type"].(string)

	var raw string
	switch fileType {
	case "file":
		inner, _ := file["file"].(map[string]interface{})
		raw, _ = inner["url"].(string)
	case "external":
		inner, _ := file["external"].(map[string]interface{})
		raw, _ = inner["url"].(string)
	default:
		logger.Warn("unknown file type for property", "property", property, "file_type", fileType)
		return ""
	}
	return ensureScheme(raw)
}

// Transform produces a validated canonical record from the Notion payload.
func (t *NotionTransformer) Transform(userID string) (*domain.AdData, error) {
	logger.Info("starting notion transformation", "user_id", userID)

	// Assets first: filename derivation depends on them.
	assetURL := t.PropertyValue(FieldAdAsset)
	if assetURL == "" {
		return nil, domain.MissingField(FieldAdAsset)
	}
	assetFilename := ExtractFilename(assetURL)
	if assetFilename == "" {
		return nil, domain.InvalidField(FieldAdAsset,
			fmt.Sprintf("could not derive filename from URL %q", assetURL))
	}

	verticalURL := t.PropertyValue(FieldAdAssetVertical)
	var verticalFilename string
	if verticalURL != "" {
		verticalFilename = ExtractFilename(verticalURL)
		if verticalFilename == "" {
			logger.Warn("could not derive vertical asset filename, leaving absent", "url", verticalURL)
			verticalURL = ""
		}
	}

	assetURL, err := coerceURL("ad_asset_url", assetURL)
	if err != nil {
		return nil, err
	}
	if verticalURL != "" {
		if verticalURL, err = coerceURL("ad_asset_vertical_url", verticalURL); err != nil {
			return nil, err
		}
	}

	linkURL := t.PropertyValue(FieldAdLink)
	if linkURL != "" {
		if linkURL, err = coerceURL("ad_link_url", linkURL); err != nil {
			return nil, err
		}
	}

	page := t.page()
	recordID, _ := page["id"].(string)
	parent, _ := page["parent"].(map[string]interface{})
	tableID, _ := parent["database_id"].(string)

	ad := &domain.AdData{
		SourceType:              domain.SourceNotion,
		SourceRecordID:          recordID,
		SourceTableID:           tableID,
		UserID:                  userID,
		BuildID:                 uuid.New().String(),
		AdID:                    t.PropertyValue(FieldAdID),
		AdName:                  t.PropertyValue(FieldAdName),
		AdHeadline:              t.PropertyValue(FieldAdHeadline),
		AdBody:                  t.PropertyValue(FieldAdBody),
		AdLinkURL:               linkURL,
		AdMediaType:             domain.MediaType(t.PropertyValue(FieldAdMediaType)),
		AdCTALabel:              t.PropertyValue(FieldAdCTALabel),
		AdAssetURL:              assetURL,
		AdAssetFilename:         assetFilename,
		AdAssetVerticalURL:      verticalURL,
		AdAssetVerticalFilename: verticalFilename,
		DestinationAdAccountID:  t.PropertyValue(FieldDestinationAdAccountID),
		DestinationAdsetID:      t.PropertyValue(FieldDestinationAdsetID),
		DestinationTemplateAdID: t.PropertyValue(FieldDestinationTemplateAdID),
		AdImportStatus:          domain.ImportBuilding,
	}

	if err := ad.Validate(); err != nil {
		return nil, err
	}
	logger.Info("notion transformation complete", "build_id", ad.BuildID, "ad_name", ad.AdName)
	return ad, nil
}
