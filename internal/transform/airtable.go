package transform

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/logger"
)

// attachmentFields are the canonical fields whose Airtable values are
// file-attachment arrays rather than scalars.
var attachmentFields = map[string]bool{
	FieldAdAsset:         true,
	FieldAdAssetVertical: true,
}

// AirtableTransformer normalizes an Airtable record object (an "id" plus a
// "fields" mapping) into a canonical ad record. The base and table ids come
// from request routing, not the payload.
type AirtableTransformer struct {
	payload map[string]interface{}
	baseID  string
	tableID string
	fields  *fieldResolver
}

// NewAirtableTransformer creates a transformer for one Airtable record.
func NewAirtableTransformer(payload map[string]interface{}, baseID, tableID string, fields FieldMap) *AirtableTransformer {
	return &AirtableTransformer{
		payload: payload,
		baseID:  baseID,
		tableID: tableID,
		fields:  newFieldResolver(fields),
	}
}

// FieldValue extracts one canonical field's raw value from the record's
// fields mapping. Attachment fields resolve to an Attachment built from the
// first file object; any other list value resolves to its first element;
// scalars pass through unchanged. nil means absent.
func (t *AirtableTransformer) FieldValue(name string) interface{} {
	fieldsMap, _ := t.payload["fields"].(map[string]interface{})
	src := t.fields.resolve(name)

	value, ok := fieldsMap[src]
	if !ok || value == nil {
		logger.Warn("airtable field not found", "field", src, "canonical", name)
		return nil
	}

	list, isList := value.([]interface{})
	if !isList {
		logger.Debug("extracted airtable field", "field", src, "canonical", name, "value", value)
		return value
	}
	if len(list) == 0 {
		return nil
	}

	if attachmentFields[name] {
		obj, isMap := list[0].(map[string]interface{})
		if !isMap {
			logger.Warn("invalid attachment structure", "field", src)
			return nil
		}
		urlStr, _ := obj["url"].(string)
		if urlStr == "" {
			logger.Warn("attachment has no url", "field", src)
			return nil
		}
		filename, _ := obj["filename"].(string)
		att := Attachment{URL: urlStr, Filename: filename}
		logger.Debug("extracted airtable attachment", "field", src, "url", att.URL, "filename", att.Filename)
		return att
	}

	logger.Debug("extracted airtable field", "field", src, "canonical", name, "value", list[0])
	return list[0]
}

// assetField resolves one asset field to a validated URL and filename.
// Attachment filenames are used verbatim; bare URL values fall back to
// derivation. required controls whether absence and underivable filenames
// are fatal.
func (t *AirtableTransformer) assetField(name string, required bool) (string, string, error) {
	var urlStr, filename string

	switch v := t.FieldValue(name).(type) {
	case nil:
		urlStr = ""
	case Attachment:
		urlStr, filename = v.URL, v.Filename
	case string:
		urlStr = v
	default:
		return "", "", domain.InvalidField(name, fmt.Sprintf("unexpected value of type %T for asset field", v))
	}

	if urlStr == "" {
		if required {
			return "", "", domain.MissingField(name)
		}
		return "", "", nil
	}

	if filename == "" {
		filename = ExtractFilename(urlStr)
	}
	if filename == "" {
		if required {
			return "", "", domain.InvalidField(name,
				fmt.Sprintf("could not derive filename from URL %q", urlStr))
		}
		logger.Warn("could not derive vertical asset filename, leaving absent", "url", urlStr)
		return "", "", nil
	}

	urlField := name + "_url"
	coerced, err := coerceURL(urlField, urlStr)
	if err != nil {
		return "", "", err
	}
	return coerced, filename, nil
}

// stringValue renders a scalar field value as a string; numeric Airtable
// cells (JSON numbers) are formatted without a trailing exponent so ids like
// 1234567890 survive coercion.
func (t *AirtableTransformer) stringValue(name string) string {
	switch v := t.FieldValue(name).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case Attachment:
		return v.URL
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Transform produces a validated canonical record from the Airtable record.
func (t *AirtableTransformer) Transform(userID string) (*domain.AdData, error) {
	logger.Info("starting airtable transformation",
		"user_id", userID, "base_id", t.baseID, "table_id", t.tableID)

	// Assets first: filename derivation depends on them.
	assetURL, assetFilename, err := t.assetField(FieldAdAsset, true)
	if err != nil {
		return nil, err
	}
	verticalURL, verticalFilename, err := t.assetField(FieldAdAssetVertical, false)
	if err != nil {
		return nil, err
	}

	linkURL := t.stringValue(FieldAdLink)
	if linkURL != "" {
		if linkURL, err = coerceURL("ad_link_url", linkURL); err != nil {
			return nil, err
		}
	}

	recordID, _ := t.payload["id"].(string)
	if recordID == "" {
		recordID, _ = t.payload["recordId"].(string)
	}

	var tableID string
	if t.baseID != "" && t.tableID != "" {
		tableID = t.baseID + "_" + t.tableID
	}

	ad := &domain.AdData{
		SourceType:              domain.SourceAirtable,
		SourceRecordID:          recordID,
		SourceTableID:           tableID,
		UserID:                  userID,
		BuildID:                 uuid.New().String(),
		AdID:                    t.stringValue(FieldAdID),
		AdName:                  t.stringValue(FieldAdName),
		AdHeadline:              t.stringValue(FieldAdHeadline),
		AdBody:                  t.stringValue(FieldAdBody),
		AdLinkURL:               linkURL,
		AdMediaType:             domain.MediaType(t.stringValue(FieldAdMediaType)),
		AdCTALabel:              t.stringValue(FieldAdCTALabel),
		AdAssetURL:              assetURL,
		AdAssetFilename:         assetFilename,
		AdAssetVerticalURL:      verticalURL,
		AdAssetVerticalFilename: verticalFilename,
		DestinationAdAccountID:  t.stringValue(FieldDestinationAdAccountID),
		DestinationAdsetID:      t.stringValue(FieldDestinationAdsetID),
		DestinationTemplateAdID: t.stringValue(FieldDestinationTemplateAdID),
		AdImportStatus:          domain.ImportBuilding,
	}

	if err := ad.Validate(); err != nil {
		return nil, err
	}
	logger.Info("airtable transformation complete", "build_id", ad.BuildID, "ad_name", ad.AdName)
	return ad, nil
}
