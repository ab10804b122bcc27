package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/service/build"
)

// AdImportRepo implements build.Repository against PostgreSQL.
type AdImportRepo struct{ db *sql.DB }

// NewAdImportRepo creates a Postgres-backed ad import repository.
func NewAdImportRepo(db *sql.DB) *AdImportRepo { return &AdImportRepo{db: db} }

func (r *AdImportRepo) CreateImport(ctx context.Context, ad *domain.AdData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ad_imports
			(build_id, source_type, source_record_id, source_table_id, user_id,
			 ad_id, ad_name, ad_headline, ad_body, ad_link_url, ad_media_type,
			 ad_cta_label, ad_asset_url, ad_asset_filename,
			 ad_asset_vertical_url, ad_asset_vertical_filename,
			 destination_ad_account_id, destination_adset_id,
			 destination_template_ad_id, ad_import_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, NOW())
	`, ad.BuildID, ad.SourceType, ad.SourceRecordID, nullIfEmpty(ad.SourceTableID), ad.UserID,
		nullIfEmpty(ad.AdID), ad.AdName, ad.AdHeadline, ad.AdBody, ad.AdLinkURL, ad.AdMediaType,
		ad.AdCTALabel, ad.AdAssetURL, ad.AdAssetFilename,
		nullIfEmpty(ad.AdAssetVerticalURL), nullIfEmpty(ad.AdAssetVerticalFilename),
		ad.DestinationAdAccountID, ad.DestinationAdsetID,
		ad.DestinationTemplateAdID, ad.AdImportStatus)
	if err != nil {
		return fmt.Errorf("insert ad import: %w", err)
	}
	return nil
}

// Get returns one import record by its build id.
func (r *AdImportRepo) Get(ctx context.Context, buildID string) (*domain.AdData, error) {
	ad := &domain.AdData{}
	var tableID, adID, vertURL, vertFilename sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT build_id, source_type, source_record_id, source_table_id, user_id,
		       ad_id, ad_name, ad_headline, ad_body, ad_link_url, ad_media_type,
		       ad_cta_label, ad_asset_url, ad_asset_filename,
		       ad_asset_vertical_url, ad_asset_vertical_filename,
		       destination_ad_account_id, destination_adset_id,
		       destination_template_ad_id, ad_import_status
		FROM ad_imports
		WHERE build_id = $1
	`, buildID).Scan(
		&ad.BuildID, &ad.SourceType, &ad.SourceRecordID, &tableID, &ad.UserID,
		&adID, &ad.AdName, &ad.AdHeadline, &ad.AdBody, &ad.AdLinkURL, &ad.AdMediaType,
		&ad.AdCTALabel, &ad.AdAssetURL, &ad.AdAssetFilename,
		&vertURL, &vertFilename,
		&ad.DestinationAdAccountID, &ad.DestinationAdsetID,
		&ad.DestinationTemplateAdID, &ad.AdImportStatus,
	)
	if err == sql.ErrNoRows {
		return nil, build.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ad import: %w", err)
	}
	ad.SourceTableID = tableID.String
	ad.AdID = adID.String
	ad.AdAssetVerticalURL = vertURL.String
	ad.AdAssetVerticalFilename = vertFilename.String
	return ad, nil
}

// UpdateStatus transitions one import record to a new lifecycle status.
func (r *AdImportRepo) UpdateStatus(ctx context.Context, buildID string, status domain.ImportStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ad_imports SET ad_import_status = $1, updated_at = NOW()
		WHERE build_id = $2
	`, status, buildID)
	if err != nil {
		return fmt.Errorf("update import status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return build.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
