package build

import (
	"context"
	"fmt"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/logger"
	"github.com/pablosocial/pablo/internal/transform"
)

// RoutingContext carries the source-specific identifiers that arrive with
// the request rather than inside the payload.
type RoutingContext struct {
	BaseID  string
	TableID string
}

// Result summarizes a successful build creation.
type Result struct {
	Status         string              `json:"status"`
	Message        string              `json:"message"`
	BuildID        string              `json:"build_id"`
	AdName         string              `json:"ad_name"`
	AdImportStatus domain.ImportStatus `json:"ad_import_status"`
}

// transformers is the closed dispatch table from source type to transformer
// constructor. Adding a source means adding exactly one entry here.
var transformers = map[domain.SourceType]func(payload map[string]interface{}, rc RoutingContext, fields transform.FieldMap) transform.Transformer{
	domain.SourceNotion: func(payload map[string]interface{}, _ RoutingContext, fields transform.FieldMap) transform.Transformer {
		return transform.NewNotionTransformer(payload, fields)
	},
	domain.SourceAirtable: func(payload map[string]interface{}, rc RoutingContext, fields transform.FieldMap) transform.Transformer {
		return transform.NewAirtableTransformer(payload, rc.BaseID, rc.TableID, fields)
	},
}

// Service implements build orchestration. It is safe for concurrent use:
// each invocation is independent and shares no mutable state.
type Service struct {
	repo Repository
}

// NewService creates a build service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Process transforms one raw payload into a canonical record and persists
// it. A transformation failure (*domain.ValidationError) aborts before any
// persistence attempt; a persistence failure surfaces as an internal error.
func (s *Service) Process(ctx context.Context, src domain.SourceType, payload map[string]interface{}, userID string, rc RoutingContext, fields transform.FieldMap) (*Result, error) {
	factory, ok := transformers[src]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, src)
	}

	ad, err := factory(payload, rc, fields).Transform(userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateImport(ctx, ad); err != nil {
		return nil, fmt.Errorf("create build: %w", err)
	}

	logger.Info("created build", "build_id", ad.BuildID, "ad_name", ad.AdName, "source", string(src), "user_id", userID)
	return &Result{
		Status:         "success",
		Message:        "Build created successfully",
		BuildID:        ad.BuildID,
		AdName:         ad.AdName,
		AdImportStatus: ad.AdImportStatus,
	}, nil
}

// Build returns one persisted record by build id.
func (s *Service) Build(ctx context.Context, buildID string) (*domain.AdData, error) {
	return s.repo.Get(ctx, buildID)
}

// UpdateStatus transitions one build to a new lifecycle status. Only the
// downstream build consumer calls this; ingestion never mutates records.
func (s *Service) UpdateStatus(ctx context.Context, buildID string, status domain.ImportStatus) error {
	switch status {
	case domain.ImportBuilding, domain.ImportComplete, domain.ImportError:
	default:
		return domain.InvalidField("ad_import_status", fmt.Sprintf("unknown status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, buildID, status); err != nil {
		return err
	}
	logger.Info("build status updated", "build_id", buildID, "status", string(status))
	return nil
}

// ProcessNotion normalizes and persists one Notion page payload.
func (s *Service) ProcessNotion(ctx context.Context, payload map[string]interface{}, userID string, fields transform.FieldMap) (*Result, error) {
	return s.Process(ctx, domain.SourceNotion, payload, userID, RoutingContext{}, fields)
}

// ProcessAirtable normalizes and persists one Airtable record payload.
func (s *Service) ProcessAirtable(ctx context.Context, payload map[string]interface{}, userID, baseID, tableID string, fields transform.FieldMap) (*Result, error) {
	return s.Process(ctx, domain.SourceAirtable, payload, userID, RoutingContext{BaseID: baseID, TableID: tableID}, fields)
}
