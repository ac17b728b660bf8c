package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"funnel_backend/internal/adapters/storage"
	"funnel_backend/internal/leads/domain"
	"funnel_backend/internal/leads/ports"

	"github.com/google/uuid"
)

const (
	archiveContentType = "application/json"
	archiveTimeLayout  = "20060102T150405.000000000Z"
)

// archivedScore is the JSON document written for each superseded result.
type archivedScore struct {
	LeadID        uuid.UUID                        `json:"leadId"`
	OwnerID       uuid.UUID                        `json:"ownerId"`
	TotalScore    int                              `json:"totalScore"`
	Breakdown     map[string]domain.BreakdownEntry `json:"breakdown"`
	Qualification string                           `json:"qualification"`
	CalculatedAt  time.Time                        `json:"calculatedAt"`
	Version       string                           `json:"version"`
	RuleCount     int                              `json:"ruleCount"`
}

// ScoreArchiver stores superseded score results as JSON objects keyed
// owner/lead/calculatedAt, so a lead's history lists in calculation order.
type ScoreArchiver struct {
	store  storage.StorageService
	bucket string
}

// NewScoreArchiver creates the archiver and makes sure its bucket exists.
func NewScoreArchiver(ctx context.Context, store storage.StorageService, bucket string) (*ScoreArchiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("score archive bucket not configured")
	}
	if err := store.EnsureBucketExists(ctx, bucket); err != nil {
		return nil, err
	}
	return &ScoreArchiver{store: store, bucket: bucket}, nil
}

var _ ports.ScoreArchiver = (*ScoreArchiver)(nil)

func leadPrefix(ownerID, leadID uuid.UUID) string {
	return ownerID.String() + "/" + leadID.String() + "/"
}

func archiveKey(ownerID uuid.UUID, result domain.ScoreResult) string {
	return leadPrefix(ownerID, result.LeadID) + result.CalculatedAt.UTC().Format(archiveTimeLayout) + ".json"
}

func (a *ScoreArchiver) ArchiveScore(ctx context.Context, ownerID uuid.UUID, result domain.ScoreResult) error {
	data, err := json.Marshal(archivedScore{
		LeadID:        result.LeadID,
		OwnerID:       ownerID,
		TotalScore:    result.TotalScore,
		Breakdown:     result.Breakdown,
		Qualification: string(result.Qualification),
		CalculatedAt:  result.CalculatedAt,
		Version:       result.Version,
		RuleCount:     result.RuleCount,
	})
	if err != nil {
		return fmt.Errorf("encode archived score: %w", err)
	}
	return a.store.PutObject(ctx, a.bucket, archiveKey(ownerID, result), archiveContentType, bytes.NewReader(data), int64(len(data)))
}

func (a *ScoreArchiver) ScoreHistory(ctx context.Context, ownerID, leadID uuid.UUID) ([]domain.ScoreResult, error) {
	objects, err := a.store.ListObjects(ctx, a.bucket, leadPrefix(ownerID, leadID))
	if err != nil {
		return nil, err
	}

	results := make([]domain.ScoreResult, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		result, err := a.read(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (a *ScoreArchiver) read(ctx context.Context, key string) (domain.ScoreResult, error) {
	rc, err := a.store.DownloadFile(ctx, a.bucket, key)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("read archived score %s: %w", key, err)
	}
	var doc archivedScore
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.ScoreResult{}, fmt.Errorf("decode archived score %s: %w", key, err)
	}
	return domain.ScoreResult{
		LeadID:        doc.LeadID,
		TotalScore:    doc.TotalScore,
		Breakdown:     doc.Breakdown,
		Qualification: domain.Qualification(doc.Qualification),
		CalculatedAt:  doc.CalculatedAt,
		Version:       doc.Version,
		RuleCount:     doc.RuleCount,
	}, nil
}
