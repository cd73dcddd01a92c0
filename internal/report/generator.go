// Package report turns a metrics summary into a persisted chain-of-thought
// physiotherapy report: prompt construction, schema-constrained inference,
// upload to object storage.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/physioai/physioai/internal/models"
	"github.com/rs/zerolog/log"
)

// Inferencer makes one schema-constrained inference call. The returned bytes
// are the JSON object conforming to the given schema.
type Inferencer interface {
	GenerateStructured(ctx context.Context, system, prompt, imageURL, schemaName string, schema map[string]interface{}) ([]byte, error)
}

// Uploader persists a local file to object storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, bucket, key string) error
	URI(bucket, key string) string
}

// Indexer records report metadata for later search. Optional.
type Indexer interface {
	IndexReport(ctx context.Context, doc models.ReportDocument) error
}

// Generator is the report pipeline with its collaborators injected so each
// can be substituted with a test double.
type Generator struct {
	llm   Inferencer
	store Uploader
	index Indexer // nil when the report index is disabled
}

func NewGenerator(llm Inferencer, store Uploader, index Indexer) *Generator {
	return &Generator{llm: llm, store: store, index: index}
}

// Generate runs the full pipeline for one patient/session: build the prompt,
// call the inference endpoint, decode the structured output, upload the
// serialized report to bucket/path, and return the artifact. Any step failing
// aborts the rest; no retries, no partial results. The uploaded object is the
// report object itself, serialized once with indentation.
func (g *Generator) Generate(ctx context.Context, patient models.PatientInfo, m models.MetricsSummary, animationURL, bucket, path string) (*models.ReportArtifact, error) {
	prompt := BuildPrompt(patient, m)

	raw, err := g.llm.GenerateStructured(ctx, SystemPrompt, prompt, animationURL, SchemaName, Schema())
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	var rep models.ChainOfThoughtReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("decode report output: %w", err)
	}

	reportJSON, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize report: %w", err)
	}

	if err := g.uploadReport(ctx, reportJSON, bucket, path); err != nil {
		return nil, err
	}

	uri := g.store.URI(bucket, path)
	log.Info().Str("storage_uri", uri).Int("steps", len(rep.Steps)).Msg("physiotherapy report uploaded")

	if g.index != nil {
		doc := models.ReportDocument{
			ID:                    uuid.NewString(),
			StorageURI:            uri,
			PatientAge:            patient.Age,
			PatientHeightCM:       patient.HeightCM,
			PatientWeightKG:       patient.WeightKG,
			KneeAngleRMSE:         m.KneeAngleRMSE,
			HipAbductionAngleRMSE: m.HipAbductionAngleRMSE,
			FinalReport:           rep.FinalReport,
			CreatedAt:             time.Now().UTC(),
		}
		// Indexing is auxiliary: a miss must not fail a report that is
		// already durably stored.
		if err := g.index.IndexReport(ctx, doc); err != nil {
			log.Warn().Err(err).Str("storage_uri", uri).Msg("report index write failed")
		}
	}

	return &models.ReportArtifact{
		Prompt:     prompt,
		Report:     rep,
		ReportJSON: string(reportJSON),
		StorageURI: uri,
	}, nil
}

// uploadReport stages the serialized report in a temp file and uploads it.
// The temp file is removed on every exit path.
func (g *Generator) uploadReport(ctx context.Context, reportJSON []byte, bucket, path string) error {
	f, err := os.CreateTemp("", "physio-report-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if _, err := f.Write(reportJSON); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := g.store.Upload(ctx, tmpPath, bucket, path); err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	return nil
}
