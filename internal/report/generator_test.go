package report_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/physioai/physioai/internal/models"
	"github.com/physioai/physioai/internal/report"
)

type fakeInferencer struct {
	out       []byte
	err       error
	gotSystem string
	gotPrompt string
	gotImage  string
	gotSchema map[string]interface{}
	callCount int
}

func (f *fakeInferencer) GenerateStructured(ctx context.Context, system, prompt, imageURL, schemaName string, schema map[string]interface{}) ([]byte, error) {
	f.callCount++
	f.gotSystem = system
	f.gotPrompt = prompt
	f.gotImage = imageURL
	f.gotSchema = schema
	return f.out, f.err
}

type fakeUploader struct {
	err       error
	calls     int
	gotBucket string
	gotKey    string
	gotPath   string
	gotBody   []byte
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, bucket, key string) error {
	f.calls++
	f.gotPath = localPath
	f.gotBucket = bucket
	f.gotKey = key
	body, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.gotBody = body
	return f.err
}

func (f *fakeUploader) URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

type fakeIndexer struct {
	err  error
	docs []models.ReportDocument
}

func (f *fakeIndexer) IndexReport(ctx context.Context, doc models.ReportDocument) error {
	f.docs = append(f.docs, doc)
	return f.err
}

func wellFormedOutput(t *testing.T) []byte {
	t.Helper()
	out, err := json.Marshal(models.ChainOfThoughtReport{
		Steps: []models.ReportStep{
			{Explanation: "Left wrist drifts outward during the reach.", Suggestion: "Keep the wrist stacked over the elbow."},
		},
		FinalReport: "OK",
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestGenerate_Success(t *testing.T) {
	llm := &fakeInferencer{out: wellFormedOutput(t)}
	store := &fakeUploader{}
	gen := report.NewGenerator(llm, store, nil)

	artifact, err := gen.Generate(context.Background(), testPatient(), testSummary(),
		"https://example.com/overlay.gif", "physio-reports", "sessions/42/report.json")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if artifact.StorageURI != "s3://physio-reports/sessions/42/report.json" {
		t.Errorf("StorageURI = %q", artifact.StorageURI)
	}
	if artifact.Prompt != report.BuildPrompt(testPatient(), testSummary()) {
		t.Error("artifact prompt differs from built prompt")
	}
	if llm.gotSystem != report.SystemPrompt {
		t.Errorf("system prompt = %q", llm.gotSystem)
	}
	if llm.gotImage != "https://example.com/overlay.gif" {
		t.Errorf("image url = %q", llm.gotImage)
	}

	// report_json must round-trip to the decoded report
	var decoded models.ChainOfThoughtReport
	if err := json.Unmarshal([]byte(artifact.ReportJSON), &decoded); err != nil {
		t.Fatalf("unmarshal report_json: %v", err)
	}
	if !reflect.DeepEqual(decoded, artifact.Report) {
		t.Errorf("report_json round-trip mismatch: %+v vs %+v", decoded, artifact.Report)
	}
	if decoded.FinalReport != "OK" || len(decoded.Steps) != 1 {
		t.Errorf("unexpected report content: %+v", decoded)
	}

	// uploaded bytes are the single-encoded report object
	if store.calls != 1 {
		t.Fatalf("upload calls = %d, want 1", store.calls)
	}
	var uploaded models.ChainOfThoughtReport
	if err := json.Unmarshal(store.gotBody, &uploaded); err != nil {
		t.Fatalf("uploaded body is not the report object: %v", err)
	}
	if !reflect.DeepEqual(uploaded, artifact.Report) {
		t.Error("uploaded object differs from decoded report")
	}
	if store.gotBucket != "physio-reports" || store.gotKey != "sessions/42/report.json" {
		t.Errorf("uploaded to %s/%s", store.gotBucket, store.gotKey)
	}
}

func TestGenerate_TempFileRemoved(t *testing.T) {
	llm := &fakeInferencer{out: wellFormedOutput(t)}
	store := &fakeUploader{}
	gen := report.NewGenerator(llm, store, nil)

	if _, err := gen.Generate(context.Background(), testPatient(), testSummary(),
		"https://example.com/overlay.gif", "b", "k"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := os.Stat(store.gotPath); !os.IsNotExist(err) {
		t.Errorf("temp file %s still exists after generate", store.gotPath)
	}
}

func TestGenerate_MalformedOutputNoUpload(t *testing.T) {
	llm := &fakeInferencer{out: []byte("I am not JSON")}
	store := &fakeUploader{}
	gen := report.NewGenerator(llm, store, nil)

	_, err := gen.Generate(context.Background(), testPatient(), testSummary(),
		"https://example.com/overlay.gif", "b", "k")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "decode report output") {
		t.Errorf("err = %v, want decode failure", err)
	}
	if store.calls != 0 {
		t.Errorf("upload attempted %d times after decode failure", store.calls)
	}
}

func TestGenerate_InferenceErrorPropagates(t *testing.T) {
	inferErr := errors.New("quota exceeded")
	llm := &fakeInferencer{err: inferErr}
	store := &fakeUploader{}
	gen := report.NewGenerator(llm, store, nil)

	_, err := gen.Generate(context.Background(), testPatient(), testSummary(),
		"https://example.com/overlay.gif", "b", "k")
	if !errors.Is(err, inferErr) {
		t.Fatalf("err = %v, want wrapped %v", err, inferErr)
	}
	if store.calls != 0 {
		t.Error("upload attempted after inference failure")
	}
}

func TestGenerate_UploadErrorPropagates(t *testing.T) {
	uploadErr := errors.New("access denied")
	llm := &fakeInferencer{out: wellFormedOutput(t)}
	store := &fakeUploader{err: uploadErr}
	gen := report.NewGenerator(llm, store, nil)

	_, err := gen.Generate(context.Background(), testPatient(), testSummary(),
		"https://example.com/overlay.gif", "b", "k")
	if !errors.Is(err, uploadErr) {
		t.Fatalf("err = %v, want wrapped %v", err, uploadErr)
	}
	if _, statErr := os.Stat(store.gotPath); !os.IsNotExist(statErr) {
		t.Errorf("temp file %s leaked after upload failure", store.gotPath)
	}
}

func TestGenerate_IndexFailureDoesNotFail(t *testing.T) {
	llm := &fakeInferencer{out: wellFormedOutput(t)}
	store := &fakeUploader{}
	index := &fakeIndexer{err: errors.New("cluster red")}
	gen := report.NewGenerator(llm, store, index)

	artifact, err := gen.Generate(context.Background(), testPatient(), testSummary(),
		"https://example.com/overlay.gif", "b", "k")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if artifact.StorageURI != "s3://b/k" {
		t.Errorf("StorageURI = %q", artifact.StorageURI)
	}
}

func TestGenerate_IndexedDocument(t *testing.T) {
	llm := &fakeInferencer{out: wellFormedOutput(t)}
	store := &fakeUploader{}
	index := &fakeIndexer{}
	gen := report.NewGenerator(llm, store, index)

	if _, err := gen.Generate(context.Background(), testPatient(), testSummary(),
		"https://example.com/overlay.gif", "b", "k"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(index.docs) != 1 {
		t.Fatalf("indexed %d docs, want 1", len(index.docs))
	}
	doc := index.docs[0]
	if doc.StorageURI != "s3://b/k" || doc.FinalReport != "OK" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.ID == "" || doc.CreatedAt.IsZero() {
		t.Errorf("document missing id or timestamp: %+v", doc)
	}
	if doc.KneeAngleRMSE != 5.123 || doc.PatientAge != 34 {
		t.Errorf("document metadata mismatch: %+v", doc)
	}
}

func TestSchema_Strict(t *testing.T) {
	s := report.Schema()
	if s["additionalProperties"] != false {
		t.Error("schema must forbid additional properties")
	}
	props, ok := s["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("schema has no properties map")
	}
	if _, ok := props["steps"]; !ok {
		t.Error("schema missing steps")
	}
	if _, ok := props["final_report"]; !ok {
		t.Error("schema missing final_report")
	}
}
