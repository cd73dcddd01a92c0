package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/physioai/physioai/internal/models"
	"golang.org/x/sync/singleflight"
)

// reportMapping keeps the final report full-text searchable and everything
// else filterable.
const reportMapping = `{
  "mappings": {
    "properties": {
      "id":                       {"type": "keyword"},
      "storage_uri":              {"type": "keyword"},
      "patient_age":              {"type": "integer"},
      "patient_height_cm":        {"type": "float"},
      "patient_weight_kg":        {"type": "float"},
      "knee_angle_rmse":          {"type": "float"},
      "hip_abduction_angle_rmse": {"type": "float"},
      "final_report":             {"type": "text"},
      "created_at":               {"type": "date"}
    }
  }
}`

// ReportIndex stores generated report metadata in Elasticsearch so past
// reports can be searched by content or demographics.
type ReportIndex struct {
	client *elasticsearch.Client
	index  string
	sf     singleflight.Group // deduplicate concurrent ensure-index calls
}

// NewReportIndex creates an ES client using go-elasticsearch/v8
func NewReportIndex(scheme, host string, port int, user, password string, verifyCerts bool, maxRetries int, index string) (*ReportIndex, error) {
	addr := fmt.Sprintf("%s://%s:%d", scheme, host, port)

	cfg := elasticsearch.Config{
		Addresses:  []string{addr},
		MaxRetries: maxRetries,
	}
	if user != "" {
		cfg.Username = user
		cfg.Password = password
	}
	if !verifyCerts {
		cfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 - user explicitly disabled cert verification
			},
		}
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}
	return &ReportIndex{client: client, index: index}, nil
}

// TestConnection pings the cluster
func (s *ReportIndex) TestConnection(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping error: %s", res.Status())
	}
	return nil
}

// ensureIndex creates the report index with its mapping if it does not exist.
// Concurrent callers share one create via singleflight.
func (s *ReportIndex) ensureIndex(ctx context.Context) error {
	_, err, _ := s.sf.Do(s.index, func() (interface{}, error) {
		res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("index exists check: %w", err)
		}
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			return nil, nil
		}

		createRes, err := s.client.Indices.Create(
			s.index,
			s.client.Indices.Create.WithContext(ctx),
			s.client.Indices.Create.WithBody(strings.NewReader(reportMapping)),
		)
		if err != nil {
			return nil, fmt.Errorf("create index %q: %w", s.index, err)
		}
		defer createRes.Body.Close()
		// A concurrent create from another process is fine.
		if createRes.IsError() && createRes.StatusCode != http.StatusBadRequest {
			return nil, fmt.Errorf("create index %q: %s", s.index, createRes.Status())
		}
		return nil, nil
	})
	return err
}

// IndexReport writes one report document, creating the index on first use.
func (s *ReportIndex) IndexReport(ctx context.Context, doc models.ReportDocument) error {
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index report: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index report: %s", res.Status())
	}
	return nil
}

// Search matches q against final report text, newest first. An empty q
// returns the most recent reports.
func (s *ReportIndex) Search(ctx context.Context, q string, size int) (int64, []models.ReportDocument, error) {
	query := map[string]interface{}{
		"size": size,
		"sort": []map[string]interface{}{
			{"created_at": map[string]string{"order": "desc"}},
		},
	}
	if q != "" {
		query["query"] = map[string]interface{}{
			"match": map[string]interface{}{"final_report": q},
		}
	}

	bodyBytes, err := json.Marshal(query)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.ReportDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]models.ReportDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return parsed.Hits.Total.Value, docs, nil
}
