// Package elasticsearch implements the directory store and query log on Elasticsearch.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// repairerDocument is the _source of one document in the repairers index.
type repairerDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postalCode"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Rating      float64   `json:"rating"`
	Location    *geoPoint `json:"location"`
	IsVerified  bool      `json:"isVerified"`
	Specialties []string  `json:"specialties"`
	Services    []string  `json:"services"`
}

func (d repairerDocument) record() models.DirectoryRecord {
	rec := models.DirectoryRecord{
		ID:          d.ID,
		Name:        d.Name,
		Address:     d.Address,
		City:        d.City,
		PostalCode:  d.PostalCode,
		Phone:       d.Phone,
		Email:       d.Email,
		Rating:      d.Rating,
		IsVerified:  d.IsVerified,
		Specialties: d.Specialties,
		Services:    d.Services,
	}
	if d.Location != nil {
		rec.Location = &models.GeoPoint{Lat: d.Location.Lat, Lng: d.Location.Lon}
	}
	return rec
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string           `json:"_id"`
			Source repairerDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// DirectoryStore queries the repairers index.
type DirectoryStore struct {
	client *elasticsearch.Client
	index  string
}

func NewDirectoryStore(client *elasticsearch.Client, index string) *DirectoryStore {
	return &DirectoryStore{client: client, index: index}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// BuildDirectoryQuery renders filter as a bool/filter search body.
func BuildDirectoryQuery(filter models.DirectoryFilter) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"exists": map[string]interface{}{"field": "location"}},
		map[string]interface{}{"range": map[string]interface{}{"rating": map[string]interface{}{"gte": filter.MinRating}}},
	}

	if filter.OnlyVerified {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"isVerified": true}})
	}
	if filter.City != "" {
		filters = append(filters, map[string]interface{}{
			"wildcard": map[string]interface{}{
				"city.keyword": map[string]interface{}{"value": "*" + wildcardEscaper.Replace(filter.City) + "*", "case_insensitive": true},
			},
		})
	}
	if filter.PostalCode != "" {
		filters = append(filters, map[string]interface{}{
			"prefix": map[string]interface{}{"postalCode": map[string]interface{}{"value": filter.PostalCode}},
		})
	}
	if b := filter.Bounds; b != nil {
		filters = append(filters, map[string]interface{}{
			"geo_bounding_box": map[string]interface{}{
				"location": map[string]interface{}{
					"top_left":     map[string]interface{}{"lat": b.MaxLat, "lon": b.MinLng},
					"bottom_right": map[string]interface{}{"lat": b.MinLat, "lon": b.MaxLng},
				},
			},
		})
	}

	return map[string]interface{}{
		"size":  filter.Limit,
		"query": map[string]interface{}{"bool": map[string]interface{}{"filter": filters}},
		"sort": []interface{}{
			map[string]interface{}{"rating": "desc"},
			map[string]interface{}{"id": "asc"},
		},
	}
}

func (s *DirectoryStore) Query(ctx context.Context, filter models.DirectoryFilter) ([]models.DirectoryRecord, error) {
	body, err := json.Marshal(BuildDirectoryQuery(filter))
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError("repairers", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, transportError(ctx, "repairers", err)
	}
	defer res.Body.Close()

	if err := responseError(res, s.index, "repairers"); err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError("repairers", fmt.Errorf("decode response: %w", err))
	}

	records := make([]models.DirectoryRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		if doc.ID == "" {
			doc.ID = hit.ID
		}
		records = append(records, doc.record())
	}
	return records, nil
}

func transportError(ctx context.Context, queryType string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewSearchTimeoutError(queryType)
	}
	return apperrors.NewElasticsearchConnectionFailedError(err)
}

func responseError(res *esapi.Response, index, queryType string) error {
	if !res.IsError() {
		return nil
	}
	if res.StatusCode == http.StatusNotFound {
		return apperrors.NewIndexNotFoundError(index)
	}
	return apperrors.NewSearchQueryFailedError(queryType, fmt.Errorf("elasticsearch returned %s", res.Status()))
}
