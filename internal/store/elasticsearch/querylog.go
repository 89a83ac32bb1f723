package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// QueryLog indexes one document per search, keyed by entry id.
type QueryLog struct {
	client *elasticsearch.Client
	index  string
}

func NewQueryLog(client *elasticsearch.Client, index string) *QueryLog {
	return &QueryLog{client: client, index: index}
}

func (l *QueryLog) Write(ctx context.Context, entry models.QueryLogEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewQueryLogWriteFailedError(err)
	}

	req := esapi.IndexRequest{
		Index:      l.index,
		DocumentID: entry.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, l.client)
	if err != nil {
		return apperrors.NewQueryLogWriteFailedError(transportError(ctx, "search-queries", err))
	}
	defer res.Body.Close()

	if err := responseError(res, l.index, "search-queries"); err != nil {
		return apperrors.NewQueryLogWriteFailedError(err)
	}
	return nil
}
