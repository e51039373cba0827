package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"reading-effort/internal/common/errors"
)

const sinkElasticsearch = "elasticsearch"

// ElasticsearchPublisher indexes each report as a document keyed by its ID.
type ElasticsearchPublisher struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchPublisher(client *elasticsearch.Client, index string) *ElasticsearchPublisher {
	return &ElasticsearchPublisher{client: client, index: index}
}

func (p *ElasticsearchPublisher) Publish(ctx context.Context, r *Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return errors.NewReportPublishFailedError(sinkElasticsearch, err)
	}

	req := esapi.IndexRequest{
		Index:      p.index,
		DocumentID: r.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return errors.NewReportPublishFailedError(sinkElasticsearch, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewReportPublishFailedError(sinkElasticsearch, fmt.Errorf("index failed: %s", res.String()))
	}
	return nil
}
