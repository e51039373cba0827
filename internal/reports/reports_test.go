package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reading-effort/internal/common/errors"
	"reading-effort/internal/common/logger"
)

func sampleReport() *Report {
	r := NewReport("correlate", "csv:onestop.csv")
	r.MatchedCount = 12
	r.TotalWords = 14
	r.Correlations["CURRENT_FIX_DURATION"] = 0.42
	r.TokenColumn = "paragraph"
	return r
}

func newESClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearchPublisher(t *testing.T) {
	r := sampleReport()

	var gotPath, gotMethod string
	var gotDoc Report
	client := newESClient(t, func(w http.ResponseWriter, req *http.Request) {
		gotPath, gotMethod = req.URL.Path, req.Method
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &gotDoc)

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"_index":"effort-reports","_id":%q,"result":"created"}`, r.ID)
	})

	err := NewElasticsearchPublisher(client, "effort-reports").Publish(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/effort-reports/_doc/"+r.ID, gotPath)
	assert.Equal(t, 12, gotDoc.MatchedCount)
	assert.Equal(t, 0.42, gotDoc.Correlations["CURRENT_FIX_DURATION"])
}

func TestElasticsearchPublisher_ErrorResponse(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"mapper_parsing_exception"},"status":400}`))
	})

	err := NewElasticsearchPublisher(client, "effort-reports").Publish(context.Background(), sampleReport())
	assert.True(t, errors.IsCode(err, errors.ErrCodeReportPublishFailed))
}

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSNSPublisher(t *testing.T) {
	r := sampleReport()
	var got *sns.PublishInput
	client := &mockSNS{PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
		got = params
		return &sns.PublishOutput{}, nil
	}}

	err := NewSNSPublisher(client, "arn:aws:sns:eu-west-1:123456789012:effort").Publish(context.Background(), r)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "arn:aws:sns:eu-west-1:123456789012:effort", *got.TopicArn)
	assert.Equal(t, "correlate", *got.MessageAttributes["operation"].StringValue)

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(*got.Message), &decoded))
	assert.Equal(t, r.ID, decoded.ID)
}

func TestSNSPublisher_Error(t *testing.T) {
	client := &mockSNS{PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, fmt.Errorf("AuthorizationError")
	}}

	err := NewSNSPublisher(client, "arn").Publish(context.Background(), sampleReport())
	assert.True(t, errors.IsCode(err, errors.ErrCodeReportPublishFailed))
}

type recordingPublisher struct {
	calls int
	err   error
}

func (p *recordingPublisher) Publish(context.Context, *Report) error {
	p.calls++
	return p.err
}

func TestMultiPublisher(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: fmt.Errorf("sink down")}
	last := &recordingPublisher{}

	m := NewMultiPublisher(logger.NewTestLogger(t), ok, failing, last)
	err := m.Publish(context.Background(), sampleReport())

	assert.ErrorIs(t, err, failing.err)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, last.calls)
	assert.Equal(t, 3, m.Len())

	assert.NoError(t, NewMultiPublisher(logger.NewTestLogger(t)).Publish(context.Background(), sampleReport()))
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), nil))
}
