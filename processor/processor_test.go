package processor_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamwatch/entity-subscriptions-go/processor"
	"github.com/streamwatch/entity-subscriptions-go/testutil/fixtures"
)

func Test_VerifyIdempotency_AcceptsConformingProcessors(t *testing.T) {
	tests := []struct {
		name      string
		message   []byte
		processor processor.MessageProcessor
	}{
		{
			name:      "errors processor",
			message:   fixtures.RawErrorMessage(),
			processor: &errorsRowProcessor{},
		},
		{
			name:      "transactions processor",
			message:   fixtures.RawTransactionMessage(),
			processor: &transactionsRowProcessor{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			err := processor.VerifyIdempotency(tt.processor, tt.message, metadataForConformanceTest())

			// assert
			assert.NoError(t, err)
		})
	}
}

func Test_MessageProcessor_ProcessingTwiceYieldsIdenticalBatches(t *testing.T) {
	// setup
	p := &errorsRowProcessor{}
	message := fixtures.RawErrorMessage()
	metadata := metadataForConformanceTest()

	// act
	firstBatch, firstErr := p.ProcessMessage(message, metadata)
	secondBatch, secondErr := p.ProcessMessage(message, metadata)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	require.NotNil(t, firstBatch)
	require.Len(t, firstBatch.Rows, 1)
	assert.Contains(t, string(firstBatch.Rows[0]), `"event_id":"9be2ef62-bc0f-42dd-b6c5-9a4b03bc1c84"`)
	assert.Contains(t, string(firstBatch.Rows[0]), `"offset":1000`)
	assert.Equal(t, firstBatch, secondBatch)
}

func Test_VerifyIdempotency_AcceptsProcessorsThatSkipMessages(t *testing.T) {
	// setup
	p := &skippingProcessor{}

	// act
	err := processor.VerifyIdempotency(p, fixtures.RawErrorMessage(), metadataForConformanceTest())

	// assert
	assert.NoError(t, err)
}

func Test_VerifyIdempotency_ShouldFail_WithStatefulProcessor(t *testing.T) {
	// setup
	p := &countingRowProcessor{}

	// act
	err := processor.VerifyIdempotency(p, fixtures.RawErrorMessage(), metadataForConformanceTest())

	// assert
	require.Error(t, err)
	assert.ErrorIs(t, err, processor.ErrProcessorNotIdempotent)
	assert.ErrorContains(t, err, "row 0 diverged")
}

func Test_VerifyIdempotency_ShouldFail_WhenRowCountsDiverge(t *testing.T) {
	// setup
	p := &growingRowProcessor{}

	// act
	err := processor.VerifyIdempotency(p, fixtures.RawErrorMessage(), metadataForConformanceTest())

	// assert
	require.Error(t, err)
	assert.ErrorIs(t, err, processor.ErrProcessorNotIdempotent)
	assert.ErrorContains(t, err, "row count diverged between runs: 1 vs 2")
}

func Test_VerifyIdempotency_ShouldFail_WhenOnlyOneRunProducesABatch(t *testing.T) {
	// setup
	p := &firstRunOnlyProcessor{}

	// act
	err := processor.VerifyIdempotency(p, fixtures.RawErrorMessage(), metadataForConformanceTest())

	// assert
	require.Error(t, err)
	assert.ErrorIs(t, err, processor.ErrProcessorNotIdempotent)
	assert.ErrorContains(t, err, "only one run produced a batch")
}

func Test_VerifyIdempotency_ShouldFail_WhenProcessingFails(t *testing.T) {
	// setup
	p := &failingProcessor{}

	// act
	err := processor.VerifyIdempotency(p, []byte(`not json`), metadataForConformanceTest())

	// assert
	require.Error(t, err)
	assert.ErrorIs(t, err, processor.ErrProcessingMessageFailed)
	assert.NotErrorIs(t, err, processor.ErrProcessorNotIdempotent)
}

/***** fixture processors *****/

// errorsRowProcessor extracts one storable row per error message.
// It only touches the message and the metadata, so it is idempotent.
type errorsRowProcessor struct{}

type rawErrorMessage struct {
	EventID        string            `json:"event_id"`
	ProjectID      int64             `json:"project_id"`
	OrganizationID int64             `json:"organization_id"`
	Platform       string            `json:"platform"`
	Message        string            `json:"message"`
	Timestamp      string            `json:"timestamp"`
	Tags           map[string]string `json:"tags"`
}

type errorRow struct {
	EventID     string `json:"event_id"`
	ProjectID   int64  `json:"project_id"`
	OrgID       int64  `json:"org_id"`
	Platform    string `json:"platform"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
	Release     string `json:"release"`
	Offset      int64  `json:"offset"`
	Partition   int    `json:"partition"`
}

func (p *errorsRowProcessor) ProcessMessage(message []byte, metadata processor.Metadata) (*processor.InsertBatch, error) {
	var raw rawErrorMessage
	if err := jsoniter.ConfigFastest.Unmarshal(message, &raw); err != nil {
		return nil, err
	}

	row := errorRow{
		EventID:     raw.EventID,
		ProjectID:   raw.ProjectID,
		OrgID:       raw.OrganizationID,
		Platform:    raw.Platform,
		Message:     raw.Message,
		Timestamp:   raw.Timestamp,
		Environment: raw.Tags["environment"],
		Release:     raw.Tags["release"],
		Offset:      metadata.Offset,
		Partition:   metadata.Partition,
	}

	encoded, err := jsoniter.ConfigFastest.Marshal(row)
	if err != nil {
		return nil, err
	}

	return &processor.InsertBatch{Rows: [][]byte{encoded}}, nil
}

// transactionsRowProcessor extracts one row for the transaction and one per span.
type transactionsRowProcessor struct{}

type rawTransactionMessage struct {
	EventID     string    `json:"event_id"`
	ProjectID   int64     `json:"project_id"`
	Transaction string    `json:"transaction"`
	StartTS     string    `json:"start_ts"`
	FinishTS    string    `json:"finish_ts"`
	DurationMS  float64   `json:"duration_ms"`
	Spans       []rawSpan `json:"spans"`
}

type rawSpan struct {
	SpanID string `json:"span_id"`
	Op     string `json:"op"`
}

type transactionRow struct {
	EventID     string  `json:"event_id"`
	ProjectID   int64   `json:"project_id"`
	Transaction string  `json:"transaction"`
	FinishTS    string  `json:"finish_ts"`
	DurationMS  float64 `json:"duration_ms"`
	Offset      int64   `json:"offset"`
	Partition   int     `json:"partition"`
}

type spanRow struct {
	EventID string `json:"event_id"`
	SpanID  string `json:"span_id"`
	Op      string `json:"op"`
	Offset  int64  `json:"offset"`
}

func (p *transactionsRowProcessor) ProcessMessage(message []byte, metadata processor.Metadata) (*processor.InsertBatch, error) {
	var raw rawTransactionMessage
	if err := jsoniter.ConfigFastest.Unmarshal(message, &raw); err != nil {
		return nil, err
	}

	batch := &processor.InsertBatch{}

	encoded, err := jsoniter.ConfigFastest.Marshal(transactionRow{
		EventID:     raw.EventID,
		ProjectID:   raw.ProjectID,
		Transaction: raw.Transaction,
		FinishTS:    raw.FinishTS,
		DurationMS:  raw.DurationMS,
		Offset:      metadata.Offset,
		Partition:   metadata.Partition,
	})
	if err != nil {
		return nil, err
	}

	batch.Rows = append(batch.Rows, encoded)

	for _, span := range raw.Spans {
		encodedSpan, spanErr := jsoniter.ConfigFastest.Marshal(spanRow{
			EventID: raw.EventID,
			SpanID:  span.SpanID,
			Op:      span.Op,
			Offset:  metadata.Offset,
		})
		if spanErr != nil {
			return nil, spanErr
		}

		batch.Rows = append(batch.Rows, encodedSpan)
	}

	return batch, nil
}

// countingRowProcessor leaks its call count into the emitted row.
type countingRowProcessor struct {
	calls int
}

func (p *countingRowProcessor) ProcessMessage(_ []byte, _ processor.Metadata) (*processor.InsertBatch, error) {
	p.calls++

	row := fmt.Sprintf(`{"attempt":%d}`, p.calls)

	return &processor.InsertBatch{Rows: [][]byte{[]byte(row)}}, nil
}

// growingRowProcessor emits one more row on every call.
type growingRowProcessor struct {
	calls int
}

func (p *growingRowProcessor) ProcessMessage(_ []byte, _ processor.Metadata) (*processor.InsertBatch, error) {
	p.calls++

	batch := &processor.InsertBatch{}
	for i := 0; i < p.calls; i++ {
		batch.Rows = append(batch.Rows, []byte(`{}`))
	}

	return batch, nil
}

// firstRunOnlyProcessor produces a batch on the first call and skips afterwards.
type firstRunOnlyProcessor struct {
	calls int
}

func (p *firstRunOnlyProcessor) ProcessMessage(_ []byte, _ processor.Metadata) (*processor.InsertBatch, error) {
	p.calls++

	if p.calls > 1 {
		return nil, nil
	}

	return &processor.InsertBatch{Rows: [][]byte{[]byte(`{}`)}}, nil
}

type failingProcessor struct{}

func (p *failingProcessor) ProcessMessage(_ []byte, _ processor.Metadata) (*processor.InsertBatch, error) {
	return nil, errors.New("malformed message")
}

// skippingProcessor never produces a batch.
type skippingProcessor struct{}

func (p *skippingProcessor) ProcessMessage(_ []byte, _ processor.Metadata) (*processor.InsertBatch, error) {
	return nil, nil
}

func metadataForConformanceTest() processor.Metadata {
	return processor.Metadata{
		Offset:    1000,
		Partition: 1,
		Timestamp: time.Date(2026, time.August, 18, 9, 30, 0, 0, time.UTC),
		Topic:     "",
		Key:       nil,
		Headers:   nil,
	}
}
