package processor

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

var ErrProcessingMessageFailed = errors.New("processing the message failed")
var ErrProcessorNotIdempotent = errors.New("message processor is not idempotent")

// Header is one key-value pair attached to a consumed message.
type Header struct {
	Key   string
	Value []byte
}

// Metadata locates a consumed message on its broker.
type Metadata struct {
	Offset    int64
	Partition int
	Timestamp time.Time
	Topic     string
	Key       []byte
	Headers   []Header
}

// InsertBatch is the processed output for one message: encoded rows ready to
// be written to the entity's table. A nil batch means the message produced
// nothing to insert.
type InsertBatch struct {
	Rows [][]byte
}

// MessageProcessor converts one raw message plus its broker metadata into an
// InsertBatch.
type MessageProcessor interface {
	ProcessMessage(message []byte, metadata Metadata) (*InsertBatch, error)
}

// VerifyIdempotency processes the same message twice with identical metadata
// and reports whether both runs produced byte-for-byte identical batches.
// Divergence means the processor leaks internal state or wall-clock time into
// its output and must not feed subscription-observed tables.
func VerifyIdempotency(p MessageProcessor, message []byte, metadata Metadata) error {
	firstBatch, firstErr := p.ProcessMessage(message, metadata)
	if firstErr != nil {
		return errors.Join(ErrProcessingMessageFailed, firstErr)
	}

	secondBatch, secondErr := p.ProcessMessage(message, metadata)
	if secondErr != nil {
		return errors.Join(ErrProcessingMessageFailed, secondErr)
	}

	return compareBatches(firstBatch, secondBatch)
}

func compareBatches(firstBatch *InsertBatch, secondBatch *InsertBatch) error {
	if firstBatch == nil || secondBatch == nil {
		if firstBatch == secondBatch {
			return nil
		}

		return errors.Join(ErrProcessorNotIdempotent, errors.New("only one run produced a batch"))
	}

	if len(firstBatch.Rows) != len(secondBatch.Rows) {
		return errors.Join(
			ErrProcessorNotIdempotent,
			fmt.Errorf("row count diverged between runs: %d vs %d", len(firstBatch.Rows), len(secondBatch.Rows)),
		)
	}

	for idx := range firstBatch.Rows {
		if !bytes.Equal(firstBatch.Rows[idx], secondBatch.Rows[idx]) {
			return errors.Join(ErrProcessorNotIdempotent, fmt.Errorf("row %d diverged between runs", idx))
		}
	}

	return nil
}
