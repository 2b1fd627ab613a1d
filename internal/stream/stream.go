// Package stream drains SelectObjectContent event streams.
package stream

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Drain errors.
var (
	// ErrTruncated indicates the event stream ended without an End event,
	// meaning the service did not confirm the full result was delivered.
	ErrTruncated = errors.New("select stream truncated: no end event received")
)

// Events is the part of s3.SelectObjectContentEventStream the drain loop
// needs. Tests substitute channel-backed fakes.
type Events interface {
	// Events returns the channel of stream events. The channel is closed
	// when the stream ends, normally or otherwise.
	Events() <-chan types.SelectObjectContentEventStream

	// Close releases the stream. Idempotent.
	Close() error

	// Err returns the terminal stream error, if any. Only meaningful after
	// the events channel has closed.
	Err() error
}

// Callbacks receive progress and stats events during a drain.
// Either or both may be nil.
type Callbacks struct {
	OnProgress func(types.Progress)
	OnStats    func(types.Stats)
}

// Drain consumes the event stream to completion and returns the
// concatenated Records payloads.
//
// The service terminates every successful response with an End event; if
// the channel closes without one and the stream itself reports no error,
// Drain returns ErrTruncated so a silently cut connection cannot be
// mistaken for a complete result.
func Drain(ctx context.Context, es Events, cb Callbacks) ([]byte, error) {
	defer func() { _ = es.Close() }()

	var payload []byte
	ended := false

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-es.Events():
			if !ok {
				if err := es.Err(); err != nil {
					return nil, err
				}
				if !ended {
					return nil, ErrTruncated
				}
				return payload, nil
			}
			switch v := event.(type) {
			case *types.SelectObjectContentEventStreamMemberRecords:
				payload = append(payload, v.Value.Payload...)
			case *types.SelectObjectContentEventStreamMemberProgress:
				if cb.OnProgress != nil && v.Value.Details != nil {
					cb.OnProgress(*v.Value.Details)
				}
			case *types.SelectObjectContentEventStreamMemberStats:
				if cb.OnStats != nil && v.Value.Details != nil {
					cb.OnStats(*v.Value.Details)
				}
			case *types.SelectObjectContentEventStreamMemberEnd:
				ended = true
			}
			// Continuation events are keep-alives; nothing to do.
		}
	}
}
