package pub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokend/internal/ident"
	"tokend/internal/types"
)

type capturePub struct {
	arn      string
	payloads [][]byte
	err      error
}

func (p *capturePub) PublishRaw(ctx context.Context, arn string, payload []byte) error {
	p.arn = arn
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestNewEventsDisabled(t *testing.T) {
	assert.Nil(t, NewEvents(nil, "arn:topic"))
	assert.Nil(t, NewEvents(&capturePub{}, ""))

	// Emit on a disabled publisher is a harmless no-op.
	var e *Events
	e.Emit(context.Background(), EventCreated, types.TokenRecord{ID: ident.New()})
}

func TestEmit(t *testing.T) {
	p := &capturePub{}
	e := NewEvents(p, "arn:topic")

	rec := types.TokenRecord{
		ID:        ident.New(),
		Owner:     "alice",
		ExpiresAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	e.Emit(context.Background(), EventUpdated, rec)

	require.Len(t, p.payloads, 1)
	assert.Equal(t, "arn:topic", p.arn)

	var evt lifecycleEvent
	require.NoError(t, json.Unmarshal(p.payloads[0], &evt))
	assert.Equal(t, EventUpdated, evt.Event)
	assert.Equal(t, rec.ID.String(), evt.ID)
	assert.Equal(t, "alice", evt.Owner)
	assert.Equal(t, rec.ExpiresAt.Unix(), evt.ExpiresAt)
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	p := &capturePub{err: errors.New("sns down")}
	e := NewEvents(p, "arn:topic")

	// Must not panic or surface the error.
	e.Emit(context.Background(), EventDeleted, types.TokenRecord{ID: ident.New()})
	assert.Len(t, p.payloads, 1)
}
