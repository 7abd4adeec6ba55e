package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"chatdesk-go/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	evt := events.DocumentEvent{
		Type:       events.DocumentRegistered,
		DocumentID: "doc-1",
		Name:       "a.pdf",
		Path:       "/uploads/a.pdf",
		Size:       42,
		OccurredAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	msg, err := encode(evt)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, events.DocumentRegistered, string(msg.Headers[0].Value))

	var decoded events.DocumentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt, decoded)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, splitBrokers(""))
}
