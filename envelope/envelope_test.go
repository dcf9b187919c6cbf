package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestSuccessRoundTrip(t *testing.T) {
	b := NewBuilder("drive", WithClock(fixedClock()))
	data := map[string]any{"items": []any{map[string]any{"id": "1"}}}

	env := b.Success(data)

	assert.False(t, env.IsError)
	assert.Equal(t, data, env.StructuredContent)
	require.Len(t, env.Content, 1)
	assert.Equal(t, BlockText, env.Content[0].Type)
	assert.Contains(t, env.Content[0].Text, `"id": "1"`)
	require.NotNil(t, env.Meta)
	assert.Equal(t, "drive", env.Meta.Service)
	assert.Equal(t, fixedClock()(), env.Meta.Timestamp)
}

func TestErrorEnvelope(t *testing.T) {
	b := NewBuilder("drive", WithClock(fixedClock()))

	env := b.Error("folder not found")

	assert.True(t, env.IsError)
	assert.Nil(t, env.StructuredContent)
	assert.Equal(t, "folder not found", env.Text())
}

func TestErrorfFormats(t *testing.T) {
	b := NewBuilder("drive")

	env := b.Errorf("unknown action: %s", "rename")
	assert.Equal(t, "unknown action: rename", env.Text())
}

func TestWithMetaMergesNonDestructively(t *testing.T) {
	b := NewBuilder("drive", WithClock(fixedClock()))
	env := b.Success(map[string]any{"ok": true})

	WithMeta(env, map[string]any{"requestId": "r-1"})
	WithMeta(env, map[string]any{"accountId": "a-1"})

	assert.Equal(t, "r-1", env.Meta.Extra["requestId"])
	assert.Equal(t, "a-1", env.Meta.Extra["accountId"])
	// Named fields survive merging.
	assert.Equal(t, "drive", env.Meta.Service)
}

func TestWithMetaOverridesExplicitly(t *testing.T) {
	env := NewBuilder("x").Success(nil)

	WithMeta(env, map[string]any{"page": 1})
	WithMeta(env, map[string]any{"page": 2})

	assert.Equal(t, 2, env.Meta.Extra["page"])
}

func TestWireShape(t *testing.T) {
	b := NewBuilder("slack", WithClock(fixedClock()))
	env := WithAction(b.Success(map[string]any{"ok": true}), "post_message")
	WithMeta(env, map[string]any{"requestId": "r-9"})

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, decoded, "content")
	assert.Equal(t, false, decoded["isError"])
	assert.Contains(t, decoded, "structuredContent")

	meta, ok := decoded["_meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "slack", meta["service"])
	assert.Equal(t, "post_message", meta["action"])
	assert.Equal(t, "r-9", meta["requestId"])
	assert.NotEmpty(t, meta["timestamp"])
}

func TestTextOnErrorEnvelopeNeverEmpty(t *testing.T) {
	env := NewBuilder("x").Error("boom")
	assert.NotEmpty(t, env.Text())
}

func TestSuccessWithUnmarshalableData(t *testing.T) {
	// Channels cannot marshal; the envelope still gets readable text.
	env := NewBuilder("x").Success(map[string]any{"ch": make(chan int)})
	assert.False(t, env.IsError)
	assert.NotEmpty(t, env.Content[0].Text)
}
