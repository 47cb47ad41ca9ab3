package xttl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	e := newEntry("v", 5*time.Second, now)
	assert.Equal(t, int64(1_700_000_005_000), e.ExpiresAt)

	e = newEntry("v", 250*time.Millisecond, now)
	assert.Equal(t, int64(1_700_000_000_250), e.ExpiresAt)

	assert.Zero(t, newEntry("v", 0, now).ExpiresAt)
	assert.Zero(t, newEntry("v", NoTTL, now).ExpiresAt)
}

func TestEntry_Expired(t *testing.T) {
	now := time.UnixMilli(1_000)

	assert.False(t, Entry[int]{ExpiresAt: 1_000}.Expired(now), "expiring exactly now is still valid")
	assert.True(t, Entry[int]{ExpiresAt: 999}.Expired(now))
	assert.False(t, Entry[int]{ExpiresAt: 1_001}.Expired(now))
	assert.False(t, Entry[int]{}.Expired(now), "no expiry")
}

func TestEntry_ExpiresTime(t *testing.T) {
	_, ok := Entry[int]{}.ExpiresTime()
	assert.False(t, ok)

	at, ok := Entry[int]{ExpiresAt: 1_500}.ExpiresTime()
	require.True(t, ok)
	assert.True(t, at.Equal(time.UnixMilli(1_500)))
}

func TestJSONCodec_WireFormat(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}
	var codec JSONCodec

	data, err := codec.Marshal(Entry[user]{Value: user{Name: "a"}, ExpiresAt: 1730000000123})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":{"name":"a"},"expires":1730000000123}`, string(data))

	data, err = codec.Marshal(Entry[string]{Value: "forever"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"forever"}`, string(data))

	var e Entry[user]
	require.NoError(t, codec.Unmarshal([]byte(`{"value":{"name":"b"},"expires":42}`), &e))
	assert.Equal(t, "b", e.Value.Name)
	assert.Equal(t, int64(42), e.ExpiresAt)
}
