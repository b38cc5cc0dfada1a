package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberDecode(t *testing.T) {
	var req JoinRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"a","elo":"1500","ping":42}`), &req))

	elo, err := req.Elo.Int()
	require.NoError(t, err)
	assert.Equal(t, 1500, elo)

	ping, err := req.Ping.Int()
	require.NoError(t, err)
	assert.Equal(t, 42, ping)
}

func TestNumberRejectsText(t *testing.T) {
	var req JoinRequest
	err := json.Unmarshal([]byte(`{"name":"a","elo":"abc","ping":1}`), &req)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"name":"a","elo":true,"ping":1}`), &req)
	assert.Error(t, err)
}

func TestNumberMissing(t *testing.T) {
	var req JoinRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"a"}`), &req))
	_, err := req.Elo.Int()
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestNumberFloatTruncates(t *testing.T) {
	v, err := Number("1500.9").Int()
	require.NoError(t, err)
	assert.Equal(t, 1500, v)
}
