package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecorder_SmallChangesStayPlain(t *testing.T) {
	r, err := NewAuditRecorder(nil, 0)
	require.NoError(t, err)

	plain, compressed, algo, err := r.encodeChanges(map[string]any{"grand_total": "10.00"})
	require.NoError(t, err)

	assert.Equal(t, CompressionNone, algo)
	assert.Nil(t, compressed)
	assert.JSONEq(t, `{"grand_total":"10.00"}`, string(plain))
}

func TestAuditRecorder_LargeChangesRoundTripThroughZstd(t *testing.T) {
	r, err := NewAuditRecorder(nil, 64)
	require.NoError(t, err)

	changes := map[string]any{"customer_name": strings.Repeat("a", 500)}
	plain, compressed, algo, err := r.encodeChanges(changes)
	require.NoError(t, err)
	require.Equal(t, CompressionZstd, algo)
	assert.Nil(t, plain)
	assert.Less(t, len(compressed), 500)

	decoded, err := r.decodeChanges(auditRow{ChangesCompressed: compressed, CompressionAlgo: algo})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(decoded, &got))
	assert.Equal(t, changes, got)
}
