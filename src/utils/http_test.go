package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSONError(rec, "bad things", http.StatusConflict)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad things"}`, rec.Body.String())
}

func TestGenerateETag(t *testing.T) {
	a, err := GenerateETag(map[string]float64{"aum": 1})
	require.NoError(t, err)
	b, err := GenerateETag(map[string]float64{"aum": 1})
	require.NoError(t, err)
	c, err := GenerateETag(map[string]float64{"aum": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)

	_, err = GenerateETag(func() {})
	assert.Error(t, err)
}
