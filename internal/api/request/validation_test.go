package request

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireID_Valid(t *testing.T) {
	result, err := RequireID("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", result)
}

func TestRequireID_Empty(t *testing.T) {
	_, err := RequireID("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required ID")
}

func TestDecode_InvalidJSON(t *testing.T) {
	r, err := http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{not valid json}`))
	require.NoError(t, err)

	var payload CreateHerd
	err = Decode(r, &payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestDecode_CreateHerd(t *testing.T) {
	body := `{"name":"billing","pgdata":"/var/lib/postgresql/billing","port":5433}`
	r, err := http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	require.NoError(t, err)

	var payload CreateHerd
	require.NoError(t, Decode(r, &payload))
	assert.Equal(t, "billing", payload.Name)
	assert.Equal(t, 5433, payload.Port)
}

func TestDecode_CreateHerdPortOutOfRange(t *testing.T) {
	body := `{"name":"billing","pgdata":"/data","port":70000}`
	r, err := http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	require.NoError(t, err)

	var payload CreateHerd
	err = Decode(r, &payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation error")
}

func TestValidate_StatusReport(t *testing.T) {
	require.NoError(t, Validate(&StatusReport{IsOnline: true, Position: "16/B374D848"}))
	require.NoError(t, Validate(&StatusReport{IsOnline: false}))
	assert.Error(t, Validate(&StatusReport{IsOnline: true, Position: "not-an-lsn"}))
}

func TestValidate_ActionRequest(t *testing.T) {
	require.NoError(t, Validate(&ActionRequest{InstanceIDs: []string{"a"}}))
	assert.Error(t, Validate(&ActionRequest{}))
	assert.Error(t, Validate(&ActionRequest{InstanceIDs: []string{""}}))
}

func TestValidate_ApplyAction(t *testing.T) {
	require.NoError(t, Validate(&ApplyAction{Action: "restart", Herd: "billing"}))
	assert.Error(t, Validate(&ApplyAction{Action: "explode", Herd: "billing"}))
}

func TestSlugValidation_Valid(t *testing.T) {
	for _, slug := range []string{"billing", "test123", "a", "orders_v2", "z0"} {
		t.Run(slug, func(t *testing.T) {
			assert.True(t, nameRegex.MatchString(slug), "expected slug %q to be valid", slug)
		})
	}
}

func TestSlugValidation_Invalid(t *testing.T) {
	invalid := []string{
		"My Herd",
		"test@123",
		"",
		strings.Repeat("a", 41),
		"1starts-digit",
		"-leading-dash",
	}
	for _, slug := range invalid {
		t.Run(slug, func(t *testing.T) {
			assert.False(t, nameRegex.MatchString(slug), "expected slug %q to be invalid", slug)
		})
	}
}
