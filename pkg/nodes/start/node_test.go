package start

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowpad/flowpad/pkg/models"
)

func TestExecuteEmitsPayloadCopy(t *testing.T) {
	payload := map[string]any{"message": "hello", "value": float64(5)}
	node := New(&models.StartConfig{Payload: payload})

	output, message, err := node.Execute(nil)

	require.NoError(t, err)
	assert.Equal(t, payload, output)
	assert.Equal(t, "Started workflow execution", message)

	output["message"] = "mutated"
	assert.Equal(t, "hello", payload["message"], "configured payload must not alias the output")
}

func TestExecuteIgnoresInput(t *testing.T) {
	node := New(&models.StartConfig{Payload: map[string]any{"seed": float64(1)}})

	output, _, err := node.Execute(map[string]any{"noise": "ignored"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"seed": float64(1)}, output)
}

func TestExecuteWithoutPayload(t *testing.T) {
	output, _, err := New(nil).Execute(nil)

	require.NoError(t, err)
	assert.NotNil(t, output)
	assert.Empty(t, output)
}
