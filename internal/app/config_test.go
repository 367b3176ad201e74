package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigRequiresWorkflowPath(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "WorkflowPath")

	cfg, err := NewConfig(Config{WorkflowPath: "flow.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "flow.hcl", cfg.WorkflowPath)
}
