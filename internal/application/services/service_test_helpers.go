package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexflow/backend/internal/domain"
)

// newTestStack wires the full in-memory service stack with the
// permissive lifecycle policy, the way cmd/server does
func newTestStack(t *testing.T) *ServiceManager {
	t.Helper()

	sm, err := NewServiceManager(domain.PermissiveLifecyclePolicy{}, "* * * * *")
	require.NoError(t, err)
	return sm
}
