package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionCatalogIsOrderedAndComplete(t *testing.T) {
	catalog := PermissionCatalog()
	require.Len(t, catalog, 25)
	assert.Equal(t, PermCreateUser, catalog[0].Name)
	assert.Equal(t, PermReadUser, catalog[1].Name)
	assert.Equal(t, PermDeleteRiskMatrix, catalog[24].Name)

	seen := map[Permission]bool{}
	for _, entry := range catalog {
		assert.False(t, seen[entry.Name], "duplicate %s", entry.Name)
		seen[entry.Name] = true
		assert.NotEmpty(t, entry.Description)
		assert.NotEqual(t, "No description available.", entry.Description)
	}
	assert.Equal(t, catalog, PermissionCatalog())
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission("assign_role")
	require.NoError(t, err)
	assert.Equal(t, PermAssignRole, p)

	_, err = ParsePermission("Assign_Role")
	assert.Error(t, err)
	_, err = ParsePermission("")
	assert.Error(t, err)
}

func TestUnknownPermissionDescription(t *testing.T) {
	assert.Equal(t, "No description available.", Permission("launch_missiles").Description())
	assert.False(t, Permission("launch_missiles").Valid())
}
