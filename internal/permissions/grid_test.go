package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGridAdmin(t *testing.T) {
	grid := DefaultGrid(RoleAdmin)

	require.Len(t, grid, len(Modules))
	for _, module := range Modules {
		for _, action := range Actions {
			assert.True(t, grid.Allows(module, action), "%s.%s should be allowed for admin", module, action)
		}
	}
}

func TestDefaultGridManager(t *testing.T) {
	grid := DefaultGrid(RoleManager)

	assert.True(t, grid.Allows(ModuleLeads, ActionDelete))
	assert.True(t, grid.Allows(ModuleSettings, ActionView))
	assert.False(t, grid.Allows(ModuleSettings, ActionCreate))
	assert.False(t, grid.Allows(ModuleSettings, ActionDelete))
	assert.False(t, grid.Allows(ModuleTeam, ActionDelete))
}

func TestDefaultGridSDR(t *testing.T) {
	grid := DefaultGrid(RoleSDR)

	assert.True(t, grid.Allows(ModuleLeads, ActionView))
	assert.True(t, grid.Allows(ModuleLeads, ActionCreate))
	assert.False(t, grid.Allows(ModuleLeads, ActionDelete))
	assert.False(t, grid.Allows(ModuleReports, ActionView))
	assert.False(t, grid.Allows(ModuleSettings, ActionView))
}

func TestDefaultGridUnknownRoleFallsBackToSDR(t *testing.T) {
	unknown := DefaultGrid("receptionist")
	sdr := DefaultGrid(RoleSDR)

	assert.Equal(t, sdr, unknown)
}

func TestGridMergeSingleCell(t *testing.T) {
	base := DefaultGrid(RoleSDR)
	require.False(t, base.Allows(ModuleLeads, ActionDelete))

	override := Grid{
		ModuleLeads: Row{ActionDelete: true},
	}
	merged := base.Merge(override)

	// Only the overridden cell flips
	assert.True(t, merged.Allows(ModuleLeads, ActionDelete))
	assert.True(t, merged.Allows(ModuleLeads, ActionView))
	assert.False(t, merged.Allows(ModuleReports, ActionView))

	// The base grid is untouched
	assert.False(t, base.Allows(ModuleLeads, ActionDelete))
}

func TestGridMergeCanRevoke(t *testing.T) {
	base := DefaultGrid(RoleManager)
	require.True(t, base.Allows(ModuleLeads, ActionDelete))

	merged := base.Merge(Grid{ModuleLeads: Row{ActionDelete: false}})
	assert.False(t, merged.Allows(ModuleLeads, ActionDelete))
}

func TestGridMergeUnknownModule(t *testing.T) {
	base := DefaultGrid(RoleSDR)
	merged := base.Merge(Grid{"billing": Row{ActionView: true}})

	assert.True(t, merged.Allows("billing", ActionView))
	assert.False(t, merged.Allows("billing", ActionEdit))
}

func TestGridAllowsMissingModule(t *testing.T) {
	grid := Grid{}
	assert.False(t, grid.Allows(ModuleLeads, ActionView))
}

func TestGridClone(t *testing.T) {
	original := DefaultGrid(RoleCloser)
	clone := original.Clone()

	clone[ModuleLeads][ActionDelete] = true
	assert.False(t, original.Allows(ModuleLeads, ActionDelete))
	assert.True(t, clone.Allows(ModuleLeads, ActionDelete))
}

func TestGridFlatten(t *testing.T) {
	grid := Grid{
		ModuleLeads:    Row{ActionView: true, ActionCreate: true, ActionDelete: false},
		ModuleReports:  Row{ActionView: true},
		ModuleSettings: Row{ActionView: false},
	}

	perms := grid.Flatten()
	assert.Equal(t, []string{"leads.create", "leads.view", "reports.view"}, perms)
}

func TestGridFlattenEmpty(t *testing.T) {
	assert.Empty(t, Grid{}.Flatten())
}
