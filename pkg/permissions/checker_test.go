package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name      string
		userPerms []string
		required  string
		want      bool
	}{
		{"exact match", []string{"leads.view", "leads.create"}, "leads.view", true},
		{"missing", []string{"leads.view"}, "leads.delete", false},
		{"full wildcard", []string{"*"}, "settings.edit", true},
		{"module wildcard", []string{"leads.*"}, "leads.delete", true},
		{"module wildcard other module", []string{"leads.*"}, "pipeline.edit", false},
		{"empty required is allowed", []string{}, "", true},
		{"no permissions", nil, "leads.view", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.userPerms, tt.required))
		})
	}
}

func TestHasAnyPermission(t *testing.T) {
	perms := []string{"leads.view", "appointments.view"}
	assert.True(t, HasAnyPermission(perms, []string{"leads.delete", "appointments.view"}))
	assert.False(t, HasAnyPermission(perms, []string{"settings.edit", "team.edit"}))
}

func TestHasAllPermissions(t *testing.T) {
	perms := []string{"leads.*", "reports.view"}
	assert.True(t, HasAllPermissions(perms, []string{"leads.view", "leads.delete", "reports.view"}))
	assert.False(t, HasAllPermissions(perms, []string{"leads.view", "settings.edit"}))
}

func TestMergePermissions(t *testing.T) {
	merged := MergePermissions(
		[]string{"leads.view", "leads.create"},
		[]string{"leads.view", "reports.view"},
	)
	assert.ElementsMatch(t, []string{"leads.view", "leads.create", "reports.view"}, merged)
}

func TestRemovePermissions(t *testing.T) {
	remaining := RemovePermissions(
		[]string{"leads.view", "leads.delete", "reports.view"},
		[]string{"leads.delete"},
	)
	assert.ElementsMatch(t, []string{"leads.view", "reports.view"}, remaining)
}

func TestIsValidPermission(t *testing.T) {
	assert.True(t, IsValidPermission("*"))
	assert.True(t, IsValidPermission("leads.view"))
	assert.True(t, IsValidPermission("leads.*"))
	assert.False(t, IsValidPermission("leads"))
}
