package permissions

import "sort"

// Module names of the permission grid. Every grid covers exactly this
// set; modules absent from a stored override fall back to the role's
// default row.
const (
	ModuleLeads        = "leads"
	ModulePipeline     = "pipeline"
	ModuleAppointments = "appointments"
	ModuleMeetings     = "meetings"
	ModuleScripts      = "scripts"
	ModuleProducts     = "products"
	ModulePartners     = "partners"
	ModuleWhatsapp     = "whatsapp"
	ModuleReports      = "reports"
	ModuleTeam         = "team"
	ModuleSettings     = "settings"
)

// Actions of the permission grid
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Modules lists every grid module in stable order
var Modules = []string{
	ModuleLeads,
	ModulePipeline,
	ModuleAppointments,
	ModuleMeetings,
	ModuleScripts,
	ModuleProducts,
	ModulePartners,
	ModuleWhatsapp,
	ModuleReports,
	ModuleTeam,
	ModuleSettings,
}

// Actions lists every grid action in stable order
var Actions = []string{ActionView, ActionCreate, ActionEdit, ActionDelete}

// Row is the action set of one module
type Row map[string]bool

// Grid maps module name to its action row
type Grid map[string]Row

// Clone returns a deep copy of the grid
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for module, row := range g {
		cp := make(Row, len(row))
		for action, allowed := range row {
			cp[action] = allowed
		}
		out[module] = cp
	}
	return out
}

// Merge overlays the override grid onto g and returns the result.
// Only cells present in the override change; everything else keeps the
// base value. Neither input is mutated.
func (g Grid) Merge(override Grid) Grid {
	out := g.Clone()
	for module, row := range override {
		base, ok := out[module]
		if !ok {
			base = make(Row, len(row))
			out[module] = base
		}
		for action, allowed := range row {
			base[action] = allowed
		}
	}
	return out
}

// Allows reports whether the grid grants an action on a module
func (g Grid) Allows(module, action string) bool {
	row, ok := g[module]
	if !ok {
		return false
	}
	return row[action]
}

// Flatten renders the grid as sorted "module.action" strings, the form
// embedded in access-token claims.
func (g Grid) Flatten() []string {
	var perms []string
	for module, row := range g {
		for action, allowed := range row {
			if allowed {
				perms = append(perms, module+"."+action)
			}
		}
	}
	sort.Strings(perms)
	return perms
}

func row(view, create, edit, del bool) Row {
	return Row{
		ActionView:   view,
		ActionCreate: create,
		ActionEdit:   edit,
		ActionDelete: del,
	}
}

func fullRow() Row { return row(true, true, true, true) }

// DefaultGrid returns the built-in grid for a system role. Unknown role
// names get the SDR grid, the most restrictive default.
func DefaultGrid(roleName string) Grid {
	switch roleName {
	case RoleAdmin:
		return adminGrid()
	case RoleManager:
		return managerGrid()
	case RoleCloser:
		return closerGrid()
	case RoleSDR:
		return sdrGrid()
	default:
		return sdrGrid()
	}
}

// System role names
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCloser  = "closer"
	RoleSDR     = "sdr"
)

func adminGrid() Grid {
	g := make(Grid, len(Modules))
	for _, module := range Modules {
		g[module] = fullRow()
	}
	return g
}

func managerGrid() Grid {
	g := adminGrid()
	g[ModuleSettings] = row(true, false, true, false)
	g[ModuleTeam] = row(true, true, true, false)
	return g
}

func closerGrid() Grid {
	return Grid{
		ModuleLeads:        row(true, true, true, false),
		ModulePipeline:     row(true, false, true, false),
		ModuleAppointments: fullRow(),
		ModuleMeetings:     fullRow(),
		ModuleScripts:      row(true, false, false, false),
		ModuleProducts:     row(true, false, false, false),
		ModulePartners:     row(true, false, false, false),
		ModuleWhatsapp:     row(true, true, false, false),
		ModuleReports:      row(true, false, false, false),
		ModuleTeam:         row(false, false, false, false),
		ModuleSettings:     row(false, false, false, false),
	}
}

func sdrGrid() Grid {
	return Grid{
		ModuleLeads:        row(true, true, true, false),
		ModulePipeline:     row(true, false, false, false),
		ModuleAppointments: row(true, true, true, false),
		ModuleMeetings:     row(true, true, false, false),
		ModuleScripts:      row(true, false, false, false),
		ModuleProducts:     row(true, false, false, false),
		ModulePartners:     row(false, false, false, false),
		ModuleWhatsapp:     row(true, true, false, false),
		ModuleReports:      row(false, false, false, false),
		ModuleTeam:         row(false, false, false, false),
		ModuleSettings:     row(false, false, false, false),
	}
}
