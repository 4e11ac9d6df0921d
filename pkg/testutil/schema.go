package testutil

// Schema returns the DDL for a fresh test database: every table the
// server touches plus the row-level-security policies keyed on the
// app.current_company session setting.
func Schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS companies (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			token_hash VARCHAR(64) NOT NULL UNIQUE,
			user_agent TEXT,
			ip_address VARCHAR(45),
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			revoked_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS roles (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			is_system BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS company_users (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			role_id UUID NOT NULL REFERENCES roles(id),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (company_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS company_role_grids (
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			role_name VARCHAR(100) NOT NULL,
			grid JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (company_id, role_name)
		)`,

		`CREATE TABLE IF NOT EXISTS pipeline_columns (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			color VARCHAR(7),
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS partners (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(32),
			commission_percent NUMERIC(5,2),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			price NUMERIC(12,2),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS leads (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(32),
			source VARCHAR(100),
			status VARCHAR(20) NOT NULL DEFAULT 'new',
			column_id UUID REFERENCES pipeline_columns(id) ON DELETE SET NULL,
			assigned_to UUID REFERENCES accounts(id),
			partner_id UUID REFERENCES partners(id),
			product_id UUID REFERENCES products(id),
			value NUMERIC(12,2),
			notes TEXT,
			last_contact_at TIMESTAMPTZ,
			created_by UUID REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS follow_ups (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			lead_id UUID NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
			notes TEXT,
			due_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			created_by UUID REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			lead_id UUID REFERENCES leads(id) ON DELETE SET NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
			scheduled_at TIMESTAMPTZ NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 30,
			assigned_to UUID REFERENCES accounts(id),
			created_by UUID REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS meetings (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			appointment_id UUID REFERENCES appointments(id) ON DELETE SET NULL,
			lead_id UUID REFERENCES leads(id) ON DELETE SET NULL,
			title VARCHAR(255) NOT NULL,
			summary TEXT,
			outcome VARCHAR(100),
			held_at TIMESTAMPTZ NOT NULL,
			recorded_by UUID REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS scripts (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			category VARCHAR(100),
			created_by UUID REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES accounts(id),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(32),
			avatar TEXT,
			role_id UUID NOT NULL REFERENCES roles(id),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (company_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			actor_id UUID,
			actor_name VARCHAR(255) NOT NULL DEFAULT '',
			action VARCHAR(100) NOT NULL,
			resource_type VARCHAR(100) NOT NULL,
			resource_id UUID,
			details JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

// companyTables lists every table guarded by row-level security
var companyTables = []string{
	"company_role_grids",
	"pipeline_columns",
	"partners",
	"products",
	"leads",
	"follow_ups",
	"appointments",
	"meetings",
	"scripts",
	"profiles",
	"audit_logs",
}

// RLSPolicies returns the statements enabling row-level security on
// every company-scoped table, matching rows against the
// app.current_company setting the database layer installs per
// transaction.
func RLSPolicies() []string {
	var stmts []string
	for _, table := range companyTables {
		stmts = append(stmts,
			"ALTER TABLE "+table+" ENABLE ROW LEVEL SECURITY",
			"ALTER TABLE "+table+" FORCE ROW LEVEL SECURITY",
			"DROP POLICY IF EXISTS company_isolation ON "+table,
			"CREATE POLICY company_isolation ON "+table+
				" USING (company_id = current_setting('app.current_company', true)::uuid)"+
				" WITH CHECK (company_id = current_setting('app.current_company', true)::uuid)",
		)
	}
	return stmts
}
