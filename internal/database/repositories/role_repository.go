package repositories

import (
	"database/sql"
	"fmt"

	"election-ledger/internal/database"
)

// RoleRepository handles capability grants for principals
type RoleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Grant records a capability for a principal
func (r *RoleRepository) Grant(role *database.Role) error {
	query := `INSERT INTO roles (principal, capability, granted_by, created_at)
	          VALUES (?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		role.Principal, role.Capability, role.GrantedBy, role.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to grant role: %v", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		role.ID = id
	}

	return nil
}

// Revoke removes a capability from a principal
func (r *RoleRepository) Revoke(principal, capability string) error {
	query := `DELETE FROM roles WHERE principal = ? AND capability = ?`

	result, err := r.db.Exec(query, principal, capability)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %v", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// Capabilities returns the capabilities granted to a principal
func (r *RoleRepository) Capabilities(principal string) ([]string, error) {
	query := `SELECT capability FROM roles WHERE principal = ? ORDER BY capability ASC`

	rows, err := r.db.Query(query, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to list capabilities: %v", err)
	}
	defer rows.Close()

	var capabilities []string
	for rows.Next() {
		var capability string
		if err := rows.Scan(&capability); err != nil {
			return nil, fmt.Errorf("failed to scan capability: %v", err)
		}
		capabilities = append(capabilities, capability)
	}

	return capabilities, rows.Err()
}

// ListAll returns every capability grant on record
func (r *RoleRepository) ListAll() ([]*database.Role, error) {
	query := `SELECT id, principal, capability, granted_by, created_at
	          FROM roles ORDER BY principal ASC, capability ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %v", err)
	}
	defer rows.Close()

	var roles []*database.Role
	for rows.Next() {
		role := &database.Role{}
		err := rows.Scan(&role.ID, &role.Principal, &role.Capability, &role.GrantedBy, &role.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %v", err)
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}
