package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin   = "admin"
	RoleEscola  = "escola"  // director de escuela; opera solo sobre su SchoolID
	RoleGoverno = "governo" // órgano fiscalizador
)

// ValidRole indica si el rol es conocido.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEscola, RoleGoverno:
		return true
	}
	return false
}

// User representa un usuario del sistema.
type User struct {
	ID           string
	SchoolID     string // vacío salvo para RoleEscola
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, escola, governo
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
