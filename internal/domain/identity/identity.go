package identity

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCitizen Role = "CITIZEN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCitizen:
		return true
	}
	return false
}

type Capability string

const (
	CapManageContent  Capability = "manage_content"
	CapManagePrograms Capability = "manage_programs"
	CapViewReports    Capability = "view_reports"
	CapManageCitizens Capability = "manage_citizens"
	CapRecordEmission Capability = "record_emission"
	CapManageProfile  Capability = "manage_profile"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:   {CapManageContent, CapManagePrograms, CapViewReports, CapManageCitizens},
	RoleCitizen: {CapRecordEmission, CapManageProfile},
}

// Principal é o chamador autenticado de uma requisição.
type Principal struct {
	Id      ulid.ULID `json:"id"`
	Role    Role      `json:"role"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	TokenId ulid.ULID `json:"-"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) Has(c Capability) bool {
	for _, granted := range roleCapabilities[p.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

type Admin struct {
	Id        ulid.ULID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Citizen struct {
	Id        ulid.ULID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Phone     string    `json:"phone"`
	PhotoPath string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AuthToken struct {
	Id         ulid.ULID
	OwnerId    ulid.ULID
	OwnerKind  Role
	Name       string
	LastUsedAt *time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Register struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	Phone                string
}

type ProfileUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

type PasswordChange struct {
	OldPassword          string
	NewPassword          string
	PasswordConfirmation string
}

// Session é o resultado de um login bem-sucedido.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal Principal
}
