package models

import (
	"time"

	"github.com/google/uuid"
)

// Dashboard roles. SVP and ProposalHead are the two approval actors;
// notification recipients are resolved by role.
const (
	RoleAdmin        = "Admin"
	RoleSVP          = "SVP"
	RoleProposalHead = "ProposalHead"
	RoleViewer       = "Viewer"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	GroupName    string    `json:"group_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
