package model

import (
	"strings"
	"time"
)

// Role is a member's part in a family.
type Role string

const (
	RoleParent Role = "parent"
	RoleNanny  Role = "nanny"
)

// Label is the display form of the role.
func (r Role) Label() string {
	switch r {
	case RoleParent:
		return "Parent"
	case RoleNanny:
		return "Nanny"
	}
	return string(r)
}

// Family groups parents and nannies around a shareable join code.
type Family struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	Code        string    `json:"family_code"`
	CreatedBy   string    `json:"created_by" validate:"required"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FamilyMember is one user's membership of a family. FirstName and LastName
// come from the member's profile, when there is one.
type FamilyMember struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"family_id" validate:"required"`
	UserID     string    `json:"user_id" validate:"required"`
	Role       Role      `json:"role" validate:"required,oneof=parent nanny"`
	HourlyRate *float64  `json:"hourly_rate" validate:"omitempty,gte=0"`
	Active     bool      `json:"is_active"`
	JoinedAt   time.Time `json:"joined_at"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
}

// DisplayName returns the member's profile name, or "Unknown User".
func (m FamilyMember) DisplayName() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name == "" {
		return "Unknown User"
	}
	return name
}

// Initials returns up to two upper-case initials of the display name.
func (m FamilyMember) Initials() string {
	var initials []rune
	for _, part := range strings.Fields(m.DisplayName()) {
		initials = append(initials, []rune(strings.ToUpper(part))[0])
		if len(initials) == 2 {
			break
		}
	}
	return string(initials)
}

// InvitationStatus tracks an invitation from sending to use.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
)

// Invitation asks the owner of an e-mail address to join a family.
// HourlyRate applies to nannies only.
type Invitation struct {
	ID         string           `json:"id"`
	FamilyID   string           `json:"family_id" validate:"required"`
	Email      string           `json:"email" validate:"required,email,max=254"`
	Role       Role             `json:"role" validate:"required,oneof=parent nanny"`
	HourlyRate *float64         `json:"hourly_rate" validate:"omitempty,gte=0"`
	InvitedBy  string           `json:"invited_by" validate:"required"`
	Status     InvitationStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
}
