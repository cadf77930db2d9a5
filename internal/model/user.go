package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

// User is an operator account. Password holds the bcrypt hash and is never
// serialized.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Password     string     `json:"-"`
	Role         Role       `json:"role"`
	AssignedShop *uuid.UUID `json:"assignedShop,omitempty"`
	IsApproved   bool       `json:"isApproved"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

type RegisterRequest struct {
	Name         string     `json:"name" validate:"required,min=2"`
	Email        string     `json:"email" validate:"required,email"`
	Password     string     `json:"password" validate:"required,min=8"`
	Role         Role       `json:"role" validate:"omitempty,oneof=admin seller"`
	AssignedShop *uuid.UUID `json:"assignedShop,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID           uuid.UUID
	Role         Role
	AssignedShop *uuid.UUID
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
