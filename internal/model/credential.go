// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data - similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Credential is the single administrative identity.
//
// Username is email-shaped ("admin@medassoc.com") and unique across the store;
// the stores enforce that with a UNIQUE index, not with application checks.
//
// WHY json:"-" ON PasswordHash?
// The credential is returned by GET /api/auth/me. Tagging the hash with "-"
// means it can never be serialised by accident, no matter which handler
// writes the struct.
//
// Disabled is a hard gate: a disabled credential cannot log in and its
// still-unexpired tokens stop working at the next request.
type Credential struct {
	ID           string    `json:"id"         bson:"id"`
	Username     string    `json:"username"   bson:"username"`
	FullName     string    `json:"full_name"  bson:"full_name"`
	PasswordHash string    `json:"-"          bson:"hashed_password"`
	Disabled     bool      `json:"disabled"   bson:"disabled"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
