package assignment

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the wire format for Gregorian dates; Hijri dates use the
// same shape in the AH calendar.
const DateLayout = "2006-01-02"

// Assignment is a time-bounded grant of a role to a user. The Gregorian pair
// is the source of truth for every comparison; the Hijri pair is a display
// and input mirror derived from it.
type Assignment struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         string             `json:"user_id" bson:"user_id"`
	RoleID         primitive.ObjectID `json:"role_id" bson:"role_id"`
	StartGregorian time.Time          `json:"start_date_gregorian" bson:"start_date_gregorian"`
	EndGregorian   *time.Time         `json:"end_date_gregorian,omitempty" bson:"end_date_gregorian,omitempty"`
	StartHijri     string             `json:"start_date_hijri" bson:"start_date_hijri"`
	EndHijri       string             `json:"end_date_hijri,omitempty" bson:"end_date_hijri,omitempty"`
	Notes          string             `json:"notes,omitempty" bson:"notes,omitempty"`
	IsActive       bool               `json:"is_active" bson:"is_active"`
	AssignedBy     string             `json:"assigned_by,omitempty" bson:"assigned_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// Interval returns the assignment's validity window.
func (a *Assignment) Interval() Interval {
	return Interval{Start: a.StartGregorian, End: a.EndGregorian}
}

// WithStatus annotates an assignment with its lifecycle state at some date.
type WithStatus struct {
	Assignment `bson:",inline"`
	Status     Status `json:"status" bson:"-"`
}

// AssignRequest is the payload for creating an assignment. Dates are
// YYYY-MM-DD strings; either calendar may be supplied and the other is
// derived.
type AssignRequest struct {
	UserID         string `json:"user_id"`
	RoleID         string `json:"role_id"`
	StartGregorian string `json:"start_date_gregorian,omitempty"`
	EndGregorian   string `json:"end_date_gregorian,omitempty"`
	StartHijri     string `json:"start_date_hijri,omitempty"`
	EndHijri       string `json:"end_date_hijri,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// UpdateRequest carries partial changes to an assignment. Nil pointers mean
// "leave unchanged"; an explicit empty end date clears the bound.
type UpdateRequest struct {
	StartGregorian *string `json:"start_date_gregorian,omitempty"`
	EndGregorian   *string `json:"end_date_gregorian,omitempty"`
	StartHijri     *string `json:"start_date_hijri,omitempty"`
	EndHijri       *string `json:"end_date_hijri,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}
