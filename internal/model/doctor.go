package model

import (
	"strings"
	"time"
)

// Doctor is one entry of the public directory.
//
// The `json:"..."` tags follow the wire contract the frontend already uses
// (snake_case). The `bson:"..."` tags are read by the Mongo store, which keeps
// our own string ID in an "id" field next to Mongo's internal _id.
//
// ID and CreatedAt are generated by the service on create and never change.
type Doctor struct {
	ID          string    `json:"id"           bson:"id"`
	Name        string    `json:"name"         bson:"name"`
	City        string    `json:"city"         bson:"city"`
	Specialty   string    `json:"specialty"    bson:"specialty"`
	ContactInfo string    `json:"contact_info" bson:"contact_info"`
	ImageURL    string    `json:"image_url"    bson:"image_url"`
	CreatedAt   time.Time `json:"created_at"   bson:"created_at"`
}

// DoctorInput is the payload of POST /api/doctors.
// Unknown keys are ignored by the decoder, so a client may send back a whole
// Doctor (id, created_at included) without affecting the generated fields.
type DoctorInput struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	Specialty   string `json:"specialty"`
	ContactInfo string `json:"contact_info"`
	ImageURL    string `json:"image_url"`
}

// DoctorPatch is the payload of PUT /api/doctors/{id}.
// Only keys present in the request are applied; see Optional.
type DoctorPatch struct {
	Name        Optional[string] `json:"name"`
	City        Optional[string] `json:"city"`
	Specialty   Optional[string] `json:"specialty"`
	ContactInfo Optional[string] `json:"contact_info"`
	ImageURL    Optional[string] `json:"image_url"`
}

// IsEmpty reports whether the patch names no field at all.
func (p DoctorPatch) IsEmpty() bool {
	return !p.Name.Set && !p.City.Set && !p.Specialty.Set &&
		!p.ContactInfo.Set && !p.ImageURL.Set
}

// Apply copies every present field onto d. A null clears the field.
func (p DoctorPatch) Apply(d *Doctor) {
	applyString(&d.Name, p.Name)
	applyString(&d.City, p.City)
	applyString(&d.Specialty, p.Specialty)
	applyString(&d.ContactInfo, p.ContactInfo)
	applyString(&d.ImageURL, p.ImageURL)
}

// Changes returns the present fields keyed by their storage name.
// All stores use the same field names (the JSON names), so the map can be
// turned into an SQL SET list, a Mongo $set document or a GORM Updates map.
func (p DoctorPatch) Changes() map[string]any {
	c := make(map[string]any, 5)
	putString(c, "name", p.Name)
	putString(c, "city", p.City)
	putString(c, "specialty", p.Specialty)
	putString(c, "contact_info", p.ContactInfo)
	putString(c, "image_url", p.ImageURL)
	return c
}

// DoctorFilter narrows GET /api/doctors.
// Both terms are case-insensitive substrings; empty means "no filter".
type DoctorFilter struct {
	City      string
	Specialty string
}

// Matches reports whether d passes the filter. Stores that cannot push the
// filter down (and the in-memory fakes used in tests) use this directly.
func (f DoctorFilter) Matches(d Doctor) bool {
	return containsFold(d.City, f.City) && containsFold(d.Specialty, f.Specialty)
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func applyString(dst *string, o Optional[string]) {
	if !o.Set {
		return
	}
	if o.Null {
		*dst = ""
		return
	}
	*dst = o.Value
}

func putString(c map[string]any, key string, o Optional[string]) {
	if !o.Set {
		return
	}
	if o.Null {
		c[key] = ""
		return
	}
	c[key] = o.Value
}
