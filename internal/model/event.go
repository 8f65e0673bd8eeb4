package model

import "time"

// Event is an association event (congress, course, community action).
//
// Date and Time are free-text labels ("15-17 de Outubro, 2025", "08:00 - 18:00")
// because that is how the association announces them; nothing parses them.
// Status is a free label too ("Inscrições Abertas"), not a state machine.
type Event struct {
	ID           string    `json:"id"            bson:"id"`
	Title        string    `json:"title"         bson:"title"`
	Date         string    `json:"date"          bson:"date"`
	Time         string    `json:"time"          bson:"time"`
	Location     string    `json:"location"      bson:"location"`
	Description  string    `json:"description"   bson:"description"`
	ImageURL     string    `json:"image_url"     bson:"image_url"`
	Status       string    `json:"status"        bson:"status"`
	ExternalLink string    `json:"external_link" bson:"external_link"`
	CreatedAt    time.Time `json:"created_at"    bson:"created_at"`
}

// EventInput is the payload of POST /api/events.
type EventInput struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	Status       string `json:"status"`
	ExternalLink string `json:"external_link"`
}

// EventPatch is the payload of PUT /api/events/{id}.
type EventPatch struct {
	Title        Optional[string] `json:"title"`
	Date         Optional[string] `json:"date"`
	Time         Optional[string] `json:"time"`
	Location     Optional[string] `json:"location"`
	Description  Optional[string] `json:"description"`
	ImageURL     Optional[string] `json:"image_url"`
	Status       Optional[string] `json:"status"`
	ExternalLink Optional[string] `json:"external_link"`
}

func (p EventPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Date.Set && !p.Time.Set && !p.Location.Set &&
		!p.Description.Set && !p.ImageURL.Set && !p.Status.Set && !p.ExternalLink.Set
}

func (p EventPatch) Apply(e *Event) {
	applyString(&e.Title, p.Title)
	applyString(&e.Date, p.Date)
	applyString(&e.Time, p.Time)
	applyString(&e.Location, p.Location)
	applyString(&e.Description, p.Description)
	applyString(&e.ImageURL, p.ImageURL)
	applyString(&e.Status, p.Status)
	applyString(&e.ExternalLink, p.ExternalLink)
}

func (p EventPatch) Changes() map[string]any {
	c := make(map[string]any, 8)
	putString(c, "title", p.Title)
	putString(c, "date", p.Date)
	putString(c, "time", p.Time)
	putString(c, "location", p.Location)
	putString(c, "description", p.Description)
	putString(c, "image_url", p.ImageURL)
	putString(c, "status", p.Status)
	putString(c, "external_link", p.ExternalLink)
	return c
}
