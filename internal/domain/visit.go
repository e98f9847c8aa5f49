package domain

import (
	"time"
)

// VisitStatus is the lifecycle status of a visit
type VisitStatus string

const (
	VisitStatusPending VisitStatus = "PENDING"
	VisitStatusVisited VisitStatus = "VISITED"
)

// ContactPerson identifies who the salesperson talked to at the academy
type ContactPerson string

const (
	ContactOwner   ContactPerson = "OWNER"
	ContactTeacher ContactPerson = "TEACHER"
	ContactStaff   ContactPerson = "STAFF"
	ContactNobody  ContactPerson = "NOBODY"
)

// Temperature is the qualitative interest rating assigned after a visit
type Temperature string

const (
	TemperatureHot  Temperature = "HOT"
	TemperatureWarm Temperature = "WARM"
	TemperatureCold Temperature = "COLD"
)

// Limits on visit content fields
const (
	MaxVisitPhotos     = 3
	MaxSummaryLength   = 500
	MaxVisitDuration   = 65 * time.Minute // operational cap; longer durations are a corruption signal
	ClampVisitDuration = 60 * time.Minute
)

// Visit is one salesperson's engagement record with one academy within one
// event. At most one authoritative visit exists per (event, academy) pair.
type Visit struct {
	ID            string      `json:"id" db:"id"`
	EventID       string      `json:"event_id" db:"event_id"`
	AcademyID     string      `json:"academy_id" db:"academy_id"`
	SalespersonID string      `json:"salesperson_id" db:"salesperson_id"`
	Status        VisitStatus `json:"status" db:"status"`

	StartedAt  *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`

	ContactPerson *ContactPerson `json:"contact_person,omitempty" db:"contact_person"`
	Temperature   *Temperature   `json:"temperature,omitempty" db:"temperature"`
	Summary       string         `json:"summary" db:"summary"`
	Photos        []string       `json:"photos" db:"photos"`
	LeftBanner    bool           `json:"left_banner" db:"left_banner"`
	LeftFlyers    bool           `json:"left_flyers" db:"left_flyers"`

	// VouchersGenerated mirrors the set of voucher rows owned by this visit
	VouchersGenerated []string `json:"vouchers_generated" db:"vouchers_generated"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Duration returns the elapsed time between start and finish. The second
// return value is false when either timestamp is missing.
func (v *Visit) Duration() (time.Duration, bool) {
	if v.StartedAt == nil || v.FinishedAt == nil {
		return 0, false
	}
	return v.FinishedAt.Sub(*v.StartedAt), true
}

// Clone returns a deep copy of the visit
func (v *Visit) Clone() *Visit {
	out := *v
	if v.ContactPerson != nil {
		cp := *v.ContactPerson
		out.ContactPerson = &cp
	}
	if v.Temperature != nil {
		t := *v.Temperature
		out.Temperature = &t
	}
	if v.StartedAt != nil {
		ts := *v.StartedAt
		out.StartedAt = &ts
	}
	if v.FinishedAt != nil {
		ts := *v.FinishedAt
		out.FinishedAt = &ts
	}
	out.Photos = append([]string(nil), v.Photos...)
	out.VouchersGenerated = append([]string(nil), v.VouchersGenerated...)
	return &out
}
