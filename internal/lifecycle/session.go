package lifecycle

import (
	"fmt"
	"time"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/errors"
)

// Step identifies the current screen of the visit flow
type Step string

const (
	StepStart    Step = "START"
	StepActive   Step = "ACTIVE"
	StepVouchers Step = "VOUCHERS"
	StepQRCode   Step = "QR_CODE"
	StepSummary  Step = "SUMMARY"
)

// Session is the in-memory state of one visit flow. All transitions are
// synchronous and validate before mutating; a transition that returns an
// error leaves the session untouched.
type Session struct {
	Step  Step          `json:"step"`
	Visit *domain.Visit `json:"visit"`

	// PendingCodes are voucher codes generated in the VOUCHERS step that
	// have not been persisted as voucher rows yet
	PendingCodes []string `json:"pending_codes"`

	// MarketingAnswered records that the banner/flyers question was
	// explicitly answered, including "nothing delivered"
	MarketingAnswered bool `json:"marketing_answered"`

	// Draft holds the edit-overlay copy of the mutable fields; nil when
	// not editing
	Draft *EditDraft `json:"draft,omitempty"`
}

// EditDraft is the edit overlay's working copy of the mutable visit fields
type EditDraft struct {
	ContactPerson *domain.ContactPerson `json:"contact_person,omitempty"`
	Temperature   *domain.Temperature   `json:"temperature,omitempty"`
	Summary       string                `json:"summary"`
	LeftBanner    bool                  `json:"left_banner"`
	LeftFlyers    bool                  `json:"left_flyers"`
	Photos        []string              `json:"photos"`
}

// NewSession creates a session for a visit that has not started yet
func NewSession(eventID, academyID, salespersonID string) *Session {
	return &Session{
		Step: StepStart,
		Visit: &domain.Visit{
			EventID:           eventID,
			AcademyID:         academyID,
			SalespersonID:     salespersonID,
			Status:            domain.VisitStatusPending,
			Photos:            []string{},
			VouchersGenerated: []string{},
		},
	}
}

// Resume creates a session around an existing visit, inferring the step
// from the visit's lifecycle fields.
func Resume(visit *domain.Visit) *Session {
	s := &Session{Visit: visit.Clone()}
	switch {
	case visit.Status == domain.VisitStatusVisited:
		s.Step = StepSummary
		// a finalized visit has answered the marketing question already
		s.MarketingAnswered = true
	case visit.StartedAt != nil:
		s.Step = StepActive
	default:
		s.Step = StepStart
	}
	return s
}

// Start stamps the start time and moves into data collection
func (s *Session) Start(now time.Time) error {
	if s.Step != StepStart {
		return errors.NewValidationError("visit already started", nil)
	}
	started := now.UTC()
	s.Visit.StartedAt = &started
	s.Visit.Status = domain.VisitStatusPending
	s.Step = StepActive
	return nil
}

// SetContactPerson records who the conversation was with
func (s *Session) SetContactPerson(cp domain.ContactPerson) error {
	switch cp {
	case domain.ContactOwner, domain.ContactTeacher, domain.ContactStaff, domain.ContactNobody:
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown contact person %q", cp), nil)
	}
	s.Visit.ContactPerson = &cp
	return nil
}

// SetTemperature records the academy's interest rating
func (s *Session) SetTemperature(t domain.Temperature) error {
	switch t {
	case domain.TemperatureHot, domain.TemperatureWarm, domain.TemperatureCold:
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown temperature %q", t), nil)
	}
	s.Visit.Temperature = &t
	return nil
}

// SetSummary updates the free-text summary
func (s *Session) SetSummary(summary string) error {
	if len([]rune(summary)) > domain.MaxSummaryLength {
		return errors.NewValidationError(
			fmt.Sprintf("summary exceeds %d characters", domain.MaxSummaryLength), nil)
	}
	s.Visit.Summary = summary
	return nil
}

// AddPhoto appends an uploaded photo reference, capped at three
func (s *Session) AddPhoto(url string) error {
	if len(s.Visit.Photos) >= domain.MaxVisitPhotos {
		return errors.NewValidationError(
			fmt.Sprintf("a visit can hold at most %d photos", domain.MaxVisitPhotos), nil)
	}
	s.Visit.Photos = append(s.Visit.Photos, url)
	return nil
}

// RemovePhoto removes the photo at the given slot
func (s *Session) RemovePhoto(index int) error {
	if index < 0 || index >= len(s.Visit.Photos) {
		return errors.NewValidationError("photo slot does not exist", nil)
	}
	s.Visit.Photos = append(s.Visit.Photos[:index], s.Visit.Photos[index+1:]...)
	return nil
}

// SetMarketing answers the marketing-delivery question with what was left
func (s *Session) SetMarketing(leftBanner, leftFlyers bool) {
	s.Visit.LeftBanner = leftBanner
	s.Visit.LeftFlyers = leftFlyers
	s.MarketingAnswered = true
}

// ClearMarketing answers the marketing-delivery question with "nothing"
func (s *Session) ClearMarketing() {
	s.Visit.LeftBanner = false
	s.Visit.LeftFlyers = false
	s.MarketingAnswered = true
}

// BeginVouchers enters the voucher-issuance step without finalizing
func (s *Session) BeginVouchers() error {
	if s.Step != StepActive && s.Step != StepSummary {
		return errors.NewValidationError("vouchers can only be issued from an active or finished visit", nil)
	}
	s.Draft = nil
	s.Step = StepVouchers
	return nil
}

// AddCode appends a freshly generated voucher code
func (s *Session) AddCode(code string) error {
	if s.Step != StepVouchers {
		return errors.NewValidationError("not in the voucher step", nil)
	}
	s.PendingCodes = append(s.PendingCodes, code)
	return nil
}

// RemoveLastCode discards the most recently generated code
func (s *Session) RemoveLastCode() error {
	if s.Step != StepVouchers {
		return errors.NewValidationError("not in the voucher step", nil)
	}
	if len(s.PendingCodes) == 0 {
		return errors.NewValidationError("no voucher codes to remove", nil)
	}
	s.PendingCodes = s.PendingCodes[:len(s.PendingCodes)-1]
	return nil
}

// ConfirmVouchers moves to the redemption-link step; at least one code is
// required.
func (s *Session) ConfirmVouchers() error {
	if s.Step != StepVouchers {
		return errors.NewValidationError("not in the voucher step", nil)
	}
	if len(s.PendingCodes) == 0 {
		return errors.NewValidationError("generate at least one voucher before continuing", nil)
	}
	s.Step = StepQRCode
	return nil
}

// BackToActive returns from the voucher step without discarding codes
func (s *Session) BackToActive() error {
	if s.Step != StepVouchers {
		return errors.NewValidationError("not in the voucher step", nil)
	}
	s.Step = StepActive
	return nil
}

// validateFinalize enforces the required fields for finalization
func (s *Session) validateFinalize() error {
	details := map[string]interface{}{}
	if s.Visit.ContactPerson == nil {
		details["contact_person"] = "select who the conversation was with"
	}
	if s.Visit.Temperature == nil {
		details["temperature"] = "select the academy temperature"
	}
	if !s.MarketingAnswered {
		details["marketing"] = "answer whether banner or flyers were delivered"
	}
	if len(details) > 0 {
		return errors.NewValidationError("visit is missing required fields", details)
	}
	return nil
}

// Finish finalizes the visit from the ACTIVE step, without vouchers
func (s *Session) Finish(now time.Time) error {
	if s.Step != StepActive {
		return errors.NewValidationError("visit is not in data collection", nil)
	}
	return s.finalize(now)
}

// Complete finalizes the visit from the QR_CODE step. The pending codes
// become the visit's voucher list; persisting them as voucher rows is the
// caller's responsibility, in the same write as the visit itself.
func (s *Session) Complete(now time.Time) error {
	if s.Step != StepQRCode {
		return errors.NewValidationError("visit is not at the redemption step", nil)
	}
	if err := s.finalize(now); err != nil {
		return err
	}
	s.Visit.VouchersGenerated = append(s.Visit.VouchersGenerated, s.PendingCodes...)
	return nil
}

func (s *Session) finalize(now time.Time) error {
	if err := s.validateFinalize(); err != nil {
		return err
	}
	finished := now.UTC()
	s.Visit.Status = domain.VisitStatusVisited
	s.Visit.FinishedAt = &finished
	s.Step = StepSummary
	return nil
}

// StartEdit opens the edit overlay seeded with the current mutable fields
func (s *Session) StartEdit() error {
	if s.Step != StepSummary && s.Step != StepActive {
		return errors.NewValidationError("visit cannot be edited in this step", nil)
	}
	s.Draft = &EditDraft{
		ContactPerson: s.Visit.ContactPerson,
		Temperature:   s.Visit.Temperature,
		Summary:       s.Visit.Summary,
		LeftBanner:    s.Visit.LeftBanner,
		LeftFlyers:    s.Visit.LeftFlyers,
		Photos:        append([]string(nil), s.Visit.Photos...),
	}
	return nil
}

// HasChanges reports whether the edit draft differs from the live visit
func (s *Session) HasChanges() bool {
	if s.Draft == nil {
		return false
	}
	d, v := s.Draft, s.Visit
	if !equalContact(d.ContactPerson, v.ContactPerson) ||
		!equalTemperature(d.Temperature, v.Temperature) ||
		d.Summary != v.Summary ||
		d.LeftBanner != v.LeftBanner ||
		d.LeftFlyers != v.LeftFlyers {
		return true
	}
	if len(d.Photos) != len(v.Photos) {
		return true
	}
	for i := range d.Photos {
		if d.Photos[i] != v.Photos[i] {
			return true
		}
	}
	return false
}

// SaveEdit validates the draft and applies it to the visit. Timestamps are
// immutable through the edit path.
func (s *Session) SaveEdit(now time.Time) error {
	if s.Draft == nil {
		return errors.NewValidationError("no edit in progress", nil)
	}
	details := map[string]interface{}{}
	if s.Draft.ContactPerson == nil {
		details["contact_person"] = "select who the conversation was with"
	}
	if s.Draft.Temperature == nil {
		details["temperature"] = "select the academy temperature"
	}
	if len([]rune(s.Draft.Summary)) > domain.MaxSummaryLength {
		details["summary"] = fmt.Sprintf("summary exceeds %d characters", domain.MaxSummaryLength)
	}
	if len(details) > 0 {
		return errors.NewValidationError("edited visit is missing required fields", details)
	}

	s.Visit.ContactPerson = s.Draft.ContactPerson
	s.Visit.Temperature = s.Draft.Temperature
	s.Visit.Summary = s.Draft.Summary
	s.Visit.LeftBanner = s.Draft.LeftBanner
	s.Visit.LeftFlyers = s.Draft.LeftFlyers
	s.Visit.Photos = append([]string(nil), s.Draft.Photos...)
	s.Visit.UpdatedAt = now.UTC()
	s.MarketingAnswered = true
	s.Draft = nil
	return nil
}

// CancelEdit discards the draft without persisting
func (s *Session) CancelEdit() {
	s.Draft = nil
}

func equalContact(a, b *domain.ContactPerson) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTemperature(a, b *domain.Temperature) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
