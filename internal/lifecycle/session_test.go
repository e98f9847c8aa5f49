package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/errors"
)

func newActiveSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession("event-1", "academy-1", "sales-1")
	require.NoError(t, s.Start(time.Now()))
	return s
}

func fillRequired(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.SetContactPerson(domain.ContactOwner))
	require.NoError(t, s.SetTemperature(domain.TemperatureHot))
	s.SetMarketing(true, false)
}

func TestSessionStart(t *testing.T) {
	s := NewSession("event-1", "academy-1", "sales-1")
	assert.Equal(t, StepStart, s.Step)
	assert.Equal(t, domain.VisitStatusPending, s.Visit.Status)

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Start(now))
	assert.Equal(t, StepActive, s.Step)
	require.NotNil(t, s.Visit.StartedAt)
	assert.Equal(t, now, *s.Visit.StartedAt)

	// starting twice is rejected and the original timestamp survives
	err := s.Start(now.Add(time.Hour))
	assert.Error(t, err)
	assert.Equal(t, now, *s.Visit.StartedAt)
}

func TestResumeInfersStep(t *testing.T) {
	started := time.Now().Add(-20 * time.Minute)
	finished := time.Now()

	tests := []struct {
		name         string
		visit        *domain.Visit
		wantStep     Step
		wantAnswered bool
	}{
		{
			name:     "not started",
			visit:    &domain.Visit{Status: domain.VisitStatusPending},
			wantStep: StepStart,
		},
		{
			name:     "started but not finished",
			visit:    &domain.Visit{Status: domain.VisitStatusPending, StartedAt: &started},
			wantStep: StepActive,
		},
		{
			name:         "finalized",
			visit:        &domain.Visit{Status: domain.VisitStatusVisited, StartedAt: &started, FinishedAt: &finished},
			wantStep:     StepSummary,
			wantAnswered: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Resume(tt.visit)
			assert.Equal(t, tt.wantStep, s.Step)
			assert.Equal(t, tt.wantAnswered, s.MarketingAnswered)
		})
	}
}

func TestResumeClonesVisit(t *testing.T) {
	visit := &domain.Visit{Status: domain.VisitStatusPending, Photos: []string{"a"}}
	s := Resume(visit)
	require.NoError(t, s.AddPhoto("b"))
	assert.Len(t, visit.Photos, 1)
}

func TestFinishRequiresAllFields(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*testing.T, *Session)
		missing []string
	}{
		{
			name:    "nothing set",
			prepare: func(t *testing.T, s *Session) {},
			missing: []string{"contact_person", "temperature", "marketing"},
		},
		{
			name: "marketing unanswered",
			prepare: func(t *testing.T, s *Session) {
				require.NoError(t, s.SetContactPerson(domain.ContactTeacher))
				require.NoError(t, s.SetTemperature(domain.TemperatureWarm))
			},
			missing: []string{"marketing"},
		},
		{
			name: "contact missing",
			prepare: func(t *testing.T, s *Session) {
				require.NoError(t, s.SetTemperature(domain.TemperatureCold))
				s.ClearMarketing()
			},
			missing: []string{"contact_person"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newActiveSession(t)
			tt.prepare(t, s)

			err := s.Finish(time.Now())
			require.Error(t, err)

			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			for _, field := range tt.missing {
				assert.Contains(t, appErr.Details, field)
			}
			assert.Len(t, appErr.Details, len(tt.missing))

			// failed finalize leaves the session untouched
			assert.Equal(t, StepActive, s.Step)
			assert.Nil(t, s.Visit.FinishedAt)
			assert.Equal(t, domain.VisitStatusPending, s.Visit.Status)
		})
	}
}

func TestFinishFinalizes(t *testing.T) {
	s := newActiveSession(t)
	fillRequired(t, s)

	now := time.Date(2026, 3, 14, 10, 45, 0, 0, time.UTC)
	require.NoError(t, s.Finish(now))

	assert.Equal(t, StepSummary, s.Step)
	assert.Equal(t, domain.VisitStatusVisited, s.Visit.Status)
	require.NotNil(t, s.Visit.FinishedAt)
	assert.Equal(t, now, *s.Visit.FinishedAt)
}

func TestClearMarketingCountsAsAnswered(t *testing.T) {
	s := newActiveSession(t)
	require.NoError(t, s.SetContactPerson(domain.ContactNobody))
	require.NoError(t, s.SetTemperature(domain.TemperatureCold))
	s.ClearMarketing()

	assert.False(t, s.Visit.LeftBanner)
	assert.False(t, s.Visit.LeftFlyers)
	require.NoError(t, s.Finish(time.Now()))
}

func TestPhotoCap(t *testing.T) {
	s := newActiveSession(t)
	for i := 0; i < domain.MaxVisitPhotos; i++ {
		require.NoError(t, s.AddPhoto("photo"))
	}
	assert.Error(t, s.AddPhoto("one too many"))
	assert.Len(t, s.Visit.Photos, domain.MaxVisitPhotos)

	require.NoError(t, s.RemovePhoto(0))
	require.NoError(t, s.AddPhoto("replacement"))
	assert.Error(t, s.RemovePhoto(5))
}

func TestSummaryLength(t *testing.T) {
	s := newActiveSession(t)

	// multibyte runes, so the limit must count characters and not bytes
	long := make([]rune, domain.MaxSummaryLength+1)
	for i := range long {
		long[i] = 'é'
	}
	assert.Error(t, s.SetSummary(string(long)))
	require.NoError(t, s.SetSummary(string(long[:domain.MaxSummaryLength])))
}

func TestVoucherCodesAreLIFO(t *testing.T) {
	s := newActiveSession(t)
	require.NoError(t, s.BeginVouchers())

	require.NoError(t, s.AddCode("ABC123"))
	require.NoError(t, s.AddCode("DEF456"))
	require.NoError(t, s.AddCode("GHI789"))

	require.NoError(t, s.RemoveLastCode())
	assert.Equal(t, []string{"ABC123", "DEF456"}, s.PendingCodes)

	require.NoError(t, s.RemoveLastCode())
	require.NoError(t, s.RemoveLastCode())
	assert.Error(t, s.RemoveLastCode(), "removing from empty list")
}

func TestConfirmVouchersRequiresACode(t *testing.T) {
	s := newActiveSession(t)
	require.NoError(t, s.BeginVouchers())

	assert.Error(t, s.ConfirmVouchers())
	assert.Equal(t, StepVouchers, s.Step)

	require.NoError(t, s.AddCode("ABC123"))
	require.NoError(t, s.ConfirmVouchers())
	assert.Equal(t, StepQRCode, s.Step)
}

func TestBackToActiveKeepsCodes(t *testing.T) {
	s := newActiveSession(t)
	require.NoError(t, s.BeginVouchers())
	require.NoError(t, s.AddCode("ABC123"))

	require.NoError(t, s.BackToActive())
	assert.Equal(t, StepActive, s.Step)
	assert.Equal(t, []string{"ABC123"}, s.PendingCodes)
}

func TestCompleteAppendsPendingCodes(t *testing.T) {
	s := newActiveSession(t)
	fillRequired(t, s)
	require.NoError(t, s.BeginVouchers())
	require.NoError(t, s.AddCode("ABC123"))
	require.NoError(t, s.AddCode("DEF456"))
	require.NoError(t, s.ConfirmVouchers())

	require.NoError(t, s.Complete(time.Now()))
	assert.Equal(t, StepSummary, s.Step)
	assert.Equal(t, domain.VisitStatusVisited, s.Visit.Status)
	assert.Equal(t, []string{"ABC123", "DEF456"}, s.Visit.VouchersGenerated)
}

func TestCompleteValidatesRequiredFields(t *testing.T) {
	s := newActiveSession(t)
	require.NoError(t, s.BeginVouchers())
	require.NoError(t, s.AddCode("ABC123"))
	require.NoError(t, s.ConfirmVouchers())

	err := s.Complete(time.Now())
	require.Error(t, err)
	assert.Equal(t, StepQRCode, s.Step)
	assert.Empty(t, s.Visit.VouchersGenerated)
}

func TestFinishRejectedOutsideActive(t *testing.T) {
	s := newActiveSession(t)
	fillRequired(t, s)
	require.NoError(t, s.BeginVouchers())

	assert.Error(t, s.Finish(time.Now()))
	assert.Error(t, s.Complete(time.Now()))
}

func finishedSession(t *testing.T) *Session {
	t.Helper()
	s := newActiveSession(t)
	fillRequired(t, s)
	require.NoError(t, s.SetSummary("good talk with the owner"))
	require.NoError(t, s.Finish(time.Now()))
	return s
}

func TestEditOverlay(t *testing.T) {
	s := finishedSession(t)

	require.NoError(t, s.StartEdit())
	require.NotNil(t, s.Draft)
	assert.False(t, s.HasChanges(), "freshly seeded draft has no changes")

	s.Draft.Summary = "changed my mind"
	assert.True(t, s.HasChanges())

	// cancel discards everything
	s.CancelEdit()
	assert.Equal(t, "good talk with the owner", s.Visit.Summary)
	assert.False(t, s.HasChanges())
}

func TestEditPhotoChangesAreDetected(t *testing.T) {
	s := finishedSession(t)
	require.NoError(t, s.StartEdit())

	s.Draft.Photos = append(s.Draft.Photos, "new-photo")
	assert.True(t, s.HasChanges())
}

func TestSaveEdit(t *testing.T) {
	s := finishedSession(t)
	finishedAt := *s.Visit.FinishedAt

	require.NoError(t, s.StartEdit())
	cold := domain.TemperatureCold
	s.Draft.Temperature = &cold
	s.Draft.Summary = "follow up next month"

	now := time.Now().Add(time.Hour)
	require.NoError(t, s.SaveEdit(now))

	assert.Nil(t, s.Draft)
	assert.Equal(t, domain.TemperatureCold, *s.Visit.Temperature)
	assert.Equal(t, "follow up next month", s.Visit.Summary)
	assert.Equal(t, now.UTC(), s.Visit.UpdatedAt)
	// timestamps are immutable through the edit path
	assert.Equal(t, finishedAt, *s.Visit.FinishedAt)
}

func TestSaveEditValidates(t *testing.T) {
	s := finishedSession(t)
	require.NoError(t, s.StartEdit())
	s.Draft.ContactPerson = nil

	err := s.SaveEdit(time.Now())
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Contains(t, appErr.Details, "contact_person")
	// the visit keeps its previous values
	assert.NotNil(t, s.Visit.ContactPerson)
}

func TestEnumValidation(t *testing.T) {
	s := newActiveSession(t)
	assert.Error(t, s.SetContactPerson("JANITOR"))
	assert.Error(t, s.SetTemperature("LUKEWARM"))
	require.NoError(t, s.SetContactPerson(domain.ContactStaff))
	require.NoError(t, s.SetTemperature(domain.TemperatureWarm))
}
