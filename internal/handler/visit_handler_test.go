package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjjvisits-backend/internal/domain"
	"bjjvisits-backend/pkg/errors"
)

func TestSessionTargetValidate(t *testing.T) {
	tests := []struct {
		name    string
		target  sessionTarget
		wantErr bool
		missing []string
	}{
		{
			name:   "valid",
			target: sessionTarget{EventID: "event-1", AcademyID: "academy-1"},
		},
		{
			name:    "missing event",
			target:  sessionTarget{AcademyID: "academy-1"},
			wantErr: true,
			missing: []string{"event_id"},
		},
		{
			name:    "missing academy",
			target:  sessionTarget{EventID: "event-1"},
			wantErr: true,
			missing: []string{"academy_id"},
		},
		{
			name:    "missing both",
			target:  sessionTarget{},
			wantErr: true,
			missing: []string{"event_id", "academy_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			for _, field := range tt.missing {
				assert.Contains(t, appErr.Details, field)
			}
		})
	}
}

func TestBuildEditDraft(t *testing.T) {
	owner := "OWNER"
	hot := "HOT"
	bad := "SOMETHING_ELSE"

	tests := []struct {
		name    string
		req     EditVisitRequest
		wantErr bool
	}{
		{
			name: "valid full request",
			req: EditVisitRequest{
				ContactPerson: &owner,
				Temperature:   &hot,
				Summary:       "went well",
				Photos:        []string{"a", "b"},
			},
		},
		{
			name: "unknown contact person",
			req: EditVisitRequest{
				ContactPerson: &bad,
				Temperature:   &hot,
			},
			wantErr: true,
		},
		{
			name: "unknown temperature",
			req: EditVisitRequest{
				ContactPerson: &owner,
				Temperature:   &bad,
			},
			wantErr: true,
		},
		{
			name: "too many photos",
			req: EditVisitRequest{
				ContactPerson: &owner,
				Temperature:   &hot,
				Photos:        []string{"a", "b", "c", "d"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := buildEditDraft(&tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, draft)
			assert.Equal(t, domain.ContactOwner, *draft.ContactPerson)
			assert.Equal(t, domain.TemperatureHot, *draft.Temperature)
			assert.Equal(t, tt.req.Summary, draft.Summary)
		})
	}
}
