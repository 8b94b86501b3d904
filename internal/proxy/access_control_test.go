package proxy

import (
	"errors"
	"testing"

	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/sighting"
	"lost-persons/internal/domain/user"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

func TestReportPolicies(t *testing.T) {
	ac := NewAccessControl()
	creator := Actor{ID: uuid.New(), Role: user.RoleUser}
	admin := Actor{ID: uuid.New(), Role: user.RoleAdmin}
	verified := Actor{ID: uuid.New(), Role: user.RoleVerifiedContact}
	stranger := Actor{ID: uuid.New(), Role: user.RoleUser}
	rep := report.Report{ID: uuid.New(), CreatedBy: creator.ID}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"creator views", ac.CanViewReport(creator, rep), nil},
		{"admin views", ac.CanViewReport(admin, rep), nil},
		{"stranger views", ac.CanViewReport(stranger, rep), lperrors.ErrForbidden},
		{"creator edits", ac.CanEditReport(creator, rep), nil},
		{"admin edits", ac.CanEditReport(admin, rep), lperrors.ErrForbidden},
		{"creator deletes", ac.CanDeleteReport(creator, rep), nil},
		{"stranger deletes", ac.CanDeleteReport(stranger, rep), lperrors.ErrNotFound},
		{"admin changes status", ac.CanChangeReportStatus(admin), nil},
		{"creator changes status", ac.CanChangeReportStatus(creator), lperrors.ErrForbidden},
		{"creator posts update", ac.CanPostUpdate(creator, rep, false), nil},
		{"creator posts official", ac.CanPostUpdate(creator, rep, true), lperrors.ErrForbidden},
		{"verified posts official", ac.CanPostUpdate(verified, rep, true), nil},
		{"stranger posts update", ac.CanPostUpdate(stranger, rep, false), lperrors.ErrForbidden},
		{"admin lists users", ac.CanListUsers(admin), nil},
		{"user lists users", ac.CanListUsers(stranger), lperrors.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == nil && tt.err != nil {
				t.Fatalf("expected allow, got %v", tt.err)
			}
			if tt.want != nil && !errors.Is(tt.err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, tt.err)
			}
		})
	}
}

func TestSightingAndConversationPolicies(t *testing.T) {
	ac := NewAccessControl()
	author := Actor{ID: uuid.New(), Role: user.RoleUser}
	admin := Actor{ID: uuid.New(), Role: user.RoleAdmin}
	stranger := Actor{ID: uuid.New(), Role: user.RoleUser}
	s := sighting.Sighting{ID: uuid.New(), CreatedBy: author.ID}

	if err := ac.CanEditSighting(author, s); err != nil {
		t.Fatalf("author should edit: %v", err)
	}
	if err := ac.CanEditSighting(admin, s); err != nil {
		t.Fatalf("admin should edit: %v", err)
	}
	if err := ac.CanEditSighting(stranger, s); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("stranger should be forbidden, got %v", err)
	}
	if err := ac.CanChangeSightingStatus(author); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("author should not change status, got %v", err)
	}

	conv := conversation.New(uuid.New(), "R-1", "Jane", author.ID, admin.ID)
	if err := ac.CanViewConversation(admin, conv); err != nil {
		t.Fatalf("participant should view: %v", err)
	}
	if err := ac.CanViewConversation(stranger, conv); !errors.Is(err, lperrors.ErrForbidden) {
		t.Fatalf("non-participant should be forbidden, got %v", err)
	}
}
