package proxy

import (
	"lost-persons/internal/domain/conversation"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/sighting"
	"lost-persons/internal/domain/user"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

// Actor is the authenticated caller as seen by policy checks.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleAdmin
}

// AccessControl evaluates one policy per action from the actor's role and identity
// and the ownership of the target resource. Checks run before any mutation.
type AccessControl struct{}

func NewAccessControl() *AccessControl {
	return &AccessControl{}
}

func (a *AccessControl) CanViewReport(actor Actor, rep report.Report) error {
	if actor.IsAdmin() || rep.CreatedBy == actor.ID {
		return nil
	}
	return lperrors.ErrForbidden
}

func (a *AccessControl) CanEditReport(actor Actor, rep report.Report) error {
	if rep.CreatedBy == actor.ID {
		return nil
	}
	return lperrors.ErrForbidden
}

// CanDeleteReport hides reports the actor does not own.
func (a *AccessControl) CanDeleteReport(actor Actor, rep report.Report) error {
	if rep.CreatedBy == actor.ID {
		return nil
	}
	return lperrors.ErrNotFound
}

func (a *AccessControl) CanChangeReportStatus(actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return lperrors.ErrForbidden
}

// CanPostUpdate allows admins, verified contacts and the creator. Only the first two may
// mark an update official.
func (a *AccessControl) CanPostUpdate(actor Actor, rep report.Report, official bool) error {
	privileged := actor.IsAdmin() || actor.Role == user.RoleVerifiedContact
	if !privileged && rep.CreatedBy != actor.ID {
		return lperrors.ErrForbidden
	}
	if official && !privileged {
		return lperrors.ErrForbidden
	}
	return nil
}

func (a *AccessControl) CanEditSighting(actor Actor, s sighting.Sighting) error {
	if actor.IsAdmin() || s.CreatedBy == actor.ID {
		return nil
	}
	return lperrors.ErrForbidden
}

func (a *AccessControl) CanChangeSightingStatus(actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return lperrors.ErrForbidden
}

func (a *AccessControl) CanViewConversation(actor Actor, c conversation.Conversation) error {
	if c.HasParticipant(actor.ID) {
		return nil
	}
	return lperrors.ErrForbidden
}

func (a *AccessControl) CanListUsers(actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return lperrors.ErrForbidden
}
