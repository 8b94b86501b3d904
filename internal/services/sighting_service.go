package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/sighting"
	"lost-persons/internal/proxy"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SightingService struct {
	store         repository.Store
	directory     *Directory
	access        *proxy.AccessControl
	notifications *NotificationService
	log           *logger.Logger
}

func NewSightingService(store repository.Store, directory *Directory, access *proxy.AccessControl, notifications *NotificationService, log *logger.Logger) *SightingService {
	return &SightingService{store: store, directory: directory, access: access, notifications: notifications, log: log}
}

type SightingInput struct {
	Description string
	DateTime    time.Time
	Address     string
	Coordinates *report.Point
	Photos      []string
	Name        string
	Phone       string
	Email       string
}

// SightingPatch carries the fields of a partial update. Nil fields are left unchanged.
type SightingPatch struct {
	Description *string
	DateTime    *time.Time
	Address     *string
	Coordinates *report.Point
	Photos      []string
	Name        *string
	Phone       *string
	Email       *string
}

// Create records a pending sighting and tells the report creator about it unless
// the creator submitted it.
func (s *SightingService) Create(ctx context.Context, actor proxy.Actor, rawReportID string, in SightingInput) (SightingView, error) {
	if strings.TrimSpace(in.Description) == "" || in.DateTime.IsZero() {
		return SightingView{}, fmt.Errorf("description and date time are required: %w", lperrors.ErrInvalidInput)
	}
	if in.Coordinates != nil && !in.Coordinates.Valid() {
		return SightingView{}, fmt.Errorf("invalid coordinates: lng (-180 to 180), lat (-90 to 90): %w", lperrors.ErrInvalidInput)
	}
	rep, err := s.loadReport(ctx, rawReportID)
	if err != nil {
		return SightingView{}, err
	}

	now := time.Now().UTC()
	sg := sighting.Sighting{
		ID:          uuid.New(),
		ReportID:    rep.ID,
		Description: strings.TrimSpace(in.Description),
		Location: sighting.Location{
			DateTime: in.DateTime.UTC(),
			Address:  strings.TrimSpace(in.Address),
		},
		Photos:    in.Photos,
		CreatedBy: actor.ID,
		ContactInfo: sighting.ContactInfo{
			Name:  in.Name,
			Phone: in.Phone,
			Email: in.Email,
		},
		Status:    sighting.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Coordinates != nil {
		p := *in.Coordinates
		sg.Location.Coordinates = &p
	}
	if err := s.store.Sightings().Create(ctx, &sg); err != nil {
		return SightingView{}, err
	}

	author := s.authorOf(ctx, actor.ID)
	if rep.CreatedBy != uuid.Nil && rep.CreatedBy != actor.ID {
		refs := reportRefs(rep)
		refs.ActorName = author.Name
		s.notifications.NotifyQuietly(ctx, rep.CreatedBy, notification.KindSighting, sightingText(author.Name, rep), refs)
	}

	s.log.Ctx(ctx).Info("sighting reported",
		zap.String("sighting_id", sg.ID.String()),
		zap.String("report_code", rep.ReportCode),
	)
	return toSightingView(sg, author), nil
}

// List returns the sightings of an existing report, newest first.
func (s *SightingService) List(ctx context.Context, rawReportID string) ([]SightingView, error) {
	rep, err := s.loadReport(ctx, rawReportID)
	if err != nil {
		return nil, err
	}
	sightings, err := s.store.Sightings().GetReportSightings(ctx, rep.ID)
	if err != nil {
		return nil, err
	}

	authors := make([]uuid.UUID, 0, len(sightings))
	for _, sg := range sightings {
		authors = append(authors, sg.CreatedBy)
	}
	names, err := s.directory.LookupMany(ctx, authors)
	if err != nil {
		return nil, err
	}

	views := make([]SightingView, 0, len(sightings))
	for _, sg := range sightings {
		views = append(views, toSightingView(sg, participantView(sg.CreatedBy, names)))
	}
	return views, nil
}

func (s *SightingService) Update(ctx context.Context, actor proxy.Actor, rawID string, patch SightingPatch) (SightingView, error) {
	sg, err := s.load(ctx, rawID)
	if err != nil {
		return SightingView{}, err
	}
	if err := s.access.CanEditSighting(actor, sg); err != nil {
		return SightingView{}, err
	}

	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return SightingView{}, fmt.Errorf("description cannot be empty: %w", lperrors.ErrInvalidInput)
		}
		sg.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.DateTime != nil {
		sg.Location.DateTime = patch.DateTime.UTC()
	}
	if patch.Address != nil {
		sg.Location.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Coordinates != nil {
		if !patch.Coordinates.Valid() {
			return SightingView{}, fmt.Errorf("invalid coordinates: %w", lperrors.ErrInvalidInput)
		}
		p := *patch.Coordinates
		sg.Location.Coordinates = &p
	}
	if patch.Photos != nil {
		sg.Photos = patch.Photos
	}
	if patch.Name != nil {
		sg.ContactInfo.Name = *patch.Name
	}
	if patch.Phone != nil {
		sg.ContactInfo.Phone = *patch.Phone
	}
	if patch.Email != nil {
		sg.ContactInfo.Email = *patch.Email
	}

	if err := s.store.Sightings().Update(ctx, sg); err != nil {
		return SightingView{}, err
	}
	updated, err := s.store.Sightings().GetByID(ctx, sg.ID)
	if err != nil {
		return SightingView{}, err
	}
	return toSightingView(updated, s.authorOf(ctx, updated.CreatedBy)), nil
}

func (s *SightingService) SetStatus(ctx context.Context, actor proxy.Actor, rawID string, status sighting.Status) (SightingView, error) {
	if !status.Valid() {
		return SightingView{}, fmt.Errorf("status must be pending, verified or rejected: %w", lperrors.ErrInvalidInput)
	}
	if err := s.access.CanChangeSightingStatus(actor); err != nil {
		return SightingView{}, err
	}
	sg, err := s.load(ctx, rawID)
	if err != nil {
		return SightingView{}, err
	}
	if err := s.store.Sightings().UpdateStatus(ctx, sg.ID, status); err != nil {
		return SightingView{}, err
	}
	sg.Status = status
	return toSightingView(sg, s.authorOf(ctx, sg.CreatedBy)), nil
}

func (s *SightingService) load(ctx context.Context, rawID string) (sighting.Sighting, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return sighting.Sighting{}, fmt.Errorf("sighting id: %w", lperrors.ErrInvalidInput)
	}
	return s.store.Sightings().GetByID(ctx, id)
}

func (s *SightingService) loadReport(ctx context.Context, rawID string) (report.Report, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return report.Report{}, fmt.Errorf("report id: %w", lperrors.ErrInvalidInput)
	}
	return s.store.Reports().GetByID(ctx, id)
}

func (s *SightingService) authorOf(ctx context.Context, id uuid.UUID) ParticipantView {
	ident, err := s.directory.Lookup(ctx, id)
	if err != nil {
		return ParticipantView{ID: id.String(), Name: unknownName}
	}
	return ParticipantView{ID: ident.ID.String(), Name: ident.Name, Email: ident.Email}
}
