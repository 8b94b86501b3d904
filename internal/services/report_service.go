package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/outbox"
	"lost-persons/internal/domain/report"
	"lost-persons/internal/proxy"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultReportPage  = 1
	defaultReportLimit = 10
	maxReportLimit     = 100
)

type ReportService struct {
	store         repository.Store
	directory     *Directory
	access        *proxy.AccessControl
	notifications *NotificationService
	log           *logger.Logger
}

func NewReportService(store repository.Store, directory *Directory, access *proxy.AccessControl, notifications *NotificationService, log *logger.Logger) *ReportService {
	return &ReportService{store: store, directory: directory, access: access, notifications: notifications, log: log}
}

type LastSeenInput struct {
	DateTime    time.Time
	Address     string
	Coordinates *report.Point
}

type ReportInput struct {
	ReportCode         string
	Name               string
	Age                int
	Phone              string
	Gender             report.Gender
	LastSeen           LastSeenInput
	Description        string
	Photos             []string
	Videos             []string
	Weight             string
	Height             string
	HairColor          string
	EyeColor           string
	Markup             string
	SkinColor          string
	PoliceReportNumber string
	Bonus              string
}

// ReportPatch carries the fields of a partial update. Nil fields are left unchanged.
type ReportPatch struct {
	Name               *string
	Age                *int
	Phone              *string
	Gender             *report.Gender
	LastSeenDateTime   *time.Time
	LastSeenAddress    *string
	Coordinates        *report.Point
	Description        *string
	Photos             []string
	Videos             []string
	Weight             *string
	Height             *string
	HairColor          *string
	EyeColor           *string
	Markup             *string
	SkinColor          *string
	PoliceReportNumber *string
	Bonus              *string
}

type ListReportsInput struct {
	Name   string
	AgeMin int
	AgeMax int
	Gender report.Gender
	Mine   bool
	Page   int
	Limit  int
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
	Total int64 `json:"total"`
}

type ReportPage struct {
	Reports    []ReportView `json:"reports"`
	Pagination Pagination   `json:"pagination"`
}

func (s *ReportService) Create(ctx context.Context, actor proxy.Actor, in ReportInput) (ReportView, error) {
	if err := validateReportInput(in); err != nil {
		return ReportView{}, err
	}

	now := time.Now().UTC()
	rep := report.Report{
		ID:         uuid.New(),
		ReportCode: strings.TrimSpace(in.ReportCode),
		Name:       strings.TrimSpace(in.Name),
		Age:        in.Age,
		Phone:      strings.TrimSpace(in.Phone),
		Gender:     in.Gender,
		LastSeen: report.LastSeen{
			DateTime: in.LastSeen.DateTime,
			Address:  strings.TrimSpace(in.LastSeen.Address),
		},
		Description:        in.Description,
		Photos:             in.Photos,
		Videos:             in.Videos,
		Weight:             in.Weight,
		Height:             in.Height,
		HairColor:          in.HairColor,
		EyeColor:           in.EyeColor,
		Markup:             in.Markup,
		SkinColor:          in.SkinColor,
		PoliceReportNumber: in.PoliceReportNumber,
		Bonus:              in.Bonus,
		CreatedBy:          actor.ID,
		Status:             report.StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if rep.ReportCode == "" {
		rep.ReportCode = newReportCode()
	}
	if rep.LastSeen.Address == "" {
		rep.LastSeen.Address = "Unknown"
	}
	if in.LastSeen.Coordinates != nil {
		rep.LastSeen.Coordinates = *in.LastSeen.Coordinates
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Reports().Create(ctx, &rep); err != nil {
			return err
		}
		payload := outbox.ReportCreatedPayload{
			ReportID:   rep.ID,
			ReportCode: rep.ReportCode,
			Name:       rep.Name,
			CreatedBy:  rep.CreatedBy,
		}
		return createOutboxEvent(ctx, tx.Outbox(), outbox.AggregateReport, outbox.EventReportCreated, rep.ID.String(), payload)
	})
	if err != nil {
		if errors.Is(err, lperrors.ErrConflict) {
			return ReportView{}, fmt.Errorf("duplicate report id %s: %w", rep.ReportCode, lperrors.ErrConflict)
		}
		return ReportView{}, err
	}

	s.log.Ctx(ctx).Info("report created",
		zap.String("report_id", rep.ID.String()),
		zap.String("report_code", rep.ReportCode),
	)
	return toReportView(rep, s.creatorOf(ctx, rep)), nil
}

func (s *ReportService) List(ctx context.Context, actor proxy.Actor, in ListReportsInput) (ReportPage, error) {
	if in.Page <= 0 {
		in.Page = defaultReportPage
	}
	if in.Limit <= 0 {
		in.Limit = defaultReportLimit
	}
	if in.Limit > maxReportLimit {
		in.Limit = maxReportLimit
	}
	if in.Gender != "" && !in.Gender.Valid() {
		return ReportPage{}, fmt.Errorf("gender must be Male or Female: %w", lperrors.ErrInvalidInput)
	}

	filter := report.Filter{
		Name:   strings.TrimSpace(in.Name),
		AgeMin: in.AgeMin,
		AgeMax: in.AgeMax,
		Gender: in.Gender,
		Page:   in.Page,
		Limit:  in.Limit,
	}
	if in.Mine {
		filter.CreatedBy = uuid.NullUUID{UUID: actor.ID, Valid: true}
	}

	reps, total, err := s.store.Reports().List(ctx, filter)
	if err != nil {
		return ReportPage{}, err
	}

	creators := make([]uuid.UUID, 0, len(reps))
	for _, rep := range reps {
		creators = append(creators, rep.CreatedBy)
	}
	names, err := s.directory.LookupMany(ctx, creators)
	if err != nil {
		return ReportPage{}, err
	}

	page := ReportPage{
		Reports: make([]ReportView, 0, len(reps)),
		Pagination: Pagination{
			Page:  in.Page,
			Limit: in.Limit,
			Pages: int(math.Ceil(float64(total) / float64(in.Limit))),
			Total: total,
		},
	}
	for _, rep := range reps {
		page.Reports = append(page.Reports, toReportView(rep, participantView(rep.CreatedBy, names)))
	}
	return page, nil
}

func (s *ReportService) Get(ctx context.Context, actor proxy.Actor, rawID string) (ReportView, error) {
	rep, err := s.load(ctx, rawID)
	if err != nil {
		return ReportView{}, err
	}
	if err := s.access.CanViewReport(actor, rep); err != nil {
		return ReportView{}, err
	}
	return toReportView(rep, s.creatorOf(ctx, rep)), nil
}

func (s *ReportService) Update(ctx context.Context, actor proxy.Actor, rawID string, patch ReportPatch) (ReportView, error) {
	rep, err := s.load(ctx, rawID)
	if err != nil {
		return ReportView{}, err
	}
	if err := s.access.CanEditReport(actor, rep); err != nil {
		return ReportView{}, err
	}
	if err := applyReportPatch(&rep, patch); err != nil {
		return ReportView{}, err
	}
	if err := s.store.Reports().Update(ctx, rep); err != nil {
		return ReportView{}, err
	}

	updated, err := s.store.Reports().GetByID(ctx, rep.ID)
	if err != nil {
		return ReportView{}, err
	}
	s.notifications.NotifyQuietly(ctx, updated.CreatedBy, notification.KindReport, reportUpdatedText(updated), reportRefs(updated))
	return toReportView(updated, s.creatorOf(ctx, updated)), nil
}

// Delete removes a report owned by the actor. Sightings, conversations and messages of
// the report are kept.
func (s *ReportService) Delete(ctx context.Context, actor proxy.Actor, rawID string) error {
	rep, err := s.load(ctx, rawID)
	if err != nil {
		return err
	}
	if err := s.access.CanDeleteReport(actor, rep); err != nil {
		return err
	}
	if err := s.store.Reports().Delete(ctx, rep.ID); err != nil {
		return err
	}

	s.log.Ctx(ctx).Info("report deleted", zap.String("report_code", rep.ReportCode))
	s.notifications.NotifyQuietly(ctx, rep.CreatedBy, notification.KindReport, reportDeletedText(rep), reportRefs(rep))
	return nil
}

func (s *ReportService) SetStatus(ctx context.Context, actor proxy.Actor, rawID string, status report.Status) (ReportView, error) {
	if _, err := uuid.Parse(rawID); err != nil {
		return ReportView{}, fmt.Errorf("report id: %w", lperrors.ErrInvalidInput)
	}
	if !status.Valid() {
		return ReportView{}, fmt.Errorf("status must be active or resolved: %w", lperrors.ErrInvalidInput)
	}
	if err := s.access.CanChangeReportStatus(actor); err != nil {
		return ReportView{}, err
	}
	rep, err := s.load(ctx, rawID)
	if err != nil {
		return ReportView{}, err
	}
	if err := s.store.Reports().UpdateStatus(ctx, rep.ID, status); err != nil {
		return ReportView{}, err
	}
	rep.Status = status

	s.notifications.NotifyQuietly(ctx, rep.CreatedBy, notification.KindReport, reportStatusText(rep, status), reportRefs(rep))
	return toReportView(rep, s.creatorOf(ctx, rep)), nil
}

func (s *ReportService) PostUpdate(ctx context.Context, actor proxy.Actor, rawID, content string, official bool) (UpdateView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return UpdateView{}, fmt.Errorf("content is required: %w", lperrors.ErrInvalidInput)
	}
	rep, err := s.load(ctx, rawID)
	if err != nil {
		return UpdateView{}, err
	}
	if err := s.access.CanPostUpdate(actor, rep, official); err != nil {
		return UpdateView{}, err
	}

	u := report.Update{
		ID:         uuid.New(),
		ReportID:   rep.ID,
		AuthorID:   actor.ID,
		Content:    content,
		IsOfficial: official,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Reports().CreateUpdate(ctx, &u); err != nil {
		return UpdateView{}, err
	}
	names, err := s.directory.LookupMany(ctx, []uuid.UUID{actor.ID})
	if err != nil {
		return UpdateView{}, err
	}
	return toUpdateView(u, names), nil
}

// ListUpdates returns the updates of a report, newest first.
func (s *ReportService) ListUpdates(ctx context.Context, actor proxy.Actor, rawID string) ([]UpdateView, error) {
	rep, err := s.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	updates, err := s.store.Reports().GetUpdates(ctx, rep.ID)
	if err != nil {
		return nil, err
	}

	authors := make([]uuid.UUID, 0, len(updates))
	for _, u := range updates {
		authors = append(authors, u.AuthorID)
	}
	names, err := s.directory.LookupMany(ctx, authors)
	if err != nil {
		return nil, err
	}

	views := make([]UpdateView, 0, len(updates))
	for _, u := range updates {
		views = append(views, toUpdateView(u, names))
	}
	return views, nil
}

func (s *ReportService) load(ctx context.Context, rawID string) (report.Report, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return report.Report{}, fmt.Errorf("report id: %w", lperrors.ErrInvalidInput)
	}
	return s.store.Reports().GetByID(ctx, id)
}

func (s *ReportService) creatorOf(ctx context.Context, rep report.Report) ParticipantView {
	ident, err := s.directory.Lookup(ctx, rep.CreatedBy)
	if err != nil {
		return ParticipantView{ID: rep.CreatedBy.String(), Name: unknownName}
	}
	return ParticipantView{ID: ident.ID.String(), Name: ident.Name, Email: ident.Email}
}

func validateReportInput(in ReportInput) error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.Age == 0 {
		missing = append(missing, "age")
	}
	if strings.TrimSpace(in.Phone) == "" {
		missing = append(missing, "phone")
	}
	if in.Gender == "" {
		missing = append(missing, "gender")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s: %w", strings.Join(missing, ", "), lperrors.ErrInvalidInput)
	}
	if in.Age < 0 {
		return fmt.Errorf("age must be positive: %w", lperrors.ErrInvalidInput)
	}
	if !in.Gender.Valid() {
		return fmt.Errorf("gender must be Male or Female: %w", lperrors.ErrInvalidInput)
	}
	if in.LastSeen.Coordinates != nil && !in.LastSeen.Coordinates.Valid() {
		return fmt.Errorf("invalid coordinates: %w", lperrors.ErrInvalidInput)
	}
	return nil
}

func applyReportPatch(rep *report.Report, p ReportPatch) error {
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return fmt.Errorf("name cannot be empty: %w", lperrors.ErrInvalidInput)
		}
		rep.Name = strings.TrimSpace(*p.Name)
	}
	if p.Age != nil {
		if *p.Age <= 0 {
			return fmt.Errorf("age must be positive: %w", lperrors.ErrInvalidInput)
		}
		rep.Age = *p.Age
	}
	if p.Phone != nil {
		if strings.TrimSpace(*p.Phone) == "" {
			return fmt.Errorf("phone cannot be empty: %w", lperrors.ErrInvalidInput)
		}
		rep.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Gender != nil {
		if !p.Gender.Valid() {
			return fmt.Errorf("gender must be Male or Female: %w", lperrors.ErrInvalidInput)
		}
		rep.Gender = *p.Gender
	}
	if p.Coordinates != nil {
		if !p.Coordinates.Valid() {
			return fmt.Errorf("invalid coordinates: %w", lperrors.ErrInvalidInput)
		}
		rep.LastSeen.Coordinates = *p.Coordinates
	}
	if p.LastSeenDateTime != nil {
		rep.LastSeen.DateTime = *p.LastSeenDateTime
	}
	if p.Photos != nil {
		rep.Photos = p.Photos
	}
	if p.Videos != nil {
		rep.Videos = p.Videos
	}

	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&rep.LastSeen.Address, p.LastSeenAddress},
		{&rep.Description, p.Description},
		{&rep.Weight, p.Weight},
		{&rep.Height, p.Height},
		{&rep.HairColor, p.HairColor},
		{&rep.EyeColor, p.EyeColor},
		{&rep.Markup, p.Markup},
		{&rep.SkinColor, p.SkinColor},
		{&rep.PoliceReportNumber, p.PoliceReportNumber},
		{&rep.Bonus, p.Bonus},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return nil
}

// newReportCode returns a short human-typable code such as MP-3F9A1C2B.
func newReportCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "MP-" + strings.ToUpper(raw[:8])
}
