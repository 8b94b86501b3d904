package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/sighting"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type reportRepository struct {
	s *Store
	j *journal
}

func storedReport(rep report.Report) report.Report {
	rep.Photos = cloneStrings(rep.Photos)
	rep.Videos = cloneStrings(rep.Videos)
	return rep
}

func (r *reportRepository) Create(ctx context.Context, rep *report.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.data.reports {
		if existing.ReportCode == rep.ReportCode {
			return lperrors.ErrConflict
		}
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now().UTC()
	}
	rep.UpdatedAt = rep.CreatedAt
	keepKey(r.j, r.s.data.reports, rep.ID)
	r.s.data.reports[rep.ID] = storedReport(*rep)
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (report.Report, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rep, ok := r.s.data.reports[id]
	if !ok {
		return report.Report{}, lperrors.ErrNotFound
	}
	return storedReport(rep), nil
}

func (r *reportRepository) GetByCode(ctx context.Context, code string) (report.Report, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rep := range r.s.data.reports {
		if rep.ReportCode == code {
			return storedReport(rep), nil
		}
	}
	return report.Report{}, lperrors.ErrNotFound
}

func matches(rep report.Report, f report.Filter) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(rep.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.AgeMin > 0 && rep.Age < f.AgeMin {
		return false
	}
	if f.AgeMax > 0 && rep.Age > f.AgeMax {
		return false
	}
	if f.Gender != "" && rep.Gender != f.Gender {
		return false
	}
	if f.CreatedBy.Valid && rep.CreatedBy != f.CreatedBy.UUID {
		return false
	}
	return true
}

func (r *reportRepository) List(ctx context.Context, filter report.Filter) ([]report.Report, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []report.Report
	for _, rep := range r.s.data.reports {
		if matches(rep, filter) {
			all = append(all, storedReport(rep))
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, filter.Page, filter.Limit), int64(len(all)), nil
}

func (r *reportRepository) Update(ctx context.Context, rep report.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.data.reports[rep.ID]
	if !ok {
		return lperrors.ErrNotFound
	}
	rep.ReportCode = current.ReportCode
	rep.CreatedBy = current.CreatedBy
	rep.Status = current.Status
	rep.CreatedAt = current.CreatedAt
	rep.UpdatedAt = time.Now().UTC()
	keepKey(r.j, r.s.data.reports, rep.ID)
	r.s.data.reports[rep.ID] = storedReport(rep)
	return nil
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status report.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rep, ok := r.s.data.reports[id]
	if !ok {
		return lperrors.ErrNotFound
	}
	rep.Status = status
	rep.UpdatedAt = time.Now().UTC()
	keepKey(r.j, r.s.data.reports, id)
	r.s.data.reports[id] = rep
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.data.reports[id]; !ok {
		return lperrors.ErrNotFound
	}
	keepKey(r.j, r.s.data.reports, id)
	delete(r.s.data.reports, id)
	return nil
}

func (r *reportRepository) CreateUpdate(ctx context.Context, u *report.Update) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	id := u.ID
	dropAppended(r.j, &r.s.data.updates, func(x report.Update) bool { return x.ID == id })
	r.s.data.updates = append(r.s.data.updates, *u)
	return nil
}

func (r *reportRepository) GetUpdates(ctx context.Context, reportID uuid.UUID) ([]report.Update, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []report.Update
	for i := len(r.s.data.updates) - 1; i >= 0; i-- {
		if u := r.s.data.updates[i]; u.ReportID == reportID {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type sightingRepository struct {
	s *Store
	j *journal
}

func storedSighting(s sighting.Sighting) sighting.Sighting {
	s.Photos = cloneStrings(s.Photos)
	if s.Location.Coordinates != nil {
		p := *s.Location.Coordinates
		s.Location.Coordinates = &p
	}
	return s
}

func (r *sightingRepository) Create(ctx context.Context, s *sighting.Sighting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.UpdatedAt = s.CreatedAt
	keepKey(r.j, r.s.data.sightings, s.ID)
	r.s.data.sightings[s.ID] = storedSighting(*s)
	return nil
}

func (r *sightingRepository) GetByID(ctx context.Context, id uuid.UUID) (sighting.Sighting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.data.sightings[id]
	if !ok {
		return sighting.Sighting{}, lperrors.ErrNotFound
	}
	return storedSighting(s), nil
}

func (r *sightingRepository) GetReportSightings(ctx context.Context, reportID uuid.UUID) ([]sighting.Sighting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []sighting.Sighting
	for _, s := range r.s.data.sightings {
		if s.ReportID == reportID {
			out = append(out, storedSighting(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *sightingRepository) Update(ctx context.Context, s sighting.Sighting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.data.sightings[s.ID]
	if !ok {
		return lperrors.ErrNotFound
	}
	s.ReportID = current.ReportID
	s.CreatedBy = current.CreatedBy
	s.Status = current.Status
	s.CreatedAt = current.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	keepKey(r.j, r.s.data.sightings, s.ID)
	r.s.data.sightings[s.ID] = storedSighting(s)
	return nil
}

func (r *sightingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status sighting.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s, ok := r.s.data.sightings[id]
	if !ok {
		return lperrors.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	keepKey(r.j, r.s.data.sightings, id)
	r.s.data.sightings[id] = s
	return nil
}
