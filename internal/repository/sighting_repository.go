package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lost-persons/internal/domain/report"
	"lost-persons/internal/domain/sighting"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type sightingRepository struct {
	db DBTX
}

func NewSightingRepository(db DBTX) SightingRepository {
	return &sightingRepository{db: db}
}

const sightingColumns = `id, report_id, description, seen_at, address, lng, lat, photos, created_by,
        contact_name, contact_phone, contact_email, status, created_at, updated_at`

func scanSighting(row rowScanner) (sighting.Sighting, error) {
	var (
		s        sighting.Sighting
		lng, lat sql.NullFloat64
		photos   []byte
	)
	err := row.Scan(
		&s.ID,
		&s.ReportID,
		&s.Description,
		&s.Location.DateTime,
		&s.Location.Address,
		&lng,
		&lat,
		&photos,
		&s.CreatedBy,
		&s.ContactInfo.Name,
		&s.ContactInfo.Phone,
		&s.ContactInfo.Email,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return sighting.Sighting{}, err
	}
	if lng.Valid && lat.Valid {
		s.Location.Coordinates = &report.Point{Longitude: lng.Float64, Latitude: lat.Float64}
	}
	if s.Photos, err = unmarshalStrings(photos); err != nil {
		return sighting.Sighting{}, fmt.Errorf("decode photos: %w", err)
	}
	return s, nil
}

func coordinateArgs(p *report.Point) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.Longitude, Valid: true}, sql.NullFloat64{Float64: p.Latitude, Valid: true}
}

func (r *sightingRepository) Create(ctx context.Context, s *sighting.Sighting) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.UpdatedAt = s.CreatedAt
	photos, err := marshalStrings(s.Photos)
	if err != nil {
		return err
	}
	lng, lat := coordinateArgs(s.Location.Coordinates)
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO sightings (`+sightingColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    `,
		s.ID,
		s.ReportID,
		s.Description,
		s.Location.DateTime,
		s.Location.Address,
		lng,
		lat,
		string(photos),
		s.CreatedBy,
		s.ContactInfo.Name,
		s.ContactInfo.Phone,
		s.ContactInfo.Email,
		s.Status,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *sightingRepository) GetByID(ctx context.Context, id uuid.UUID) (sighting.Sighting, error) {
	s, err := scanSighting(r.db.QueryRowContext(ctx, `SELECT `+sightingColumns+` FROM sightings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sighting.Sighting{}, lperrors.ErrNotFound
		}
		return sighting.Sighting{}, err
	}
	return s, nil
}

func (r *sightingRepository) GetReportSightings(ctx context.Context, reportID uuid.UUID) ([]sighting.Sighting, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+sightingColumns+`
        FROM sightings
        WHERE report_id = $1
        ORDER BY created_at DESC
    `, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sighting.Sighting
	for rows.Next() {
		s, err := scanSighting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sightingRepository) Update(ctx context.Context, s sighting.Sighting) error {
	photos, err := marshalStrings(s.Photos)
	if err != nil {
		return err
	}
	lng, lat := coordinateArgs(s.Location.Coordinates)
	res, err := r.db.ExecContext(ctx, `
        UPDATE sightings
        SET description = $1, seen_at = $2, address = $3, lng = $4, lat = $5, photos = $6,
            contact_name = $7, contact_phone = $8, contact_email = $9, updated_at = $10
        WHERE id = $11
    `,
		s.Description,
		s.Location.DateTime,
		s.Location.Address,
		lng,
		lat,
		string(photos),
		s.ContactInfo.Name,
		s.ContactInfo.Phone,
		s.ContactInfo.Email,
		time.Now().UTC(),
		s.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(res, lperrors.ErrNotFound)
}

func (r *sightingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status sighting.Status) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE sightings
        SET status = $1, updated_at = $2
        WHERE id = $3
    `, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, lperrors.ErrNotFound)
}
