package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lost-persons/internal/domain/report"
	lperrors "lost-persons/pkg/errors"

	"github.com/google/uuid"
)

type reportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) ReportRepository {
	return &reportRepository{db: db}
}

const reportColumns = `id, report_code, name, age, phone, gender, last_seen_at, last_seen_address, last_seen_lng, last_seen_lat,
        description, photos, videos, weight, height, hair_color, eye_color, markup, skin_color,
        police_report_number, bonus, created_by, status, created_at, updated_at`

func scanReport(row rowScanner) (report.Report, error) {
	var (
		rep      report.Report
		seenAt   sql.NullTime
		photos   []byte
		videos   []byte
		lastSeen = &rep.LastSeen
	)
	err := row.Scan(
		&rep.ID,
		&rep.ReportCode,
		&rep.Name,
		&rep.Age,
		&rep.Phone,
		&rep.Gender,
		&seenAt,
		&lastSeen.Address,
		&lastSeen.Coordinates.Longitude,
		&lastSeen.Coordinates.Latitude,
		&rep.Description,
		&photos,
		&videos,
		&rep.Weight,
		&rep.Height,
		&rep.HairColor,
		&rep.EyeColor,
		&rep.Markup,
		&rep.SkinColor,
		&rep.PoliceReportNumber,
		&rep.Bonus,
		&rep.CreatedBy,
		&rep.Status,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	)
	if err != nil {
		return report.Report{}, err
	}
	if seenAt.Valid {
		lastSeen.DateTime = seenAt.Time
	}
	if rep.Photos, err = unmarshalStrings(photos); err != nil {
		return report.Report{}, fmt.Errorf("decode photos: %w", err)
	}
	if rep.Videos, err = unmarshalStrings(videos); err != nil {
		return report.Report{}, fmt.Errorf("decode videos: %w", err)
	}
	return rep, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func (r *reportRepository) Create(ctx context.Context, rep *report.Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	now := time.Now().UTC()
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = now
	}
	rep.UpdatedAt = rep.CreatedAt
	photos, err := marshalStrings(rep.Photos)
	if err != nil {
		return err
	}
	videos, err := marshalStrings(rep.Videos)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO reports (`+reportColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
    `,
		rep.ID,
		rep.ReportCode,
		rep.Name,
		rep.Age,
		rep.Phone,
		rep.Gender,
		nullTime(rep.LastSeen.DateTime),
		rep.LastSeen.Address,
		rep.LastSeen.Coordinates.Longitude,
		rep.LastSeen.Coordinates.Latitude,
		rep.Description,
		string(photos),
		string(videos),
		rep.Weight,
		rep.Height,
		rep.HairColor,
		rep.EyeColor,
		rep.Markup,
		rep.SkinColor,
		rep.PoliceReportNumber,
		rep.Bonus,
		rep.CreatedBy,
		rep.Status,
		rep.CreatedAt,
		rep.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return lperrors.ErrConflict
		}
		return err
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (report.Report, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Report{}, lperrors.ErrNotFound
		}
		return report.Report{}, err
	}
	return rep, nil
}

func (r *reportRepository) GetByCode(ctx context.Context, code string) (report.Report, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE report_code = $1`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report.Report{}, lperrors.ErrNotFound
		}
		return report.Report{}, err
	}
	return rep, nil
}

func (r *reportRepository) List(ctx context.Context, filter report.Filter) ([]report.Report, int64, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Name != "" {
		add("name ILIKE '%%' || $%d || '%%'", filter.Name)
	}
	if filter.AgeMin > 0 {
		add("age >= $%d", filter.AgeMin)
	}
	if filter.AgeMax > 0 {
		add("age <= $%d", filter.AgeMax)
	}
	if filter.Gender != "" {
		add("gender = $%d", filter.Gender)
	}
	if filter.CreatedBy.Valid {
		add("created_by = $%d", filter.CreatedBy.UUID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	args = append(args, limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports`+clause+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reports []report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *reportRepository) Update(ctx context.Context, rep report.Report) error {
	photos, err := marshalStrings(rep.Photos)
	if err != nil {
		return err
	}
	videos, err := marshalStrings(rep.Videos)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE reports
        SET name = $1, age = $2, phone = $3, gender = $4, last_seen_at = $5, last_seen_address = $6,
            last_seen_lng = $7, last_seen_lat = $8, description = $9, photos = $10, videos = $11,
            weight = $12, height = $13, hair_color = $14, eye_color = $15, markup = $16, skin_color = $17,
            police_report_number = $18, bonus = $19, updated_at = $20
        WHERE id = $21
    `,
		rep.Name,
		rep.Age,
		rep.Phone,
		rep.Gender,
		nullTime(rep.LastSeen.DateTime),
		rep.LastSeen.Address,
		rep.LastSeen.Coordinates.Longitude,
		rep.LastSeen.Coordinates.Latitude,
		rep.Description,
		string(photos),
		string(videos),
		rep.Weight,
		rep.Height,
		rep.HairColor,
		rep.EyeColor,
		rep.Markup,
		rep.SkinColor,
		rep.PoliceReportNumber,
		rep.Bonus,
		time.Now().UTC(),
		rep.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(res, lperrors.ErrNotFound)
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status report.Status) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE reports
        SET status = $1, updated_at = $2
        WHERE id = $3
    `, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, lperrors.ErrNotFound)
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, lperrors.ErrNotFound)
}

func (r *reportRepository) CreateUpdate(ctx context.Context, u *report.Update) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO report_updates (id, report_id, author_id, content, is_official, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
    `, u.ID, u.ReportID, u.AuthorID, u.Content, u.IsOfficial, u.CreatedAt)
	return err
}

func (r *reportRepository) GetUpdates(ctx context.Context, reportID uuid.UUID) ([]report.Update, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, report_id, author_id, content, is_official, created_at
        FROM report_updates
        WHERE report_id = $1
        ORDER BY created_at DESC
    `, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []report.Update
	for rows.Next() {
		var u report.Update
		if err := rows.Scan(&u.ID, &u.ReportID, &u.AuthorID, &u.Content, &u.IsOfficial, &u.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}
