package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const recordCols = `a.id, a.user_id, a.doctor_id, a.date, a.time_slot, a.reason, a.status, a.created_at,
	u.first_name, u.last_name, u.email, d.name, d.image_url`

const recordJoins = `FROM appointments a
	JOIN users u ON u.id = a.user_id
	JOIN doctors d ON d.id = a.doctor_id`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.DoctorID, &r.Date, &r.TimeSlot, &r.Reason, &r.Status, &r.CreatedAt,
		&r.PatientFirstName, &r.PatientLastName, &r.PatientEmail, &r.DoctorName, &r.DoctorImageURL)
	return &r, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, doctor_id, date, time_slot, reason, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		a.ID, a.UserID, a.DoctorID, a.Date, a.TimeSlot, a.Reason, a.Status).Scan(&a.CreatedAt)
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Record, error) {
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` `+recordJoins+` ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` `+recordJoins+`
		 WHERE a.user_id = $1
		 ORDER BY a.date ASC, a.time_slot ASC`, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *repoPG) BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	statuses := make([]string, len(BlockingStatuses))
	for i, s := range BlockingStatuses {
		statuses[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT time_slot FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status = ANY($3)`,
		doctorID, date, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *repoPG) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

func (r *repoPG) CountByUserAndStatus(ctx context.Context, userID uuid.UUID, status Status) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE user_id = $1 AND status = $2`, userID, status).Scan(&n)
	return n, err
}
