package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
	"github.com/unclebandit/blood-dispatch/internal/model"
)

// ErrStatusConflict is returned by conditional updates whose status
// precondition did not hold (or whose record does not exist).
var ErrStatusConflict = errors.New("blood request status precondition failed")

type BloodRequestRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.BloodRequest, error)
	ListByHospital(ctx context.Context, hospitalID string, status model.RequestStatus) ([]model.BloodRequest, error)
	ListByDonor(ctx context.Context, donorID string) ([]model.BloodRequest, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]model.BloodRequest, error)
	MarkNotified(ctx context.Context, id string, at time.Time) (*model.BloodRequest, error)
	Transition(ctx context.Context, id string, to model.RequestStatus, at time.Time, from ...model.RequestStatus) (*model.BloodRequest, error)
	CountByHospital(ctx context.Context, hospitalID string) (map[model.RequestStatus]int, error)
	CountByCampaign(ctx context.Context, campaignID string) (map[model.RequestStatus]int, error)
}

type BloodRequestRepository struct {
	DB *sql.DB
}

const requestColumns = `id, campaign_id, hospital_id, donor_id, blood_type, quantity, distance_km, radius_km,
        status, notification_sent, notification_sent_at, cancelled_at, fulfilled_at, created_at`

// terminal status -> timestamp column it stamps
var transitionColumn = map[model.RequestStatus]string{
	model.StatusCancelled: "cancelled_at",
	model.StatusFulfilled: "fulfilled_at",
}

// validID reports whether id is a canonical UUID and so can name a row in a
// UUID keyed table. Postgres rejects anything else with a cast error instead
// of returning no rows.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *BloodRequestRepository) GetByID(ctx context.Context, id string) (*model.BloodRequest, error) {
	if !validID(id) {
		return nil, appErrors.NewNotFound("blood request", id)
	}
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE id=$1`
	br, err := scanRequest(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("blood request", id)
		}
		return nil, fmt.Errorf("get blood request %s: %w", id, err)
	}
	return br, nil
}

// ListByHospital returns the hospital's records, newest first. An empty
// status means no filter.
func (r *BloodRequestRepository) ListByHospital(ctx context.Context, hospitalID string, status model.RequestStatus) ([]model.BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE hospital_id=$1`
	args := []any{hospitalID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *BloodRequestRepository) ListByDonor(ctx context.Context, donorID string) ([]model.BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE donor_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, donorID)
}

func (r *BloodRequestRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.BloodRequest, error) {
	if !validID(campaignID) {
		return []model.BloodRequest{}, nil
	}
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE campaign_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, campaignID)
}

func (r *BloodRequestRepository) list(ctx context.Context, query string, args ...any) ([]model.BloodRequest, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood requests: %w", err)
	}
	defer rows.Close()

	out := []model.BloodRequest{}
	for rows.Next() {
		br, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood request: %w", err)
		}
		out = append(out, *br)
	}
	return out, rows.Err()
}

// MarkNotified moves a PENDING record to ACTIVE and stamps the notification.
func (r *BloodRequestRepository) MarkNotified(ctx context.Context, id string, at time.Time) (*model.BloodRequest, error) {
	if !validID(id) {
		return nil, ErrStatusConflict
	}
	query := `
        UPDATE blood_requests
        SET status=$2, notification_sent=TRUE, notification_sent_at=$3
        WHERE id=$1 AND status=$4
        RETURNING ` + requestColumns
	br, err := scanRequest(r.DB.QueryRowContext(ctx, query, id, string(model.StatusActive), at, string(model.StatusPending)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("mark blood request %s notified: %w", id, err)
	}
	return br, nil
}

// Transition applies a terminal transition only while the record is in one of
// the from statuses. The WHERE clause is the compare-and-set: of two
// concurrent callers exactly one gets a row back.
func (r *BloodRequestRepository) Transition(ctx context.Context, id string, to model.RequestStatus, at time.Time, from ...model.RequestStatus) (*model.BloodRequest, error) {
	column, ok := transitionColumn[to]
	if !ok {
		return nil, fmt.Errorf("no transition into status %s", to)
	}
	if !validID(id) {
		return nil, ErrStatusConflict
	}
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	query := fmt.Sprintf(`
        UPDATE blood_requests
        SET status=$2, %s=$3
        WHERE id=$1 AND status = ANY($4)
        RETURNING `+requestColumns, column)
	br, err := scanRequest(r.DB.QueryRowContext(ctx, query, id, string(to), at, pq.Array(allowed)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("transition blood request %s to %s: %w", id, to, err)
	}
	return br, nil
}

func (r *BloodRequestRepository) CountByHospital(ctx context.Context, hospitalID string) (map[model.RequestStatus]int, error) {
	return r.countBy(ctx, `SELECT status, COUNT(*) FROM blood_requests WHERE hospital_id=$1 GROUP BY status`, hospitalID)
}

func (r *BloodRequestRepository) CountByCampaign(ctx context.Context, campaignID string) (map[model.RequestStatus]int, error) {
	if !validID(campaignID) {
		return map[model.RequestStatus]int{}, nil
	}
	return r.countBy(ctx, `SELECT status, COUNT(*) FROM blood_requests WHERE campaign_id=$1 GROUP BY status`, campaignID)
}

func (r *BloodRequestRepository) countBy(ctx context.Context, query string, arg string) (map[model.RequestStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("count blood requests: %w", err)
	}
	defer rows.Close()

	counts := map[model.RequestStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[model.RequestStatus(status)] = count
	}
	return counts, rows.Err()
}

func scanRequest(row rowScanner) (*model.BloodRequest, error) {
	var (
		br                           model.BloodRequest
		bloodType, status            string
		sentAt, cancelledAt, fulfill sql.NullTime
	)
	err := row.Scan(
		&br.ID, &br.CampaignID, &br.HospitalID, &br.DonorID, &bloodType, &br.Quantity,
		&br.DistanceKm, &br.RadiusKm, &status, &br.NotificationSent,
		&sentAt, &cancelledAt, &fulfill, &br.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	br.BloodType = model.BloodType(bloodType)
	br.Status = model.RequestStatus(status)
	br.NotificationSentAt = nullTime(sentAt)
	br.CancelledAt = nullTime(cancelledAt)
	br.FulfilledAt = nullTime(fulfill)
	return &br, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

var _ BloodRequestRepositoryInterface = (*BloodRequestRepository)(nil)
