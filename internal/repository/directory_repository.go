package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
	"github.com/unclebandit/blood-dispatch/internal/geo"
	"github.com/unclebandit/blood-dispatch/internal/model"
)

// rounding step of geo.Distance; the bounding box is padded by it so a donor
// whose rounded distance equals the radius is not lost by the prefilter
const distancePadKm = 0.01

// HospitalRepository reads hospital profiles. It never writes.
type HospitalRepository struct {
	DB *sql.DB
}

func (r *HospitalRepository) FindByID(ctx context.Context, id string) (*model.Hospital, error) {
	query := `
        SELECT id, name, latitude, longitude, contact_email, contact_phone
        FROM hospitals
        WHERE id = $1
    `
	var (
		h        model.Hospital
		lat, lon sql.NullFloat64
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.Name, &lat, &lon, &h.ContactEmail, &h.ContactPhone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("hospital", id)
		}
		return nil, fmt.Errorf("find hospital %s: %w", id, err)
	}
	h.Location = coordinates(lat, lon)
	return &h, nil
}

// DonorRepository reads donor profiles. It never writes.
type DonorRepository struct {
	DB *sql.DB
}

const donorColumns = `id, name, blood_group, phone, email, telegram_chat_id, latitude, longitude, status`

func (r *DonorRepository) FindByID(ctx context.Context, id string) (*model.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`
	d, err := scanDonor(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("donor", id)
		}
		return nil, fmt.Errorf("find donor %s: %w", id, err)
	}
	return d, nil
}

// FindNearby returns active donors with coordinates inside the bounding box
// of the radius whose blood group is one of types. The box is a superset of
// the circle, so callers filter by exact distance afterwards.
func (r *DonorRepository) FindNearby(ctx context.Context, origin model.Coordinates, radiusKm float64, types []model.BloodType) ([]model.Donor, error) {
	if len(types) == 0 {
		return []model.Donor{}, nil
	}
	groups := make([]string, len(types))
	for i, t := range types {
		groups[i] = string(t)
	}
	minLat, maxLat, minLon, maxLon := geo.BoundingBox(origin, radiusKm+distancePadKm)

	query := `
        SELECT ` + donorColumns + `
        FROM donors
        WHERE status = $1
          AND latitude IS NOT NULL AND longitude IS NOT NULL
          AND latitude BETWEEN $2 AND $3
          AND longitude BETWEEN $4 AND $5
          AND blood_group = ANY($6)
        ORDER BY id
    `
	rows, err := r.DB.QueryContext(ctx, query, string(model.DonorActive), minLat, maxLat, minLon, maxLon, pq.Array(groups))
	if err != nil {
		return nil, fmt.Errorf("find nearby donors: %w", err)
	}
	defer rows.Close()

	donors := []model.Donor{}
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donor: %w", err)
		}
		donors = append(donors, *d)
	}
	return donors, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (*model.Donor, error) {
	var (
		d        model.Donor
		group    string
		status   string
		chatID   sql.NullInt64
		lat, lon sql.NullFloat64
	)
	if err := row.Scan(&d.ID, &d.Name, &group, &d.Phone, &d.Email, &chatID, &lat, &lon, &status); err != nil {
		return nil, err
	}
	d.BloodGroup = model.BloodType(group)
	d.Status = model.DonorStatus(status)
	d.TelegramChatID = chatID.Int64
	d.Location = coordinates(lat, lon)
	return &d, nil
}

func coordinates(lat, lon sql.NullFloat64) *model.Coordinates {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &model.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
}

type HospitalDirectory interface {
	FindByID(ctx context.Context, id string) (*model.Hospital, error)
}

type DonorDirectory interface {
	FindByID(ctx context.Context, id string) (*model.Donor, error)
	FindNearby(ctx context.Context, origin model.Coordinates, radiusKm float64, types []model.BloodType) ([]model.Donor, error)
}

var (
	_ HospitalDirectory = (*HospitalRepository)(nil)
	_ DonorDirectory    = (*DonorRepository)(nil)
)
