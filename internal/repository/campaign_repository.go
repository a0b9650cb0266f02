package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
	"github.com/unclebandit/blood-dispatch/internal/model"
)

type CampaignRepositoryInterface interface {
	CreateWithRequests(ctx context.Context, c *model.Campaign, requests []model.BloodRequest) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	UpdateDonorsNotified(ctx context.Context, id string, notified int) error
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign ======================

// CreateWithRequests inserts the campaign row and all of its request records
// in one transaction. Both inserts ignore conflicts, so replaying the same
// campaign id is a no-op instead of a duplicate.
func (r *CampaignRepository) CreateWithRequests(ctx context.Context, c *model.Campaign, requests []model.BloodRequest) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin campaign tx: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO campaigns (id, hospital_id, blood_type, quantity, radius_km, broadcast_all, donors_matched, donors_notified, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO NOTHING
    `
	_, err = tx.ExecContext(ctx, query,
		c.ID, c.HospitalID, c.BloodType, c.Quantity, c.RadiusKm, c.BroadcastAll,
		c.DonorsMatched, c.DonorsNotified, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}

	if len(requests) > 0 {
		sqlText, args := buildRequestInsert(requests)
		if _, err := tx.ExecContext(ctx, sqlText, args...); err != nil {
			return fmt.Errorf("insert blood requests: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit campaign tx: %w", err)
	}
	return nil
}

var requestInsertColumns = []string{
	"id", "campaign_id", "hospital_id", "donor_id", "blood_type", "quantity",
	"distance_km", "radius_km", "status", "notification_sent", "created_at",
}

func buildRequestInsert(requests []model.BloodRequest) (string, []any) {
	placeholders := make([]string, 0, len(requests))
	args := make([]any, 0, len(requests)*len(requestInsertColumns))

	argi := 1
	for _, br := range requests {
		ph := make([]string, len(requestInsertColumns))
		for i := range ph {
			ph[i] = fmt.Sprintf("$%d", argi)
			argi++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
		args = append(args,
			br.ID, br.CampaignID, br.HospitalID, br.DonorID, string(br.BloodType), br.Quantity,
			br.DistanceKm, br.RadiusKm, string(br.Status), br.NotificationSent, br.CreatedAt,
		)
	}

	sqlText := "INSERT INTO blood_requests (" + strings.Join(requestInsertColumns, ",") + ") VALUES " +
		strings.Join(placeholders, ",") +
		" ON CONFLICT (campaign_id, donor_id) DO NOTHING"
	return sqlText, args
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	if !validID(id) {
		return nil, appErrors.NewNotFound("campaign", id)
	}
	query := `
        SELECT id, hospital_id, blood_type, quantity, radius_km, broadcast_all, donors_matched, donors_notified, created_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.HospitalID, &c.BloodType, &c.Quantity, &c.RadiusKm, &c.BroadcastAll,
		&c.DonorsMatched, &c.DonorsNotified, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("campaign", id)
		}
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}
	return &c, nil
}

func (r *CampaignRepository) UpdateDonorsNotified(ctx context.Context, id string, notified int) error {
	query := `UPDATE campaigns SET donors_notified=$1 WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, notified, id)
	if err != nil {
		return fmt.Errorf("update donors_notified for campaign %s: %w", id, err)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
