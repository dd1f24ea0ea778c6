package infrastructure

import (
	"context"
	"errors"
	"strings"
	"time"

	"Ecotrack/internal/domain/donation"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/logger"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DonationRepository struct {
	DB *gorm.DB
}

type donationDB struct {
	Id              string  `gorm:"type:varchar(26);primaryKey"`
	UserId          *string `gorm:"type:varchar(26);index"`
	ProgramId       *string `gorm:"type:varchar(26);index"`
	ProgramName     string
	UserName        string  `gorm:"not null"`
	UserEmail       string  `gorm:"index;not null"`
	UserPhone       string
	EmisiKg         float64 `gorm:"not null"`
	NominalDonasi   float64 `gorm:"not null"`
	RatePerKg       float64 `gorm:"not null;default:0"`
	TransactionId   string  `gorm:"uniqueIndex;not null"`
	PaymentMethod   string
	PaymentStatus   string `gorm:"type:varchar(16);index;not null"`
	PaidAt          *time.Time
	PaymentResponse datatypes.JSON
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (donationDB) TableName() string { return "donasi" }

func toDomainDonation(row *donationDB) (*donation.Donation, error) {
	id, err := pkg.ParseULID(row.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	userID, err := pkg.ParseULIDPtr(row.UserId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	programID, err := pkg.ParseULIDPtr(row.ProgramId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &donation.Donation{
		Id:              id,
		UserId:          userID,
		ProgramId:       programID,
		ProgramName:     row.ProgramName,
		PayerName:       row.UserName,
		PayerEmail:      row.UserEmail,
		PayerPhone:      row.UserPhone,
		EmissionKg:      row.EmisiKg,
		Amount:          row.NominalDonasi,
		RatePerKg:       row.RatePerKg,
		TransactionId:   row.TransactionId,
		PaymentMethod:   row.PaymentMethod,
		Status:          donation.Status(row.PaymentStatus),
		PaidAt:          row.PaidAt,
		GatewayResponse: []byte(row.PaymentResponse),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func toDBDonation(d *donation.Donation) *donationDB {
	row := &donationDB{
		Id:            d.Id.String(),
		UserId:        pkg.ULIDPtrToString(d.UserId),
		ProgramId:     pkg.ULIDPtrToString(d.ProgramId),
		ProgramName:   d.ProgramName,
		UserName:      d.PayerName,
		UserEmail:     d.PayerEmail,
		UserPhone:     d.PayerPhone,
		EmisiKg:       d.EmissionKg,
		NominalDonasi: d.Amount,
		RatePerKg:     d.RatePerKg,
		TransactionId: d.TransactionId,
		PaymentMethod: d.PaymentMethod,
		PaymentStatus: string(d.Status),
		PaidAt:        d.PaidAt,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if len(d.GatewayResponse) > 0 {
		row.PaymentResponse = datatypes.JSON(d.GatewayResponse)
	}
	return row
}

func (r *DonationRepository) Create(ctx context.Context, d *donation.Donation) error {
	if err := r.DB.WithContext(ctx).Create(toDBDonation(d)).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *DonationRepository) GetById(ctx context.Context, id ulid.ULID) (*donation.Donation, error) {
	return r.first(r.DB.WithContext(ctx), "id = ?", id.String())
}

func (r *DonationRepository) GetByTransactionId(ctx context.Context, transactionID string) (*donation.Donation, error) {
	return r.first(r.DB.WithContext(ctx), "transaction_id = ?", transactionID)
}

func (r *DonationRepository) first(db *gorm.DB, where string, arg interface{}) (*donation.Donation, error) {
	var row donationDB
	if err := db.Table("donasi").Where(where, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrDonationNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainDonation(&row)
}

// Reconcile grava o payload do webhook e aplica a transição pending -> terminal.
// O UPDATE condicional é o que torna o crédito do programa idempotente: reentregas
// encontram a doação fora de pending, não afetam linhas e não creditam de novo.
func (r *DonationRepository) Reconcile(ctx context.Context, rec donation.Reconciliation) (*donation.ReconcileResult, error) {
	result := &donation.ReconcileResult{}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row donationDB
		if err := tx.Table("donasi").Where("transaction_id = ?", rec.TransactionId).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appErrors.ErrDonationNotFound.WithError(err)
			}
			return appErrors.NewDatabaseError(err)
		}

		now := pkg.SetTimestamps()
		audit := map[string]interface{}{"updated_at": now}
		if len(rec.Payload) > 0 {
			audit["payment_response"] = datatypes.JSON(rec.Payload)
		}
		if rec.PaymentMethod != "" {
			audit["payment_method"] = rec.PaymentMethod
		}
		if err := tx.Table("donasi").Where("id = ?", row.Id).Updates(audit).Error; err != nil {
			return appErrors.NewDatabaseError(err)
		}

		if rec.Target != nil {
			changes := map[string]interface{}{
				"payment_status": string(*rec.Target),
				"updated_at":     now,
			}
			if rec.PaidAt != nil {
				changes["paid_at"] = rec.PaidAt.UTC()
			}
			transition := tx.Table("donasi").
				Where("id = ? AND payment_status = ?", row.Id, string(donation.StatusPending)).
				Updates(changes)
			if transition.Error != nil {
				return appErrors.NewDatabaseError(transition.Error)
			}
			result.Transitioned = transition.RowsAffected == 1
		}

		if result.Transitioned && *rec.Target == donation.StatusSettlement && row.ProgramId != nil {
			credit := tx.Table("programs").
				Where("id = ?", *row.ProgramId).
				Updates(map[string]interface{}{
					"total_collected": gorm.Expr("total_collected + ?", row.NominalDonasi),
					"updated_at":      now,
				})
			if credit.Error != nil {
				return appErrors.NewDatabaseError(credit.Error)
			}
			if credit.RowsAffected == 0 {
				logger.Warn().
					Str("transaction_id", rec.TransactionId).
					Str("program_id", *row.ProgramId).
					Msg("Programa da doação não existe mais; crédito ignorado")
			}
			result.Credited = credit.RowsAffected == 1
		}

		var updated donationDB
		if err := tx.Table("donasi").Where("id = ?", row.Id).First(&updated).Error; err != nil {
			return appErrors.NewDatabaseError(err)
		}
		d, err := toDomainDonation(&updated)
		if err != nil {
			return err
		}
		result.Donation = d
		return nil
	})
	if err != nil {
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return result, nil
}

func (r *DonationRepository) filtered(ctx context.Context, filter donation.Filter) *gorm.DB {
	query := r.DB.WithContext(ctx).Model(&donationDB{})
	if filter.ProgramId != nil {
		query = query.Where("program_id = ?", filter.ProgramId.String())
	}
	if filter.Status != "" {
		query = query.Where("payment_status = ?", string(filter.Status))
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", startOfDay(*filter.StartDate))
	}
	if filter.EndDate != nil {
		query = query.Where("created_at < ?", startOfDay(*filter.EndDate).AddDate(0, 0, 1))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(user_name) LIKE ? OR LOWER(user_email) LIKE ? OR LOWER(transaction_id) LIKE ?", like, like, like)
	}
	return query
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *DonationRepository) List(ctx context.Context, filter donation.Filter, pagination *pkg.PaginationParams) ([]*donation.Donation, int64, error) {
	out, total, err := pkg.Paginate[donation.Donation, donationDB](r.filtered(ctx, filter), pagination, "created_at DESC", toDomainDonation)
	if err != nil {
		if _, ok := appErrors.AsAppError(err); ok {
			return nil, 0, err
		}
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return out, total, nil
}

func (r *DonationRepository) Export(ctx context.Context, filter donation.Filter) ([]*donation.Donation, error) {
	var rows []donationDB
	if err := r.filtered(ctx, filter).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	out := make([]*donation.Donation, 0, len(rows))
	for i := range rows {
		d, err := toDomainDonation(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *DonationRepository) owned(ctx context.Context, owner donation.Owner) *gorm.DB {
	query := r.DB.WithContext(ctx).Model(&donationDB{})
	if owner.Email == "" {
		return query.Where("user_id = ?", owner.UserId.String())
	}
	return query.Where("user_id = ? OR (user_id IS NULL AND user_email = ?)", owner.UserId.String(), owner.Email)
}

func (r *DonationRepository) ListByOwner(ctx context.Context, owner donation.Owner) ([]*donation.Donation, error) {
	var rows []donationDB
	if err := r.owned(ctx, owner).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	out := make([]*donation.Donation, 0, len(rows))
	for i := range rows {
		d, err := toDomainDonation(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *DonationRepository) SettledEmissionByOwner(ctx context.Context, owner donation.Owner) (float64, error) {
	var result struct{ Total float64 }
	err := r.owned(ctx, owner).
		Select("COALESCE(SUM(emisi_kg), 0) AS total").
		Where("payment_status = ?", string(donation.StatusSettlement)).
		Scan(&result).Error
	if err != nil {
		return 0, appErrors.NewDatabaseError(err)
	}
	return result.Total, nil
}

func (r *DonationRepository) Stats(ctx context.Context, monthFrom, monthTo time.Time) (*donation.Stats, error) {
	db := r.DB.WithContext(ctx)
	settled := string(donation.StatusSettlement)
	stats := &donation.Stats{PerStatus: map[string]int64{}, PerProgram: []donation.ProgramTotal{}}

	var totals struct {
		TotalAmount     float64
		TotalEmissionKg float64
		Transactions    int64
		Donors          int64
	}
	err := db.Table("donasi").
		Select("COALESCE(SUM(nominal_donasi), 0) AS total_amount, COALESCE(SUM(emisi_kg), 0) AS total_emission_kg, COUNT(*) AS transactions, COUNT(DISTINCT user_email) AS donors").
		Where("payment_status = ?", settled).
		Scan(&totals).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	stats.TotalAmount = totals.TotalAmount
	stats.TotalEmissionKg = totals.TotalEmissionKg
	stats.TotalTransactions = totals.Transactions
	stats.TotalDonors = totals.Donors

	var thisMonth struct{ Total float64 }
	err = db.Table("donasi").
		Select("COALESCE(SUM(nominal_donasi), 0) AS total").
		Where("payment_status = ? AND created_at >= ? AND created_at < ?", settled, monthFrom.UTC(), monthTo.UTC()).
		Scan(&thisMonth).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	stats.ThisMonthAmount = thisMonth.Total

	var perStatus []struct {
		PaymentStatus string
		Total         int64
	}
	err = db.Table("donasi").
		Select("payment_status, COUNT(*) AS total").
		Group("payment_status").
		Scan(&perStatus).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	for _, row := range perStatus {
		stats.PerStatus[row.PaymentStatus] = row.Total
	}

	err = db.Table("donasi").
		Select("program_name, COUNT(*) AS count, COALESCE(SUM(nominal_donasi), 0) AS amount").
		Where("payment_status = ?", settled).
		Group("program_name").
		Order("amount DESC").
		Scan(&stats.PerProgram).Error
	if err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	return stats, nil
}
