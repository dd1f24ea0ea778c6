package infrastructure

import (
	"context"
	"errors"
	"time"

	"Ecotrack/internal/domain/emission"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

type EmissionRepository struct {
	DB *gorm.DB
}

type emissionDB struct {
	Id              string    `gorm:"type:varchar(26);primaryKey"`
	OwnerId         string    `gorm:"type:varchar(26);index:idx_emissions_owner_paid;not null"`
	EmissionKg      float64   `gorm:"not null"`
	DistanceKm      float64   `gorm:"not null;default:0"`
	DurationMinutes int       `gorm:"not null;default:0"`
	VehicleType     string    `gorm:"not null"`
	TripDate        time.Time `gorm:"index;not null"`
	Paid            bool      `gorm:"index:idx_emissions_owner_paid;not null;default:false"`
	CreatedAt       time.Time
}

func (emissionDB) TableName() string { return "emission_records" }

type redemptionDB struct {
	Id               string  `gorm:"type:varchar(26);primaryKey"`
	EmissionRecordId string  `gorm:"type:varchar(26);not null"`
	OwnerId          string  `gorm:"type:varchar(26);index;not null"`
	BeneficiaryId    *string `gorm:"type:varchar(26)"`
	TransactionCode  string  `gorm:"uniqueIndex;not null"`
	Amount           float64 `gorm:"not null"`
	EmissionKg       float64 `gorm:"not null;default:0"`
	RecordCount      int     `gorm:"not null;default:0"`
	RedeemedAt       time.Time
}

func (redemptionDB) TableName() string { return "emission_payments" }

func toDomainRedemption(row *redemptionDB) (*emission.Redemption, error) {
	id, err := pkg.ParseULID(row.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	record, err := pkg.ParseULID(row.EmissionRecordId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	owner, err := pkg.ParseULID(row.OwnerId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	beneficiary, err := pkg.ParseULIDPtr(row.BeneficiaryId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &emission.Redemption{
		Id:               id,
		EmissionRecordId: record,
		OwnerId:          owner,
		BeneficiaryId:    beneficiary,
		TransactionCode:  row.TransactionCode,
		Amount:           row.Amount,
		EmissionKg:       row.EmissionKg,
		RecordCount:      row.RecordCount,
		RedeemedAt:       row.RedeemedAt,
	}, nil
}

func (r *EmissionRepository) Create(ctx context.Context, rec *emission.Record) error {
	row := &emissionDB{
		Id:              rec.Id.String(),
		OwnerId:         rec.OwnerId.String(),
		EmissionKg:      rec.EmissionKg,
		DistanceKm:      rec.DistanceKm,
		DurationMinutes: rec.DurationMinutes,
		VehicleType:     rec.VehicleType,
		TripDate:        rec.TripDate.UTC(),
		Paid:            rec.Paid,
		CreatedAt:       rec.CreatedAt.UTC(),
	}
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *EmissionRepository) UnpaidTotalBetween(ctx context.Context, ownerID ulid.ULID, from, to time.Time) (float64, int64, error) {
	var result struct {
		Total   float64
		Records int64
	}
	err := r.DB.WithContext(ctx).Table("emission_records").
		Select("COALESCE(SUM(emission_kg), 0) AS total, COUNT(*) AS records").
		Where("owner_id = ? AND paid = ? AND trip_date >= ? AND trip_date < ?", ownerID.String(), false, from.UTC(), to.UTC()).
		Scan(&result).Error
	if err != nil {
		return 0, 0, appErrors.NewDatabaseError(err)
	}
	return result.Total, result.Records, nil
}

// RedeemBetween marca exatamente os ids lidos dentro da transação; se outra
// requisição pagou algum deles no meio tempo, a contagem não fecha e tudo é desfeito.
func (r *EmissionRepository) RedeemBetween(ctx context.Context, ownerID ulid.ULID, from, to time.Time, redemption *emission.Redemption) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unpaid []emissionDB
		err := tx.Table("emission_records").
			Select("id", "emission_kg").
			Where("owner_id = ? AND paid = ? AND trip_date >= ? AND trip_date < ?", ownerID.String(), false, from.UTC(), to.UTC()).
			Order("trip_date ASC, id ASC").
			Find(&unpaid).Error
		if err != nil {
			return appErrors.NewDatabaseError(err)
		}
		if len(unpaid) == 0 {
			return appErrors.ErrNoRedeemableBalance
		}

		ids := make([]string, 0, len(unpaid))
		var total float64
		for _, rec := range unpaid {
			ids = append(ids, rec.Id)
			total += rec.EmissionKg
		}

		first, err := pkg.ParseULID(ids[0])
		if err != nil {
			return appErrors.ErrInternalServer.WithError(err)
		}
		redemption.EmissionRecordId = first
		redemption.EmissionKg = total
		redemption.RecordCount = len(ids)

		row := &redemptionDB{
			Id:               redemption.Id.String(),
			EmissionRecordId: ids[0],
			OwnerId:          ownerID.String(),
			BeneficiaryId:    pkg.ULIDPtrToString(redemption.BeneficiaryId),
			TransactionCode:  redemption.TransactionCode,
			Amount:           redemption.Amount,
			EmissionKg:       total,
			RecordCount:      len(ids),
			RedeemedAt:       redemption.RedeemedAt.UTC(),
		}
		if err := tx.Create(row).Error; err != nil {
			return appErrors.NewDatabaseError(err)
		}

		result := tx.Table("emission_records").
			Where("id IN ? AND paid = ?", ids, false).
			Update("paid", true)
		if result.Error != nil {
			return appErrors.NewDatabaseError(result.Error)
		}
		if result.RowsAffected != int64(len(ids)) {
			return appErrors.NewConflictError("emission_records")
		}
		return nil
	})
	if err != nil {
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *EmissionRepository) History(ctx context.Context, ownerID ulid.ULID, pagination *pkg.PaginationParams) ([]*emission.Redemption, int64, error) {
	query := r.DB.WithContext(ctx).Model(&redemptionDB{}).Where("owner_id = ?", ownerID.String())
	out, total, err := pkg.Paginate[emission.Redemption, redemptionDB](query, pagination, "redeemed_at DESC", toDomainRedemption)
	if err != nil {
		if _, ok := appErrors.AsAppError(err); ok {
			return nil, 0, err
		}
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return out, total, nil
}
