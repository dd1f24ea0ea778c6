package contracts

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type EmissionCreateRequest struct {
	EmissionKg      *float64 `json:"emisi_kg" binding:"required"`
	DistanceKm      *float64 `json:"jarak_km" binding:"required"`
	DurationMinutes *int     `json:"durasi_menit" binding:"required"`
	VehicleType     string   `json:"jenis_kendaraan" binding:"required,max=100"`
}

type RedeemRequest struct {
	Amount        float64 `json:"jumlah_donasi" binding:"required"`
	BeneficiaryId *string `json:"id_penerima_manfaat"`
}

type EmissionRecordResponse struct {
	Id              ulid.ULID `json:"id"`
	EmissionKg      float64   `json:"emisi_kg"`
	DistanceKm      float64   `json:"jarak_km"`
	DurationMinutes int       `json:"durasi_menit"`
	VehicleType     string    `json:"jenis_kendaraan"`
	TripDate        time.Time `json:"tanggal"`
	Paid            bool      `json:"status_bayar"`
}

type RedemptionResponse struct {
	Id              ulid.ULID  `json:"id"`
	TransactionCode string     `json:"kode_transaksi"`
	Amount          float64    `json:"jumlah_donasi"`
	EmissionKg      float64    `json:"total_emisi_kg"`
	RecordCount     int        `json:"jumlah_catatan"`
	BeneficiaryId   *ulid.ULID `json:"id_penerima_manfaat"`
	RedeemedAt      time.Time  `json:"tanggal_bayar"`
}
