package infrastructure_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"Ecotrack/internal/domain/donation"
	"Ecotrack/internal/domain/emission"
	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/domain/news"
	"Ecotrack/internal/domain/program"
	"Ecotrack/internal/domain/trip"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/infrastructure"
	"Ecotrack/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "ecotrack.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(infrastructure.OpenSQLite(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := infrastructure.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newPooledTestDB abre o banco com várias conexões reais: WAL permite leitores
// concorrentes e _txlock=immediate faz cada transação disputar o lock de escrita.
func newPooledTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "ecotrack.db") +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := gorm.Open(infrastructure.OpenSQLite(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := infrastructure.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProgram(t *testing.T, repo *infrastructure.ProgramRepository) *program.Program {
	t.Helper()
	now := pkg.SetTimestamps()
	p := &program.Program{
		Id:           ulid.Make(),
		Name:         "Tanam Mangrove",
		Organizer:    "Yayasan Hijau",
		TargetAmount: 1000000,
		Status:       program.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("create program: %v", err)
	}
	return p
}

func seedDonation(t *testing.T, repo *infrastructure.DonationRepository, programID *ulid.ULID, orderID string, amount float64) *donation.Donation {
	t.Helper()
	now := pkg.SetTimestamps()
	d := &donation.Donation{
		Id:            ulid.Make(),
		ProgramId:     programID,
		ProgramName:   "Tanam Mangrove",
		PayerName:     "Budi",
		PayerEmail:    "budi@example.com",
		EmissionKg:    25,
		Amount:        amount,
		RatePerKg:     amount / 25,
		TransactionId: orderID,
		Status:        donation.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("create donation: %v", err)
	}
	return d
}

func settle(orderID string) donation.Reconciliation {
	status := donation.StatusSettlement
	paidAt := pkg.SetTimestamps()
	return donation.Reconciliation{
		TransactionId: orderID,
		Target:        &status,
		PaymentMethod: "bank_transfer",
		PaidAt:        &paidAt,
		Payload:       []byte(`{"transaction_status":"settlement"}`),
	}
}

func TestReconcileCreditsProgramOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	programs := &infrastructure.ProgramRepository{DB: db}
	donations := &infrastructure.DonationRepository{DB: db}
	ctx := context.Background()

	p := seedProgram(t, programs)
	seedDonation(t, donations, &p.Id, "TRX-20250101-AAAAAAAA", 50000)

	first, err := donations.Reconcile(ctx, settle("TRX-20250101-AAAAAAAA"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Transitioned || !first.Credited || first.Donation.Status != donation.StatusSettlement {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.Donation.PaidAt == nil || first.Donation.PaymentMethod != "bank_transfer" {
		t.Fatalf("expected paid_at and payment method to be stored, got %+v", first.Donation)
	}

	replay, err := donations.Reconcile(ctx, settle("TRX-20250101-AAAAAAAA"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replay.Transitioned || replay.Credited {
		t.Fatalf("replay must not transition or credit: %+v", replay)
	}

	got, err := programs.GetById(ctx, p.Id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalCollected != 50000 {
		t.Fatalf("expected total_collected 50000, got %v", got.TotalCollected)
	}
}

func TestReconcileConcurrentDeliveriesCreditOnce(t *testing.T) {
	t.Parallel()

	db := newPooledTestDB(t)
	programs := &infrastructure.ProgramRepository{DB: db}
	donations := &infrastructure.DonationRepository{DB: db}

	p := seedProgram(t, programs)
	seedDonation(t, donations, &p.Id, "TRX-20250101-BBBBBBBB", 20000)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		credits int
		start   = make(chan struct{})
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := donations.Reconcile(context.Background(), settle("TRX-20250101-BBBBBBBB"))
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if res.Credited {
				mu.Lock()
				credits++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if credits != 1 {
		t.Fatalf("expected exactly one credit, got %d", credits)
	}
	got, _ := programs.GetById(context.Background(), p.Id)
	if got.TotalCollected != 20000 {
		t.Fatalf("expected total_collected 20000, got %v", got.TotalCollected)
	}
}

func TestReconcileTerminalStateIsFinal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	programs := &infrastructure.ProgramRepository{DB: db}
	donations := &infrastructure.DonationRepository{DB: db}
	ctx := context.Background()

	p := seedProgram(t, programs)
	seedDonation(t, donations, &p.Id, "TRX-20250101-CCCCCCCC", 10000)

	failed := donation.StatusFailed
	if _, err := donations.Reconcile(ctx, donation.Reconciliation{TransactionId: "TRX-20250101-CCCCCCCC", Target: &failed}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := donations.Reconcile(ctx, settle("TRX-20250101-CCCCCCCC"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Transitioned || res.Donation.Status != donation.StatusFailed {
		t.Fatalf("failed donation must stay failed, got %+v", res)
	}
	if string(res.Donation.GatewayResponse) == "" {
		t.Fatalf("expected audit payload to be stored even without a transition")
	}
	got, _ := programs.GetById(ctx, p.Id)
	if got.TotalCollected != 0 {
		t.Fatalf("expected no credit, got %v", got.TotalCollected)
	}
}

func TestReconcileUnknownOrder(t *testing.T) {
	t.Parallel()

	donations := &infrastructure.DonationRepository{DB: newTestDB(t)}
	_, err := donations.Reconcile(context.Background(), settle("TRX-UNKNOWN"))
	if !appErrors.HasCode(err, appErrors.ErrDonationNotFound.Code) {
		t.Fatalf("expected DONATION_NOT_FOUND, got %v", err)
	}
}

func TestDonationStatsAndFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	programs := &infrastructure.ProgramRepository{DB: db}
	donations := &infrastructure.DonationRepository{DB: db}
	ctx := context.Background()

	p := seedProgram(t, programs)
	seedDonation(t, donations, &p.Id, "TRX-20250101-DDDDDDDD", 30000)
	seedDonation(t, donations, &p.Id, "TRX-20250101-EEEEEEEE", 40000)
	seedDonation(t, donations, nil, "TRX-20250101-FFFFFFFF", 5000)

	if _, err := donations.Reconcile(ctx, settle("TRX-20250101-DDDDDDDD")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := pkg.SetTimestamps()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	stats, err := donations.Stats(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalAmount != 30000 || stats.TotalTransactions != 1 || stats.TotalDonors != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.ThisMonthAmount != 30000 {
		t.Fatalf("expected this month amount 30000, got %v", stats.ThisMonthAmount)
	}
	if stats.PerStatus["pending"] != 2 || stats.PerStatus["settlement"] != 1 {
		t.Fatalf("unexpected per status %v", stats.PerStatus)
	}

	pending, total, err := donations.List(ctx, donation.Filter{Status: donation.StatusPending}, &pkg.PaginationParams{Page: 1, PerPage: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(pending) != 2 {
		t.Fatalf("expected 2 pending donations, got %d", total)
	}

	search, err := donations.Export(ctx, donation.Filter{Search: "ffffffff"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(search) != 1 || search[0].TransactionId != "TRX-20250101-FFFFFFFF" {
		t.Fatalf("unexpected search result %v", search)
	}

	today := now
	byDate, err := donations.Export(ctx, donation.Filter{StartDate: &today, EndDate: &today})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byDate) != 3 {
		t.Fatalf("expected end date to be inclusive, got %d rows", len(byDate))
	}
}

func seedEmission(t *testing.T, repo *infrastructure.EmissionRepository, owner ulid.ULID, kg float64, at time.Time) {
	t.Helper()
	rec := &emission.Record{
		Id:          ulid.Make(),
		OwnerId:     owner,
		EmissionKg:  kg,
		VehicleType: "motor",
		TripDate:    at,
		CreatedAt:   at,
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("create emission: %v", err)
	}
}

func TestRedeemMarksCurrentMonthOnce(t *testing.T) {
	t.Parallel()

	repo := &infrastructure.EmissionRepository{DB: newTestDB(t)}
	ctx := context.Background()
	owner, other := ulid.Make(), ulid.Make()

	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	seedEmission(t, repo, owner, 2.5, from.Add(48*time.Hour))
	seedEmission(t, repo, owner, 1.5, from.Add(72*time.Hour))
	seedEmission(t, repo, owner, 9, from.AddDate(0, -1, 0))
	seedEmission(t, repo, other, 4, from.Add(24*time.Hour))

	total, records, err := repo.UnpaidTotalBetween(ctx, owner, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 || records != 2 {
		t.Fatalf("expected 4 kg over 2 records, got %v over %d", total, records)
	}

	redemption := &emission.Redemption{
		Id:              ulid.Make(),
		OwnerId:         owner,
		TransactionCode: pkg.NewRedemptionCode(from),
		Amount:          10000,
		RedeemedAt:      from.Add(96 * time.Hour),
	}
	if err := repo.RedeemBetween(ctx, owner, from, to, redemption); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if redemption.RecordCount != 2 || redemption.EmissionKg != 4 {
		t.Fatalf("unexpected redemption %+v", redemption)
	}

	again := &emission.Redemption{Id: ulid.Make(), OwnerId: owner, TransactionCode: "TRX-AGAIN", Amount: 10000, RedeemedAt: to}
	err = repo.RedeemBetween(ctx, owner, from, to, again)
	if !appErrors.HasCode(err, appErrors.ErrNoRedeemableBalance.Code) {
		t.Fatalf("expected NO_REDEEMABLE_BALANCE, got %v", err)
	}

	history, count, err := repo.History(ctx, owner, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 || history[0].TransactionCode != redemption.TransactionCode {
		t.Fatalf("expected a single redemption in history, got %d", count)
	}

	otherTotal, _, _ := repo.UnpaidTotalBetween(ctx, other, from, to)
	if otherTotal != 4 {
		t.Fatalf("other owner's records must stay unpaid, got %v", otherTotal)
	}
}

func TestConcurrentRedeemPaysRecordsOnce(t *testing.T) {
	t.Parallel()

	db := newPooledTestDB(t)
	repo := &infrastructure.EmissionRepository{DB: db}
	owner := ulid.Make()

	from := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	seedEmission(t, repo, owner, 3, from.Add(24*time.Hour))
	seedEmission(t, repo, owner, 2, from.Add(48*time.Hour))

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		start     = make(chan struct{})
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			redemption := &emission.Redemption{
				Id:              ulid.Make(),
				OwnerId:         owner,
				TransactionCode: fmt.Sprintf("TRX-REDEEM-%d", i),
				Amount:          10000,
				RedeemedAt:      from.Add(72 * time.Hour),
			}
			err := repo.RedeemBetween(context.Background(), owner, from, to, redemption)
			switch {
			case err == nil:
				mu.Lock()
				succeeded++
				mu.Unlock()
			case appErrors.HasCode(err, appErrors.ErrNoRedeemableBalance.Code), appErrors.HasCode(err, "CONFLICT"):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one redemption to succeed, got %d", succeeded)
	}
	var payments int64
	if err := db.Table("emission_payments").Where("owner_id = ?", owner.String()).Count(&payments).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if payments != 1 {
		t.Fatalf("expected a single emission payment row, got %d", payments)
	}
	total, _, err := repo.UnpaidTotalBetween(context.Background(), owner, from, to)
	if err != nil || total != 0 {
		t.Fatalf("expected every record paid, got %v (%v)", total, err)
	}
}

func TestDonationsByOwner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	donations := &infrastructure.DonationRepository{DB: db}
	ctx := context.Background()
	owner := ulid.Make()

	linked := seedDonation(t, donations, nil, "TRX-20250101-GGGGGGGG", 10000)
	if err := db.Table("donasi").Where("id = ?", linked.Id.String()).Update("user_id", owner.String()).Error; err != nil {
		t.Fatalf("link donation: %v", err)
	}
	seedDonation(t, donations, nil, "TRX-20250101-HHHHHHHH", 5000)
	if _, err := donations.Reconcile(ctx, settle("TRX-20250101-GGGGGGGG")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byId, err := donations.ListByOwner(ctx, donation.Owner{UserId: owner})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byId) != 1 || byId[0].TransactionId != "TRX-20250101-GGGGGGGG" {
		t.Fatalf("expected only the linked donation, got %d", len(byId))
	}

	withEmail, err := donations.ListByOwner(ctx, donation.Owner{UserId: owner, Email: "budi@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(withEmail) != 2 {
		t.Fatalf("expected linked and guest donations, got %d", len(withEmail))
	}

	settled, err := donations.SettledEmissionByOwner(ctx, donation.Owner{UserId: owner, Email: "budi@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled != 25 {
		t.Fatalf("expected 25 kg settled, got %v", settled)
	}
}

func TestTripMonthlySummaryAndOrdering(t *testing.T) {
	t.Parallel()

	repo := &infrastructure.TripRepository{DB: newTestDB(t)}
	ctx := context.Background()
	owner := ulid.Make()

	march := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	lat, lng := -6.2, 106.8
	trips := []*trip.Trip{
		{Id: ulid.Make(), OwnerId: &owner, DistanceKm: 10, EmissionKg: 1.5, StartedAt: &march, StartLat: &lat, StartLng: &lng, RoutePoints: []trip.RoutePoint{{Lat: lat, Lng: lng}}, CreatedAt: march},
		{Id: ulid.Make(), OwnerId: &owner, DistanceKm: 5, EmissionKg: 0.5, CreatedAt: march.Add(24 * time.Hour)},
		{Id: ulid.Make(), OwnerId: &owner, DistanceKm: 100, EmissionKg: 20, CreatedAt: march.AddDate(0, 1, 0)},
	}
	for _, tr := range trips {
		if err := repo.Create(ctx, tr); err != nil {
			t.Fatalf("create trip: %v", err)
		}
	}

	from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	summary, err := repo.SummaryBetween(ctx, owner, from, from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TripCount != 2 || summary.TotalDistanceKm != 15 || summary.TotalEmissionKg != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	listed, err := repo.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 trips, got %d", len(listed))
	}
	var withRoute *trip.Trip
	for _, tr := range listed {
		if tr.Id == trips[0].Id {
			withRoute = tr
		}
	}
	if withRoute == nil || len(withRoute.RoutePoints) != 1 || withRoute.RoutePoints[0].Lat != lat {
		t.Fatalf("expected route points to round-trip through the json column")
	}
}

func TestNewsListJoinsAuthorAndSearches(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	admins := &infrastructure.AdminRepository{DB: db}
	posts := &infrastructure.NewsRepository{DB: db}
	ctx := context.Background()

	now := pkg.SetTimestamps()
	admin := &identity.Admin{Id: ulid.Make(), Name: "Siti", Email: "siti@example.com", Password: "x", CreatedAt: now, UpdatedAt: now}
	if err := admins.Create(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	older := &news.Post{Id: ulid.Make(), AuthorId: admin.Id, Title: "Hutan kota", Content: "Penanaman pohon", PublishedAt: now.Add(-time.Hour), CreatedAt: now, UpdatedAt: now}
	newer := &news.Post{Id: ulid.Make(), AuthorId: admin.Id, Title: "Transportasi publik", Content: "Kurangi emisi", PublishedAt: now, CreatedAt: now, UpdatedAt: now}
	for _, p := range []*news.Post{older, newer} {
		if err := posts.Create(ctx, p); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	listed, total, err := posts.List(ctx, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || listed[0].Id != newer.Id || listed[0].AuthorName != "Siti" {
		t.Fatalf("unexpected listing %+v", listed)
	}

	found, total, err := posts.List(ctx, "POHON", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || found[0].Id != older.Id {
		t.Fatalf("expected search to match content case-insensitively, got %d", total)
	}

	if err := posts.Delete(ctx, older.Id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := posts.GetById(ctx, older.Id); !appErrors.HasCode(err, appErrors.ErrNewsNotFound.Code) {
		t.Fatalf("expected NEWS_NOT_FOUND, got %v", err)
	}
}

func TestTokenRevocation(t *testing.T) {
	t.Parallel()

	tokens := &infrastructure.TokenRepository{DB: newTestDB(t)}
	ctx := context.Background()
	owner := ulid.Make()
	now := pkg.SetTimestamps()

	ids := make([]ulid.ULID, 0, 2)
	for i := 0; i < 2; i++ {
		tok := &identity.AuthToken{Id: ulid.Make(), OwnerId: owner, OwnerKind: identity.RoleCitizen, Name: "auth_token", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
		if err := tokens.Create(ctx, tok); err != nil {
			t.Fatalf("create token: %v", err)
		}
		ids = append(ids, tok.Id)
	}

	if err := tokens.Touch(ctx, ids[0], now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tokens.DeleteByOwner(ctx, owner, identity.RoleCitizen); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range ids {
		if _, err := tokens.GetById(ctx, id); !appErrors.HasCode(err, appErrors.ErrTokenNotFound.Code) {
			t.Fatalf("expected revoked token to be gone, got %v", err)
		}
	}
}

func TestActiveProgramsNewestFirst(t *testing.T) {
	t.Parallel()

	repo := &infrastructure.ProgramRepository{DB: newTestDB(t)}
	ctx := context.Background()
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	programs := []*program.Program{
		{Id: ulid.Make(), Name: "Alpha", Status: program.StatusActive, CreatedAt: base, UpdatedAt: base},
		{Id: ulid.Make(), Name: "Zeta", Status: program.StatusActive, CreatedAt: base.Add(time.Hour), UpdatedAt: base},
		{Id: ulid.Make(), Name: "Beta", Status: program.StatusInactive, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base},
	}
	for _, p := range programs {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create program: %v", err)
		}
	}

	active, err := repo.ListByStatus(ctx, program.StatusActive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 2 || active[0].Name != "Zeta" || active[1].Name != "Alpha" {
		t.Fatalf("expected active programs newest first, got %v", active)
	}
}
