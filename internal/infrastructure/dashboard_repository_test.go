package infrastructure_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"Ecotrack/internal/domain/dashboard"
	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/domain/program"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/infrastructure"
	"Ecotrack/internal/pkg"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/oklog/ulid/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDashboardAggregates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	citizens := &infrastructure.CitizenRepository{DB: db}
	programs := &infrastructure.ProgramRepository{DB: db}

	now := pkg.SetTimestamps()
	for _, email := range []string{"a@example.com", "b@example.com"} {
		c := &identity.Citizen{Id: ulid.Make(), Name: "Warga", Email: email, Password: "x", CreatedAt: now, UpdatedAt: now}
		if err := citizens.Create(ctx, c); err != nil {
			t.Fatalf("create citizen: %v", err)
		}
	}
	active := seedProgram(t, programs)
	inactive := &program.Program{Id: ulid.Make(), Name: "Panel Surya", TargetAmount: 3000000, Status: program.StatusInactive, CreatedAt: now, UpdatedAt: now}
	if err := programs.Create(ctx, inactive); err != nil {
		t.Fatalf("create program: %v", err)
	}

	svc := dashboard.NewService(&infrastructure.DashboardRepository{DB: db})

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Users != 2 || stats.Programs != 2 || stats.ActivePrograms != 1 || stats.UsersThisMonth != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	overview, err := svc.GetOverview(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.FinancialSummary.TotalTarget != active.TargetAmount+inactive.TargetAmount {
		t.Fatalf("unexpected financial summary %+v", overview.FinancialSummary)
	}
	if len(overview.RecentPrograms) != 2 || len(overview.RecentNews) != 0 {
		t.Fatalf("unexpected recent items %+v", overview)
	}

	monthly, err := svc.GetMonthly(ctx, now.Year())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := monthly.Stats[int(now.Month())-1]
	if row.NewUsers != 2 || row.NewPrograms != 2 {
		t.Fatalf("unexpected monthly row %+v", row)
	}
	if now.Month() != time.January && monthly.Stats[0].NewUsers != 0 {
		t.Fatalf("expected empty january, got %+v", monthly.Stats[0])
	}
}

func TestDashboardFailsClosedOnQueryError(t *testing.T) {
	t.Parallel()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).WillReturnError(errors.New("connection reset by peer"))

	svc := dashboard.NewService(&infrastructure.DashboardRepository{DB: db})
	overview, err := svc.GetOverview(context.Background())
	if overview != nil {
		t.Fatalf("expected no partial overview, got %+v", overview)
	}
	if !appErrors.HasCode(err, appErrors.ErrDatabase.Code) {
		t.Fatalf("expected DATABASE_ERROR, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
