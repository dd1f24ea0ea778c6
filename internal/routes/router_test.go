package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Ecotrack/config"
	"Ecotrack/internal/domain/dashboard"
	"Ecotrack/internal/domain/donation"
	"Ecotrack/internal/domain/emission"
	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/domain/news"
	"Ecotrack/internal/domain/program"
	"Ecotrack/internal/domain/trip"
	"Ecotrack/internal/gateway/midtrans"
	"Ecotrack/internal/infrastructure"
	"Ecotrack/internal/middleware"
	"Ecotrack/internal/routes"
	"Ecotrack/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const serverKey = "SB-Mid-server-test"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	routes.RegisterValidatorTagNames()
	os.Exit(m.Run())
}

type fakeGateway struct{}

func (fakeGateway) CreateTransaction(ctx context.Context, req donation.ChargeRequest) (*donation.Charge, error) {
	return &donation.Charge{Token: "snap-" + req.OrderId, RedirectURL: "https://pay.test/" + req.OrderId}, nil
}

func (fakeGateway) Status(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return map[string]interface{}{"order_id": orderID, "transaction_status": "pending"}, nil
}

func (fakeGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	return midtrans.Signature(orderID, statusCode, grossAmount, serverKey) == signature
}

type testApp struct {
	router   *gin.Engine
	identity *identity.Service
	db       *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "api.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(infrastructure.OpenSQLite(dsn), &gorm.Config{TranslateError: true})
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

	assets, err := storage.NewLocalStore(filepath.Join(dir, "public"), "http://localhost/storage")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	jwtSvc, err := middleware.NewJwtService(config.JWTConfig{Secret: "router-test-secret", Issuer: "ecotrack"})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	programs := &infrastructure.ProgramRepository{DB: db}
	identitySvc := identity.NewService(
		&infrastructure.AdminRepository{DB: db},
		&infrastructure.CitizenRepository{DB: db},
		&infrastructure.TokenRepository{DB: db},
		jwtSvc,
		assets,
		time.Hour,
	)
	identitySvc.PasswordCost = bcrypt.MinCost

	h := &routes.Handler{
		IdentityService:  identitySvc,
		NewsService:      news.NewService(&infrastructure.NewsRepository{DB: db}, assets),
		TripService:      trip.NewService(&infrastructure.TripRepository{DB: db}),
		EmissionService:  emission.NewService(&infrastructure.EmissionRepository{DB: db}),
		ProgramService:   program.NewService(programs),
		DonationService:  donation.NewService(&infrastructure.DonationRepository{DB: db}, programs, fakeGateway{}, nil, time.Second),
		DashboardService: dashboard.NewService(&infrastructure.DashboardRepository{DB: db}),
		Assets:           assets,
	}

	limiter := middleware.NewRateLimiter(1000, 1000)
	router := gin.New()
	router.NoRoute(h.NotFound)
	routes.Register(router.Group("/api"), h, routes.Guards{
		Auth:     middleware.AuthMiddleware(jwtSvc, identitySvc),
		Optional: middleware.OptionalAuth(jwtSvc, identitySvc),
		Limit:    middleware.RateLimit(limiter),
	})

	return &testApp{router: router, identity: identitySvc, db: db}
}

type envelope struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Errors  map[string]interface{} `json:"errors"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func (a *testApp) login(t *testing.T, path, email, password string) string {
	t.Helper()
	rec, env := a.do(t, http.MethodPost, path, "", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", path, rec.Code, rec.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login token missing: %s", rec.Body.String())
	}
	return data.Token
}

func (a *testApp) citizenToken(t *testing.T) string {
	t.Helper()
	rec, _ := a.do(t, http.MethodPost, "/api/masyarakat/register", "", map[string]string{
		"name":                  "Sari",
		"email":                 "sari@example.com",
		"password":              "Rahasia#123",
		"password_confirmation": "Rahasia#123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	return a.login(t, "/api/masyarakat/login", "sari@example.com", "Rahasia#123")
}

func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	if _, err := a.identity.CreateAdmin(context.Background(), "Admin", "admin@example.com", "Admin#2024"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return a.login(t, "/api/admin/login", "admin@example.com", "Admin#2024")
}

func TestUnknownRouteEnvelope(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec, env := app.do(t, http.MethodGet, "/api/does-not-exist", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if env.Success || env.Error != "NOT_FOUND" || env.Message != "Rota não encontrada" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestAccessControl(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	citizen := app.citizenToken(t)
	admin := app.adminToken(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"anonymous trips", http.MethodGet, "/api/trips", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/me", "not-a-jwt", http.StatusUnauthorized},
		{"citizen me", http.MethodGet, "/api/me", citizen, http.StatusOK},
		{"citizen trips", http.MethodGet, "/api/trips", citizen, http.StatusOK},
		{"citizen on admin stats", http.MethodGet, "/api/admin/stats", citizen, http.StatusForbidden},
		{"admin on citizen trips", http.MethodGet, "/api/trips", admin, http.StatusForbidden},
		{"admin stats", http.MethodGet, "/api/admin/stats", admin, http.StatusOK},
		{"citizen on status query", http.MethodGet, "/api/payment/status/TRX-1", citizen, http.StatusForbidden},
		{"public news", http.MethodGet, "/api/berita", "", http.StatusOK},
		{"public programs", http.MethodGet, "/api/programs/active", "", http.StatusOK},
		{"anonymous my payments", http.MethodGet, "/api/my-payments", "", http.StatusUnauthorized},
		{"admin on my payments", http.MethodGet, "/api/my-payments", admin, http.StatusForbidden},
		{"citizen total emisi", http.MethodGet, "/api/total-emisi", citizen, http.StatusOK},
	}

	for _, tt := range tests {
		rec, _ := app.do(t, tt.method, tt.path, tt.token, nil)
		if rec.Code != tt.status {
			t.Errorf("%s: expected %d, got %d (%s)", tt.name, tt.status, rec.Code, rec.Body.String())
		}
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	token := app.citizenToken(t)

	if rec, _ := app.do(t, http.MethodPost, "/api/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec, _ := app.do(t, http.MethodGet, "/api/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", rec.Code)
	}
}

func TestValidationUsesJSONFieldNames(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	token := app.citizenToken(t)

	rec, env := app.do(t, http.MethodPost, "/api/emisi/store", token, map[string]interface{}{
		"jarak_km":        3.5,
		"durasi_menit":    12,
		"jenis_kendaraan": "motor",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	fields, _ := env.Errors["fields"].([]interface{})
	if len(fields) != 1 {
		t.Fatalf("expected one field error, got %v", env.Errors)
	}
	if field := fields[0].(map[string]interface{})["field"]; field != "emisi_kg" {
		t.Fatalf("expected emisi_kg, got %v", field)
	}
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	app.citizenToken(t)

	_, wrongPassword := app.do(t, http.MethodPost, "/api/masyarakat/login", "", map[string]string{
		"email": "sari@example.com", "password": "Errada#123",
	})
	_, unknown := app.do(t, http.MethodPost, "/api/masyarakat/login", "", map[string]string{
		"email": "ninguem@example.com", "password": "Errada#123",
	})
	if wrongPassword.Message != unknown.Message || wrongPassword.Error != unknown.Error {
		t.Fatalf("responses differ: %+v vs %+v", wrongPassword, unknown)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	admin := app.adminToken(t)

	rec, env := app.do(t, http.MethodPost, "/api/admin/program-donasi", admin, map[string]interface{}{
		"name":               "Tanam Mangrove",
		"organizer":          "Yayasan Pesisir",
		"settlement_account": "BNI 0001",
		"target_amount":      100000,
		"start_date":         "2024-01-01",
		"end_date":           "2030-12-31",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create program: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Id string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &created)

	rec, env = app.do(t, http.MethodPost, "/api/payment/create", "", map[string]interface{}{
		"amount":      25000,
		"emission_kg": 2.5,
		"name":        "Budi",
		"email":       "budi@example.com",
		"program_id":  created.Id,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create payment: %d %s", rec.Code, rec.Body.String())
	}
	var payment struct {
		OrderId string `json:"order_id"`
		Token   string `json:"token"`
	}
	_ = json.Unmarshal(env.Data, &payment)
	if payment.Token != "snap-"+payment.OrderId {
		t.Fatalf("unexpected payment result: %s", env.Data)
	}

	notification := func(signature string) []byte {
		raw, _ := json.Marshal(map[string]string{
			"order_id":           payment.OrderId,
			"status_code":        "200",
			"gross_amount":       "25000.00",
			"signature_key":      signature,
			"transaction_status": "settlement",
			"payment_type":       "qris",
		})
		return raw
	}

	rec, _ = app.do(t, http.MethodPost, "/api/payment/callback", "", notification("tampered"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("tampered webhook: expected 403, got %d", rec.Code)
	}

	valid := notification(midtrans.Signature(payment.OrderId, "200", "25000.00", serverKey))
	for i := 0; i < 2; i++ {
		if rec, _ := app.do(t, http.MethodPost, "/api/payment/callback", "", valid); rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec, env = app.do(t, http.MethodGet, "/api/admin/program-donasi/"+created.Id, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get program: %d", rec.Code)
	}
	var prog struct {
		TotalCollected float64 `json:"total_collected"`
	}
	_ = json.Unmarshal(env.Data, &prog)
	if prog.TotalCollected != 25000 {
		t.Fatalf("expected a single credit of 25000, got %v", prog.TotalCollected)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/donasi/export?format=csv&status=settlement", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	csvRec := httptest.NewRecorder()
	app.router.ServeHTTP(csvRec, req)
	if csvRec.Code != http.StatusOK {
		t.Fatalf("export: %d", csvRec.Code)
	}
	lines := strings.Split(strings.TrimSpace(csvRec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Transaction ID,Tanggal") {
		t.Fatalf("unexpected csv: %q", csvRec.Body.String())
	}
	if !strings.Contains(lines[1], payment.OrderId) || !strings.Contains(lines[1], "qris") {
		t.Fatalf("csv row missing order data: %q", lines[1])
	}

	rec, env = app.do(t, http.MethodGet, "/api/admin/donasi/list?status=settlement", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list donations: %d", rec.Code)
	}
	var listed struct {
		Data []struct {
			PaymentResponse map[string]interface{} `json:"payment_response"`
		} `json:"data"`
	}
	_ = json.Unmarshal(env.Data, &listed)
	if len(listed.Data) != 1 || listed.Data[0].PaymentResponse["signature_key"] == nil {
		t.Fatalf("expected raw webhook body stored as audit payload, got %s", env.Data)
	}
}

func TestMalformedWebhookIsRejected(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec, env := app.do(t, http.MethodPost, "/api/payment/callback", "", []byte("{not json"))
	if rec.Code != http.StatusUnprocessableEntity || env.Error != "VALIDATION_ERROR" {
		t.Fatalf("expected 422 VALIDATION_ERROR, got %d %+v", rec.Code, env)
	}
}

func TestCitizenPaymentHistory(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	citizen := app.citizenToken(t)

	pay := func(token, email string, amount int) string {
		t.Helper()
		rec, env := app.do(t, http.MethodPost, "/api/payment/create", token, map[string]interface{}{
			"amount":      amount,
			"emission_kg": 4,
			"name":        "Sari",
			"email":       email,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("create payment: %d %s", rec.Code, rec.Body.String())
		}
		var payment struct {
			OrderId string `json:"order_id"`
		}
		_ = json.Unmarshal(env.Data, &payment)
		return payment.OrderId
	}

	linked := pay(citizen, "sari@example.com", 8000)
	pay("", "sari@example.com", 4000)
	pay("", "orang.lain@example.com", 4000)

	raw, _ := json.Marshal(map[string]string{
		"order_id":           linked,
		"status_code":        "200",
		"gross_amount":       "8000.00",
		"signature_key":      midtrans.Signature(linked, "200", "8000.00", serverKey),
		"transaction_status": "settlement",
		"payment_type":       "gopay",
	})
	if rec, _ := app.do(t, http.MethodPost, "/api/payment/callback", "", raw); rec.Code != http.StatusOK {
		t.Fatalf("webhook: %d", rec.Code)
	}

	rec, env := app.do(t, http.MethodGet, "/api/my-payments", citizen, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("my payments: %d %s", rec.Code, rec.Body.String())
	}
	var history []struct {
		TransactionId string `json:"transaction_id"`
		Status        string `json:"payment_status"`
	}
	_ = json.Unmarshal(env.Data, &history)
	if len(history) != 2 {
		t.Fatalf("expected own and same-email donations, got %s", env.Data)
	}

	rec, env = app.do(t, http.MethodGet, "/api/total-emisi", citizen, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("total emisi: %d", rec.Code)
	}
	var total struct {
		TotalEmisi float64 `json:"total_emisi"`
		Email      string  `json:"email"`
	}
	_ = json.Unmarshal(env.Data, &total)
	if total.TotalEmisi != 4 || total.Email != "sari@example.com" {
		t.Fatalf("expected 4 kg settled for sari, got %s", env.Data)
	}
}

func TestFractionalAmountIsRejected(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	rec, env := app.do(t, http.MethodPost, "/api/payment/create", "", map[string]interface{}{
		"amount":      25000.5,
		"emission_kg": 2.5,
		"name":        "Budi",
		"email":       "budi@example.com",
	})
	if rec.Code != http.StatusUnprocessableEntity || env.Error != "VALIDATION_ERROR" || !strings.Contains(rec.Body.String(), `"field":"amount"`) {
		t.Fatalf("expected 422 on amount, got %d %s", rec.Code, rec.Body.String())
	}
}

func (a *testApp) postImage(t *testing.T, path, token, filename, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("title", "Hutan kota")
	_ = w.WriteField("content", "Penanaman pohon di pesisir")

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(body)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadsAreCheckedByContent(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	admin := app.adminToken(t)

	rec := app.postImage(t, "/api/admin/berita", admin, "avatar.html", "image/png", []byte("<script>alert(document.cookie)</script>"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("html disguised as png: expected 422, got %d %s", rec.Code, rec.Body.String())
	}

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	rec = app.postImage(t, "/api/admin/berita", admin, "capa.html", "image/png", png)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create news: %d %s", rec.Code, rec.Body.String())
	}

	rec, env := app.do(t, http.MethodGet, "/api/admin/stats/overview", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview: %d", rec.Code)
	}
	var overview struct {
		RecentNews []struct {
			ImageURL string `json:"image_url"`
		} `json:"recent_berita"`
	}
	_ = json.Unmarshal(env.Data, &overview)
	if len(overview.RecentNews) != 1 {
		t.Fatalf("expected the created news in overview, got %s", env.Data)
	}
	url := overview.RecentNews[0].ImageURL
	if !strings.HasPrefix(url, "http://localhost/storage/berita/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("expected stored png url, got %q", url)
	}
}
