package routes

import (
	"Ecotrack/internal/domain/identity"
	"Ecotrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Guards agrupa os middlewares que protegem as rotas.
type Guards struct {
	Auth     gin.HandlerFunc
	Optional gin.HandlerFunc
	Limit    gin.HandlerFunc
}

// Register monta todas as rotas da API sob o grupo informado (normalmente /api).
func Register(api *gin.RouterGroup, h *Handler, g Guards) {
	limited := api.Group("")
	limited.Use(g.Limit)
	{
		limited.POST("/admin/login", h.LoginAdmin)
		limited.POST("/masyarakat/login", h.LoginCitizen)
		limited.POST("/masyarakat/register", h.RegisterCitizen)

		limited.POST("/payment/callback", h.PaymentCallback)
		limited.POST("/midtrans/callback", h.PaymentCallback)
	}

	api.GET("/berita", h.ListNews)
	api.GET("/berita/:id", h.GetNews)
	api.GET("/programs/active", h.ListActivePrograms)

	payment := api.Group("")
	payment.Use(g.Limit, g.Optional)
	{
		payment.POST("/payment/create", h.CreatePayment)
		payment.POST("/create-payment", h.CreatePayment)
	}

	private := api.Group("")
	private.Use(g.Auth)
	{
		private.POST("/logout", h.Logout)
		private.GET("/me", h.Me)
		private.PUT("/masyarakat/change-password", h.ChangePassword)
	}

	citizen := api.Group("")
	citizen.Use(g.Auth, middleware.RequireRole(identity.RoleCitizen))
	{
		citizen.GET("/masyarakat/profil", h.GetProfile)
		citizen.POST("/masyarakat/profil", h.UpdateProfile)

		citizen.GET("/trips", h.ListTrips)
		citizen.POST("/trips", h.RecordTrip)
		citizen.GET("/emissions/monthly", h.MonthlyEmissions)

		citizen.GET("/my-payments", h.MyPayments)
		citizen.GET("/total-emisi", h.MySettledEmission)

		emisi := citizen.Group("/emisi")
		emisi.Use(middleware.RequireCapability(identity.CapRecordEmission))
		{
			emisi.POST("/store", h.RecordEmission)
			emisi.GET("/total-bulan-ini", h.UnpaidEmissionTotal)
			emisi.POST("/update-status-bayar", h.RedeemEmissions)
			emisi.GET("/riwayat-pembayaran", h.RedemptionHistory)
		}
	}

	admin := api.Group("/admin")
	admin.Use(g.Auth, middleware.RequireRole(identity.RoleAdmin))
	{
		berita := admin.Group("/berita")
		berita.Use(middleware.RequireCapability(identity.CapManageContent))
		{
			berita.POST("", h.CreateNews)
			berita.PUT("/:id", h.UpdateNews)
			berita.POST("/:id", h.UpdateNews)
			berita.DELETE("/:id", h.DeleteNews)
		}

		programs := admin.Group("/program-donasi")
		programs.Use(middleware.RequireCapability(identity.CapManagePrograms))
		{
			programs.GET("", h.ListPrograms)
			programs.POST("", h.CreateProgram)
			programs.GET("/:id", h.GetProgram)
			programs.PUT("/:id", h.UpdateProgram)
			programs.DELETE("/:id", h.DeleteProgram)
		}

		donasi := admin.Group("/donasi")
		donasi.Use(middleware.RequireCapability(identity.CapViewReports))
		{
			donasi.GET("/stats", h.DonationStats)
			donasi.GET("/list", h.ListDonations)
			donasi.GET("/detail/:id", h.GetDonation)
			donasi.GET("/export", h.ExportDonations)
			donasi.GET("/programs", h.DonationProgramOptions)
		}

		stats := admin.Group("/stats")
		stats.Use(middleware.RequireCapability(identity.CapViewReports))
		{
			stats.GET("", h.GetStats)
			stats.GET("/detailed", h.GetDetailedStats)
			stats.GET("/overview", h.GetOverview)
			stats.GET("/monthly", h.GetMonthlyStats)
		}

		masyarakat := admin.Group("/masyarakat")
		masyarakat.Use(middleware.RequireCapability(identity.CapManageCitizens))
		{
			masyarakat.GET("", h.ListCitizens)
			masyarakat.GET("/:id", h.GetCitizen)
			masyarakat.DELETE("/:id", h.DeleteCitizen)
		}
	}

	private.GET("/payment/status/:orderId", middleware.RequireRole(identity.RoleAdmin), h.PaymentStatus)
	private.GET("/check-status/:orderId", middleware.RequireRole(identity.RoleAdmin), h.PaymentStatus)
}
