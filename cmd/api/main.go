package main

import (
	appfx "Ecotrack/internal/fx"

	"go.uber.org/fx"
)

// @title Ecotrack API
// @version 1.0
// @description API de registro de emissões de carbono e doações.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	fx.New(
		appfx.AppModule,
	).Run()
}
