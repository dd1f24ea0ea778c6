package pkg

import (
	"strings"
	"time"
)

// NewOrderID gera o identificador enviado ao gateway: TRX-YYYYMMDD-XXXXXXXX.
func NewOrderID(now time.Time) string {
	return "TRX-" + now.Format("20060102") + "-" + randomSuffix(8)
}

// NewRedemptionCode gera o código de resgate de emissões: TRX + timestamp + sufixo.
func NewRedemptionCode(now time.Time) string {
	return "TRX" + now.Format("20060102150405") + randomSuffix(4)
}

// O sufixo usa os caracteres finais de um ULID, que carregam a entropia.
func randomSuffix(n int) string {
	id := GenerateULIDObject().String()
	return strings.ToUpper(id[len(id)-n:])
}
