package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"Ecotrack/config"
	"Ecotrack/internal/domain/donation"
	appErrors "Ecotrack/internal/errors"
	"Ecotrack/internal/logger"

	mt "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

const maxBodyLog = 4096

// Client fala com a Snap API e a Core API (status) do Midtrans através do SDK oficial.
type Client struct {
	serverKey string
	env       mt.EnvironmentType
	http      *http.Client
}

var _ donation.Gateway = (*Client)(nil)

func NewClient(cfg config.MidtransConfig) *Client {
	env := mt.Sandbox
	if cfg.IsProduction {
		env = mt.Production
	}
	return &Client{
		serverKey: cfg.ServerKey,
		env:       env,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: NewRebaseTransport(cfg.SnapBaseURL, cfg.APIBaseURL, http.DefaultTransport),
		},
	}
}

// sdkClient devolve o cliente HTTP do SDK com o contexto da chamada anexado a cada requisição.
func (c *Client) sdkClient(ctx context.Context) *mt.HttpClientImplementation {
	hc := *c.http
	hc.Transport = contextTransport{ctx: ctx, next: c.http.Transport}
	return &mt.HttpClientImplementation{HttpClient: &hc, Logger: sdkLogger{}}
}

func (c *Client) CreateTransaction(ctx context.Context, req donation.ChargeRequest) (*donation.Charge, error) {
	var s snap.Client
	s.New(c.serverKey, c.env)
	s.HttpClient = c.sdkClient(ctx)

	resp, mErr := s.CreateTransaction(&snap.Request{
		TransactionDetails: mt.TransactionDetails{
			OrderID:  req.OrderId,
			GrossAmt: req.GrossAmount,
		},
		CustomerDetail: &mt.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
		Items: &[]mt.ItemDetails{{
			ID:    req.ItemId,
			Name:  truncate(req.ItemName, 50),
			Price: req.GrossAmount,
			Qty:   1,
		}},
	})
	if mErr != nil {
		return nil, c.upstream(req.OrderId, "Midtrans recusou a transação", mErr)
	}
	if resp == nil || resp.Token == "" {
		var messages []string
		if resp != nil {
			messages = resp.ErrorMessages
		}
		logger.Error().
			Str("transaction_id", req.OrderId).
			Strs("error_messages", messages).
			Msg("Midtrans não devolveu token")
		return nil, appErrors.NewUpstreamError(0, strings.Join(messages, "; "), errors.New("snap: resposta sem token"))
	}

	return &donation.Charge{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (c *Client) Status(ctx context.Context, orderID string) (map[string]interface{}, error) {
	var core coreapi.Client
	core.New(c.serverKey, c.env)
	core.HttpClient = c.sdkClient(ctx)

	resp, mErr := core.CheckTransaction(url.PathEscape(orderID))
	if mErr != nil {
		return nil, c.upstream(orderID, "falha ao consultar status no Midtrans", mErr)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return out, nil
}

// upstream converte o erro do SDK preservando status e corpo devolvidos pelo Midtrans.
func (c *Client) upstream(orderID, msg string, mErr *mt.Error) error {
	status := mErr.StatusCode
	var body []byte
	if mErr.RawApiResponse != nil {
		body = mErr.RawApiResponse.RawBody
		if status == 0 {
			status = mErr.RawApiResponse.StatusCode
		}
	}

	var cause error = errors.New(mErr.Message)
	if mErr.RawError != nil {
		cause = fmt.Errorf("%s: %w", mErr.Message, mErr.RawError)
	}

	logger.Error().
		Err(cause).
		Str("transaction_id", orderID).
		Int("upstream_status", status).
		Str("upstream_body", snippet(body)).
		Msg(msg)
	return appErrors.NewUpstreamError(status, snippet(body), cause)
}

// VerifySignature confere sha512(order_id+status_code+gross_amount+server_key).
func (c *Client) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	if signature == "" || c.serverKey == "" {
		return false
	}
	expected := Signature(orderID, statusCode, grossAmount, c.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func snippet(b []byte) string {
	if len(b) <= maxBodyLog {
		return string(b)
	}
	return string(b[:maxBodyLog])
}
