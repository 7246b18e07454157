package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"precificador/internal/adapters/transport"
	"precificador/internal/domain"
	"precificador/internal/logging"
)

// caPayload is the CA registry document for one certificate.
type caPayload struct {
	Numero     string `json:"numero_ca"`
	Equipament string `json:"equipamento"`
	Descricao  string `json:"descricao"`
	Grupo      string `json:"grupo"`
	Unidade    string `json:"unidade"`
	Situacao   string `json:"situacao"`
}

// CAClient looks up certificates of approval (CA) for protective equipment.
type CAClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewCAClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CAClient {
	return &CAClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  transport.NewClient(timeout),
		logger:  logging.OrNop(logger).Named("registry.ca"),
	}
}

func (c *CAClient) Lookup(ctx context.Context, code string) (domain.RegistryRecord, error) {
	code = strings.TrimSpace(code)
	notFound := domain.RegistryRecord{Code: code, Source: "ca"}
	if code == "" {
		return notFound, nil
	}
	raw, status, err := transport.GetJSON(ctx, c.client, c.baseURL+"/ca/"+url.PathEscape(code), nil, c.logger)
	if err != nil {
		return notFound, domain.TransportError("ca lookup", err)
	}
	switch {
	case status == http.StatusNotFound:
		return notFound, nil
	case status/100 != 2:
		return notFound, domain.TransportError("ca lookup", fmt.Errorf("non-2xx status: %d", status))
	}
	if isEmptyPayload(raw) {
		return notFound, nil
	}
	var p caPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return notFound, domain.TransportError("ca decode", err)
	}
	if strings.TrimSpace(p.Numero) == "" && strings.TrimSpace(p.Equipament) == "" {
		return notFound, nil
	}
	c.logger.Info("registry.ca.found", zap.String("code", code), zap.String("situacao", p.Situacao))
	return domain.RegistryRecord{
		Code:        code,
		Name:        strings.TrimSpace(p.Equipament),
		Description: strings.TrimSpace(p.Descricao),
		Category:    strings.TrimSpace(p.Grupo),
		Unit:        strings.TrimSpace(p.Unidade),
		Found:       true,
		Source:      "ca",
		Validation:  domain.ValidationAuthoritative,
	}, nil
}

// isEmptyPayload reports the sentinel bodies a registry uses for "no entry".
func isEmptyPayload(raw []byte) bool {
	b := bytes.TrimSpace(raw)
	switch string(b) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
