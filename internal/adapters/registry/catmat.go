package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"precificador/internal/adapters/transport"
	"precificador/internal/domain"
	"precificador/internal/logging"
)

// catmatPayload follows the open-data material catalog response.
type catmatPayload struct {
	Resultado []struct {
		CodigoItem    json.Number `json:"codigoItem"`
		DescricaoItem string      `json:"descricaoItem"`
		NomePdm       string      `json:"nomePdm"`
		NomeClasse    string      `json:"nomeClasse"`
		NomeGrupo     string      `json:"nomeGrupo"`
		Unidade       string      `json:"siglaUnidadeFornecimento"`
		StatusItem    *bool       `json:"statusItem"`
	} `json:"resultado"`
	TotalRegistros int `json:"totalRegistros"`
}

// CatmatClient looks up material catalog (CATMAT) items.
type CatmatClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewCatmatClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CatmatClient {
	return &CatmatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  transport.NewClient(timeout),
		logger:  logging.OrNop(logger).Named("registry.catmat"),
	}
}

func (c *CatmatClient) Lookup(ctx context.Context, code string) (domain.RegistryRecord, error) {
	code = strings.TrimSpace(code)
	notFound := domain.RegistryRecord{Code: code, Source: "catmat"}
	if code == "" {
		return notFound, nil
	}
	q := url.Values{}
	q.Set("codigoItem", code)
	q.Set("pagina", "1")
	endpoint := c.baseURL + "/modulo-material/4_consultarItemMaterial?" + q.Encode()

	raw, status, err := transport.GetJSON(ctx, c.client, endpoint, nil, c.logger)
	if err != nil {
		return notFound, domain.TransportError("catmat lookup", err)
	}
	switch {
	case status == http.StatusNotFound:
		return notFound, nil
	case status/100 != 2:
		return notFound, domain.TransportError("catmat lookup", fmt.Errorf("non-2xx status: %d", status))
	}
	if isEmptyPayload(raw) {
		return notFound, nil
	}
	var p catmatPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return notFound, domain.TransportError("catmat decode", err)
	}
	for _, item := range p.Resultado {
		if normalizeCode(item.CodigoItem.String()) != normalizeCode(code) {
			continue
		}
		if item.StatusItem != nil && !*item.StatusItem {
			c.logger.Info("registry.catmat.inactive_item", zap.String("code", code))
		}
		category := strings.TrimSpace(item.NomeClasse)
		if category == "" {
			category = strings.TrimSpace(item.NomeGrupo)
		}
		return domain.RegistryRecord{
			Code:        code,
			Name:        strings.TrimSpace(item.NomePdm),
			Description: strings.TrimSpace(item.DescricaoItem),
			Category:    category,
			Unit:        strings.TrimSpace(item.Unidade),
			Found:       true,
			Source:      "catmat",
			Validation:  domain.ValidationAuthoritative,
		}, nil
	}
	return notFound, nil
}

func normalizeCode(code string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(code), 10, 64)
	if err != nil {
		return strings.TrimSpace(code)
	}
	return strconv.FormatInt(n, 10)
}
