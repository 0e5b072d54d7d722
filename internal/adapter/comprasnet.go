package adapter

import (
	"github.com/rotisserie/eris"

	"github.com/tendergov/tender-cli/internal/model"
)

// Comprasnet adapts records from the Compras.gov.br open-data API, which
// returns a flat payload keyed in snake_case.
type Comprasnet struct{}

// Source implements Adapter.
func (*Comprasnet) Source() model.Source { return model.SourceComprasnet }

// Adapt implements Adapter.
func (*Comprasnet) Adapt(payload map[string]any) (model.RawRecord, error) {
	id := getString(payload, "identificador")
	if id == "" {
		id = getString(payload, "numero_licitacao")
	}
	if id == "" {
		return model.RawRecord{}, eris.New("comprasnet: payload missing identificador")
	}

	return model.RawRecord{
		SourceID:       id,
		Description:    getString(payload, "objeto"),
		Buyer:          getString(payload, "nome_orgao"),
		UF:             getString(payload, "uf"),
		EstimatedValue: getFloat(payload, "valor_estimado"),
		PublishedAt:    getTime(payload, "data_publicacao"),

		BuyerCNPJ:        getString(payload, "cnpj_orgao"),
		GovernmentTier:   getString(payload, "esfera"),
		Municipality:     getString(payload, "municipio"),
		MunicipalityCode: getString(payload, "codigo_municipio_ibge"),
		ModalityCode:     getString(payload, "codigo_modalidade"),
		ModalityName:     getString(payload, "modalidade"),
		RawStatus:        getString(payload, "situacao"),
		OpensAt:          getTimePtr(payload, "data_abertura_proposta"),
		ClosesAt:         getTimePtr(payload, "data_entrega_proposta"),
		HomologatedValue: getFloatPtr(payload, "valor_homologado"),
		NoticeURL:        getString(payload, "url_edital"),
		PortalURL:        getString(payload, "url_portal"),
		ProcessNumber:    getString(payload, "numero_processo"),
		PurchaseNumber:   getString(payload, "numero_licitacao"),
		PurchaseYear:     getInt(payload, "ano_compra"),
	}, nil
}
