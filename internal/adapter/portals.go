package adapter

import (
	"github.com/rotisserie/eris"

	"github.com/tendergov/tender-cli/internal/model"
)

// The private marketplace portals (Licitações-e, BLL, BNC) export similar
// flat shapes; each adapter only differs in key names and identifiers.

// LicitacoesE adapts exports from Banco do Brasil's Licitações-e portal.
type LicitacoesE struct{}

// Source implements Adapter.
func (*LicitacoesE) Source() model.Source { return model.SourceLicitacoesE }

// Adapt implements Adapter.
func (*LicitacoesE) Adapt(payload map[string]any) (model.RawRecord, error) {
	id := getString(payload, "numeroLicitacao")
	if id == "" {
		return model.RawRecord{}, eris.New("licitacoes-e: payload missing numeroLicitacao")
	}

	return model.RawRecord{
		SourceID:       id,
		Description:    getString(payload, "objeto"),
		Buyer:          getString(payload, "nomeComprador"),
		UF:             getString(payload, "uf"),
		EstimatedValue: getFloat(payload, "valorEstimado"),
		PublishedAt:    getTime(payload, "dataPublicacao"),

		BuyerCNPJ:      getString(payload, "cnpjComprador"),
		Municipality:   getString(payload, "cidade"),
		ModalityCode:   getString(payload, "codigoModalidade"),
		ModalityName:   getString(payload, "modalidade"),
		RawStatus:      getString(payload, "situacao"),
		OpensAt:        getTimePtr(payload, "dataAbertura"),
		NoticeURL:      getString(payload, "urlEdital"),
		ProcessNumber:  getString(payload, "numeroProcesso"),
		PurchaseNumber: getString(payload, "numeroLicitacao"),
		PurchaseYear:   getInt(payload, "ano"),
	}, nil
}

// BLL adapts exports from the BLL Compras marketplace.
type BLL struct{}

// Source implements Adapter.
func (*BLL) Source() model.Source { return model.SourceBLL }

// Adapt implements Adapter.
func (*BLL) Adapt(payload map[string]any) (model.RawRecord, error) {
	id := getString(payload, "codigo")
	if id == "" {
		return model.RawRecord{}, eris.New("bll: payload missing codigo")
	}

	return model.RawRecord{
		SourceID:       id,
		Description:    getString(payload, "objeto"),
		Buyer:          getString(payload, "orgao"),
		UF:             getString(payload, "estado"),
		EstimatedValue: getFloat(payload, "valor"),
		PublishedAt:    getTime(payload, "publicacao"),

		BuyerCNPJ:      getString(payload, "cnpj"),
		Municipality:   getString(payload, "municipio"),
		ModalityName:   getString(payload, "modalidade"),
		RawStatus:      getString(payload, "status"),
		OpensAt:        getTimePtr(payload, "abertura"),
		NoticeURL:      getString(payload, "link"),
		PurchaseNumber: getString(payload, "numero"),
		PurchaseYear:   getInt(payload, "ano"),
	}, nil
}

// BNC adapts exports from the Bolsa Nacional de Compras marketplace.
type BNC struct{}

// Source implements Adapter.
func (*BNC) Source() model.Source { return model.SourceBNC }

// Adapt implements Adapter.
func (*BNC) Adapt(payload map[string]any) (model.RawRecord, error) {
	id := getString(payload, "id_processo")
	if id == "" {
		return model.RawRecord{}, eris.New("bnc: payload missing id_processo")
	}

	return model.RawRecord{
		SourceID:       id,
		Description:    getString(payload, "descricao_objeto"),
		Buyer:          getString(payload, "razao_social_orgao"),
		UF:             getString(payload, "uf"),
		EstimatedValue: getFloat(payload, "valor_previsto"),
		PublishedAt:    getTime(payload, "data_publicacao"),

		BuyerCNPJ:      getString(payload, "cnpj"),
		Municipality:   getString(payload, "cidade"),
		ModalityName:   getString(payload, "tipo_processo"),
		RawStatus:      getString(payload, "situacao"),
		OpensAt:        getTimePtr(payload, "data_sessao"),
		NoticeURL:      getString(payload, "url"),
		ProcessNumber:  getString(payload, "numero_processo"),
		PurchaseNumber: getString(payload, "numero_processo"),
		PurchaseYear:   getInt(payload, "ano"),
	}, nil
}
