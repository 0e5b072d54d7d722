package adapter

import (
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/tendergov/tender-cli/internal/model"
)

// PNCP adapts records from the Portal Nacional de Contratações Públicas
// consultation API. Payload shape follows the /v1/contratacoes endpoints:
// buyer data nested under orgaoEntidade, location under unidadeOrgao.
type PNCP struct{}

// Source implements Adapter.
func (*PNCP) Source() model.Source { return model.SourcePNCP }

// Adapt implements Adapter.
func (*PNCP) Adapt(payload map[string]any) (model.RawRecord, error) {
	id := getString(payload, "numeroControlePNCP")
	if id == "" {
		return model.RawRecord{}, eris.New("pncp: payload missing numeroControlePNCP")
	}

	orgao := getMap(payload, "orgaoEntidade")
	unidade := getMap(payload, "unidadeOrgao")

	raw := model.RawRecord{
		SourceID:       id,
		Description:    getString(payload, "objetoCompra"),
		Buyer:          getString(orgao, "razaoSocial"),
		UF:             getString(unidade, "ufSigla"),
		EstimatedValue: getFloat(payload, "valorTotalEstimado"),
		PublishedAt:    getTime(payload, "dataPublicacaoPncp"),

		BuyerCNPJ:        getString(orgao, "cnpj"),
		GovernmentTier:   getString(orgao, "esferaId"),
		Municipality:     getString(unidade, "municipioNome"),
		MunicipalityCode: getString(unidade, "codigoIbge"),
		ModalityCode:     getString(payload, "modalidadeId"),
		ModalityName:     getString(payload, "modalidadeNome"),
		RawStatus:        getString(payload, "situacaoCompraNome"),
		OpensAt:          getTimePtr(payload, "dataAberturaProposta"),
		ClosesAt:         getTimePtr(payload, "dataEncerramentoProposta"),
		HomologatedValue: getFloatPtr(payload, "valorTotalHomologado"),
		NoticeURL:        getString(payload, "linkSistemaOrigem"),
		PortalURL:        pncpPortalURL(getString(orgao, "cnpj"), payload),
		ProcessNumber:    getString(payload, "processo"),
		PurchaseNumber:   getString(payload, "numeroCompra"),
		PurchaseYear:     getInt(payload, "anoCompra"),
	}
	return raw, nil
}

// pncpPortalURL reconstructs the public portal link from the control
// triplet when the payload carries one.
func pncpPortalURL(cnpj string, payload map[string]any) string {
	seq := getInt(payload, "sequencialCompra")
	year := getInt(payload, "anoCompra")
	if cnpj == "" || seq == 0 || year == 0 {
		return ""
	}
	return "https://pncp.gov.br/app/editais/" + cnpj + "/" + strconv.Itoa(year) + "/" + strconv.Itoa(seq)
}
