package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCurrency(t *testing.T) {
	cases := map[string]string{
		"Luva nitrílica M, valor unitário R$ 12,50":   "Luva nitrílica M",
		"Papel A4 R$1.234,56 resma":                   "Papel A4 resma",
		"Caneta azul preço: R$ 2,00":                  "Caneta azul",
		"Cabo flexível 2,50 mm":                       "Cabo flexível 2,50 mm",
		"Serviço estimado em 1.500,00 reais por mês":  "Serviço estimado em por mês",
	}
	for in, want := range cases {
		assert.Equal(t, want, Tidy(StripCurrency(in)), in)
	}
}

func TestStripLegalBoilerplate(t *testing.T) {
	cases := map[string]string{
		"Caneta azul, conforme especificações do termo de referência.": "Caneta azul",
		"Bota de segurança de acordo com o edital":                       "Bota de segurança",
		"Mesa de escritório nos termos da Lei nº 14.133/2021; cor cinza": "Mesa de escritório; cor cinza",
		"Cadeira giratória com braços":                                   "Cadeira giratória com braços",
	}
	for in, want := range cases {
		assert.Equal(t, want, Tidy(StripLegalBoilerplate(in)), in)
	}
}

func TestStripWarranty(t *testing.T) {
	cases := map[string]string{
		"Impressora laser, garantia mínima de 12 (doze) meses": "Impressora laser",
		"Monitor 24 polegadas com garantia de 1 ano":           "Monitor 24 polegadas",
		"Notebook com garantia do fabricante":                  "Notebook",
		"Garrafa térmica 1 litro":                              "Garrafa térmica 1 litro",
	}
	for in, want := range cases {
		assert.Equal(t, want, Tidy(StripWarranty(in)), in)
	}
}

func TestDedupeTokens(t *testing.T) {
	assert.Equal(t, "Luva no", DedupeTokens("Luva luva? no"))
	assert.Equal(t, "Luva nitrílica tamanho", DedupeTokens("Luva nitrílica LUVA tamanho nitrilica"))
	assert.Equal(t, "caixa 100 un 100", DedupeTokens("caixa 100 un 100"), "numbers are kept")
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Luva fina tamanho M", Normalize("  Luva  ﬁna\x00\ttamanho   M "))
}

func TestDefaultPipeline(t *testing.T) {
	p := Default()
	assert.Equal(t, []string{"normalize", "strip_currency", "strip_legal_boilerplate", "strip_warranty", "dedupe_tokens", "tidy"}, p.Names())

	in := "Luva de procedimento nitrílica, luva descartável, valor unitário R$ 0,45, conforme edital, garantia de 6 meses"
	assert.Equal(t, "Luva de procedimento nitrílica, descartável", p.Run(in))
}
