package models

import "time"

const (
	RefeicaoAlmoco = "almoco"
	RefeicaoJantar = "jantar"
)

// CategoriasItem lists the accepted menu item categories.
var CategoriasItem = []string{"principal", "guarnicao", "arroz_feijao", "salada", "sobremesa", "suco", "outro"}

type Cardapio struct {
	ID       int64          `json:"id"`
	DataRef  string         `json:"data_ref,omitempty"`
	Refeicao string         `json:"refeicao"`
	Ativo    *bool          `json:"ativo,omitempty"`
	Itens    []ItemCardapio `json:"itens"`
}

type ItemCardapio struct {
	ID            int64    `json:"id,omitempty"`
	Categoria     string   `json:"categoria" validate:"required,oneof=principal guarnicao arroz_feijao salada sobremesa suco outro"`
	Descricao     string   `json:"descricao" validate:"required,max=255"`
	ImagemURL     *string  `json:"imagem_url,omitempty" validate:"omitempty,max=255"`
	Calorias      *int     `json:"calorias"`
	ProteinasG    *float64 `json:"proteinas_g"`
	CarboidratosG *float64 `json:"carboidratos_g"`
}

// RefeicaoLabel renders the meal slot for ledger descriptions.
func RefeicaoLabel(refeicao string) string {
	switch refeicao {
	case RefeicaoAlmoco:
		return "Almoço"
	case RefeicaoJantar:
		return "Jantar"
	}
	return refeicao
}

// ParseDataRef validates a YYYY-MM-DD date.
func ParseDataRef(s string) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
