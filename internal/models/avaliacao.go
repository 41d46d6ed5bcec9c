package models

import "time"

// Avaliacao is a user's rating of one menu. A user has at most one rating per
// menu; resubmitting replaces it.
type Avaliacao struct {
	NotaSabor   *int      `json:"nota_sabor"`
	NotaTemp    *int      `json:"nota_temp"`
	NotaAtend   *int      `json:"nota_atend"`
	NotaLimpeza *int      `json:"nota_limpeza"`
	NotaGeral   *int      `json:"nota_geral"`
	Comentario  *string   `json:"comentario"`
	CriadoEm    time.Time `json:"criado_em"`
}

// ResumoAvaliacao aggregates the ratings for one menu.
type ResumoAvaliacao struct {
	DataRef          string   `json:"data_ref"`
	Refeicao         string   `json:"refeicao"`
	TotalAvaliacoes  int      `json:"total_avaliacoes"`
	MediaSabor       *float64 `json:"media_sabor"`
	MediaTemperatura *float64 `json:"media_temperatura"`
	MediaAtendimento *float64 `json:"media_atendimento"`
	MediaLimpeza     *float64 `json:"media_limpeza"`
	MediaGeral       *float64 `json:"media_geral"`
}

type ComentarioAvaliacao struct {
	Autor      string    `json:"autor"`
	Comentario string    `json:"comentario"`
	NotaGeral  *int      `json:"nota_geral"`
	CriadoEm   time.Time `json:"criado_em"`
}
