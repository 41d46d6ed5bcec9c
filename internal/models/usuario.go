package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TipoEstudante = "estudante"
	TipoAdmin     = "admin"
)

// Usuario is a student or administrator account. Saldo is the balance of
// record and only the ledger engine writes it.
type Usuario struct {
	ID        int64           `json:"id" example:"1"`
	Matricula string          `json:"matricula" example:"2023001"`
	Nome      string          `json:"nome" example:"Maria Souza"`
	Email     string          `json:"email" example:"maria@discente.ufcat.edu.br"`
	SenhaHash string          `json:"-"`
	Curso     string          `json:"curso" example:"Ciência da Computação"`
	Saldo     decimal.Decimal `json:"saldo" swaggertype:"number" example:"24.00"`
	Tipo      string          `json:"tipo" example:"estudante"`
	Ativo     bool            `json:"ativo" example:"true"`
	CriadoEm  time.Time       `json:"criado_em"`
}

func (u *Usuario) IsAdmin() bool {
	return u.Tipo == TipoAdmin
}
