package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rudigital/backend/internal/config"
	"github.com/rudigital/backend/internal/models"
)

// RatingInput is the body of a rating submission. Scores are optional
// individually but at least one must be present.
type RatingInput struct {
	CardapioID  int64   `json:"cardapio_id" example:"1"`
	NotaSabor   *int    `json:"nota_sabor,omitempty" example:"5"`
	NotaTemp    *int    `json:"nota_temp,omitempty" example:"4"`
	NotaAtend   *int    `json:"nota_atend,omitempty" example:"5"`
	NotaLimpeza *int    `json:"nota_limpeza,omitempty" example:"4"`
	NotaGeral   *int    `json:"nota_geral,omitempty" example:"5"`
	Comentario  *string `json:"comentario,omitempty" example:"Ótimo!"`
}

type RatingReport struct {
	Resumo      []models.ResumoAvaliacao     `json:"resumo"`
	Comentarios []models.ComentarioAvaliacao `json:"comentarios"`
}

type RatingService struct {
	db     *sql.DB
	config *config.RatingConfig
}

func NewRatingService(db *sql.DB, cfg *config.RatingConfig) *RatingService {
	return &RatingService{db: db, config: cfg}
}

// SubmitRating stores the user's rating for a menu, replacing any earlier one.
func (s *RatingService) SubmitRating(ctx context.Context, userID int64, in RatingInput) error {
	if in.CardapioID <= 0 {
		return NewValidationError("cardapio_id inválido.")
	}

	scores := []struct {
		field string
		value *int
	}{
		{"nota_sabor", in.NotaSabor},
		{"nota_temp", in.NotaTemp},
		{"nota_atend", in.NotaAtend},
		{"nota_limpeza", in.NotaLimpeza},
		{"nota_geral", in.NotaGeral},
	}
	rated := false
	for _, sc := range scores {
		if sc.value == nil {
			continue
		}
		if *sc.value < s.config.MinScore || *sc.value > s.config.MaxScore {
			return NewValidationError("%s deve ser um número entre %d e %d.", sc.field, s.config.MinScore, s.config.MaxScore)
		}
		rated = true
	}
	if !rated {
		return NewValidationError("Avalie pelo menos um critério.")
	}

	var comentario *string
	if in.Comentario != nil {
		c := truncateRunes(strings.TrimSpace(*in.Comentario), s.config.MaxCommentLength)
		comentario = &c
	}

	var exists int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM cardapio WHERE id = $1`, in.CardapioID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMenuNotFound
	}
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO avaliacoes
			(usuario_id, cardapio_id, nota_sabor, nota_temp, nota_atend, nota_limpeza, nota_geral, comentario)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (usuario_id, cardapio_id) DO UPDATE SET
			nota_sabor   = EXCLUDED.nota_sabor,
			nota_temp    = EXCLUDED.nota_temp,
			nota_atend   = EXCLUDED.nota_atend,
			nota_limpeza = EXCLUDED.nota_limpeza,
			nota_geral   = EXCLUDED.nota_geral,
			comentario   = EXCLUDED.comentario`,
		userID, in.CardapioID, in.NotaSabor, in.NotaTemp, in.NotaAtend, in.NotaLimpeza, in.NotaGeral, comentario)
	if err != nil {
		return fmt.Errorf("save rating: %w", err)
	}
	return nil
}

// GetRating returns nil without error when the user has not rated the menu.
func (s *RatingService) GetRating(ctx context.Context, userID, cardapioID int64) (*models.Avaliacao, error) {
	if cardapioID <= 0 {
		return nil, NewValidationError("cardapio_id inválido.")
	}

	var (
		a                                  models.Avaliacao
		sabor, temp, atend, limpeza, geral sql.NullInt64
		comentario                         sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT nota_sabor, nota_temp, nota_atend, nota_limpeza, nota_geral, comentario, criado_em
		FROM avaliacoes
		WHERE usuario_id = $1 AND cardapio_id = $2`, userID, cardapioID).
		Scan(&sabor, &temp, &atend, &limpeza, &geral, &comentario, &a.CriadoEm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load rating: %w", err)
	}

	a.NotaSabor = nullInt(sabor)
	a.NotaTemp = nullInt(temp)
	a.NotaAtend = nullInt(atend)
	a.NotaLimpeza = nullInt(limpeza)
	a.NotaGeral = nullInt(geral)
	if comentario.Valid {
		a.Comentario = &comentario.String
	}
	return &a, nil
}

// Report aggregates ratings per menu, optionally filtered by date and meal,
// along with the 20 most recent comments.
func (s *RatingService) Report(ctx context.Context, dataRef, refeicao string) (*RatingReport, error) {
	where := "WHERE TRUE"
	var args []any
	if dataRef != "" {
		if _, ok := models.ParseDataRef(dataRef); !ok {
			return nil, NewValidationError("Formato de data inválido.")
		}
		args = append(args, dataRef)
		where += fmt.Sprintf(" AND c.data_ref = $%d", len(args))
	}
	if refeicao != "" {
		if !validRefeicao(refeicao) {
			return nil, NewValidationError("Refeição inválida. Use 'almoco' ou 'jantar'.")
		}
		args = append(args, refeicao)
		where += fmt.Sprintf(" AND c.refeicao = $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(c.data_ref, 'YYYY-MM-DD'), c.refeicao, COUNT(a.id),
		       ROUND(AVG(a.nota_sabor), 2), ROUND(AVG(a.nota_temp), 2), ROUND(AVG(a.nota_atend), 2),
		       ROUND(AVG(a.nota_limpeza), 2), ROUND(AVG(a.nota_geral), 2)
		FROM cardapio c
		LEFT JOIN avaliacoes a ON a.cardapio_id = c.id
		`+where+`
		GROUP BY c.id
		ORDER BY c.data_ref DESC, c.refeicao`, args...)
	if err != nil {
		return nil, fmt.Errorf("query rating summary: %w", err)
	}
	defer rows.Close()

	report := &RatingReport{Resumo: []models.ResumoAvaliacao{}, Comentarios: []models.ComentarioAvaliacao{}}
	for rows.Next() {
		var (
			r                                  models.ResumoAvaliacao
			sabor, temp, atend, limpeza, geral sql.NullFloat64
		)
		if err := rows.Scan(&r.DataRef, &r.Refeicao, &r.TotalAvaliacoes,
			&sabor, &temp, &atend, &limpeza, &geral); err != nil {
			return nil, err
		}
		r.MediaSabor = nullFloat(sabor)
		r.MediaTemperatura = nullFloat(temp)
		r.MediaAtendimento = nullFloat(atend)
		r.MediaLimpeza = nullFloat(limpeza)
		r.MediaGeral = nullFloat(geral)
		report.Resumo = append(report.Resumo, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	comments, err := s.db.QueryContext(ctx, `
		SELECT u.nome, a.comentario, a.nota_geral, a.criado_em
		FROM avaliacoes a
		JOIN usuarios u ON u.id = a.usuario_id
		JOIN cardapio c ON c.id = a.cardapio_id
		`+where+`
		  AND a.comentario IS NOT NULL AND a.comentario <> ''
		ORDER BY a.criado_em DESC
		LIMIT 20`, args...)
	if err != nil {
		return nil, fmt.Errorf("query rating comments: %w", err)
	}
	defer comments.Close()

	for comments.Next() {
		var (
			c     models.ComentarioAvaliacao
			geral sql.NullInt64
		)
		if err := comments.Scan(&c.Autor, &c.Comentario, &geral, &c.CriadoEm); err != nil {
			return nil, err
		}
		c.NotaGeral = nullInt(geral)
		report.Comentarios = append(report.Comentarios, c)
	}
	return report, comments.Err()
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
