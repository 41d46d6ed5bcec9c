package services

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rudigital/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestRatingService_SubmitRating(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewRatingService(db, &config.RatingConfig{MinScore: 1, MaxScore: 5, MaxCommentLength: 10})
	ctx := context.Background()
	menuExists := regexp.QuoteMeta("SELECT id FROM cardapio WHERE id = $1")

	t.Run("upserts rating", func(t *testing.T) {
		comentario := "  Muito bom, gostei demais  "
		mock.ExpectQuery(menuExists).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec("INSERT INTO avaliacoes .* ON CONFLICT \\(usuario_id, cardapio_id\\) DO UPDATE").
			WithArgs(int64(7), int64(1), 5, nil, nil, nil, 4, "Muito bom,").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := service.SubmitRating(ctx, 7, RatingInput{
			CardapioID: 1,
			NotaSabor:  intPtr(5),
			NotaGeral:  intPtr(4),
			Comentario: &comentario,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown menu", func(t *testing.T) {
		mock.ExpectQuery(menuExists).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

		err := service.SubmitRating(ctx, 7, RatingInput{CardapioID: 9, NotaGeral: intPtr(3)})
		assert.ErrorIs(t, err, ErrMenuNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	validationCases := []struct {
		name    string
		input   RatingInput
		message string
	}{
		{"missing menu", RatingInput{NotaGeral: intPtr(3)}, "cardapio_id inválido."},
		{"no scores", RatingInput{CardapioID: 1}, "Avalie pelo menos um critério."},
		{"score above scale", RatingInput{CardapioID: 1, NotaTemp: intPtr(6)}, "nota_temp deve ser um número entre 1 e 5."},
		{"score below scale", RatingInput{CardapioID: 1, NotaLimpeza: intPtr(0)}, "nota_limpeza deve ser um número entre 1 e 5."},
	}
	for _, tc := range validationCases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.SubmitRating(ctx, 7, tc.input)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.message, vErr.Message)
		})
	}
}

func TestRatingService_GetRating(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewRatingService(db, &config.RatingConfig{MinScore: 1, MaxScore: 5, MaxCommentLength: 1000})
	ctx := context.Background()
	query := "SELECT nota_sabor, nota_temp, nota_atend, nota_limpeza, nota_geral, comentario, criado_em FROM avaliacoes"
	columns := []string{"nota_sabor", "nota_temp", "nota_atend", "nota_limpeza", "nota_geral", "comentario", "criado_em"}

	t.Run("existing rating", func(t *testing.T) {
		criado := time.Date(2025, 7, 10, 13, 0, 0, 0, time.UTC)
		mock.ExpectQuery(regexp.QuoteMeta(query)).
			WithArgs(int64(7), int64(1)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(5, nil, nil, nil, 4, "Bom", criado))

		a, err := service.GetRating(ctx, 7, 1)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, 5, *a.NotaSabor)
		assert.Nil(t, a.NotaTemp)
		assert.Equal(t, "Bom", *a.Comentario)
		assert.True(t, a.CriadoEm.Equal(criado))
	})

	t.Run("not rated yet", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnError(sql.ErrNoRows)

		a, err := service.GetRating(ctx, 7, 2)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingService_Report(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewRatingService(db, &config.RatingConfig{MinScore: 1, MaxScore: 5, MaxCommentLength: 1000})
	ctx := context.Background()

	t.Run("filters by date and meal", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE TRUE AND c.data_ref = $1 AND c.refeicao = $2 GROUP BY c.id")).
			WithArgs("2025-07-10", "almoco").
			WillReturnRows(sqlmock.NewRows([]string{"data_ref", "refeicao", "total", "s", "t", "a", "l", "g"}).
				AddRow("2025-07-10", "almoco", 2, "4.50", nil, "5.00", nil, "4.00"))
		mock.ExpectQuery(regexp.QuoteMeta("AND a.comentario IS NOT NULL AND a.comentario <> '' ORDER BY a.criado_em DESC LIMIT 20")).
			WithArgs("2025-07-10", "almoco").
			WillReturnRows(sqlmock.NewRows([]string{"autor", "comentario", "nota_geral", "criado_em"}).
				AddRow("Ana", "Feijão excelente", 5, time.Now()))

		report, err := service.Report(ctx, "2025-07-10", "almoco")
		require.NoError(t, err)
		require.Len(t, report.Resumo, 1)
		assert.Equal(t, 2, report.Resumo[0].TotalAvaliacoes)
		assert.Equal(t, 4.5, *report.Resumo[0].MediaSabor)
		assert.Nil(t, report.Resumo[0].MediaTemperatura)
		require.Len(t, report.Comentarios, 1)
		assert.Equal(t, "Ana", report.Comentarios[0].Autor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unfiltered", func(t *testing.T) {
		mock.ExpectQuery("WHERE TRUE GROUP BY c.id").
			WillReturnRows(sqlmock.NewRows([]string{"data_ref", "refeicao", "total", "s", "t", "a", "l", "g"}))
		mock.ExpectQuery("JOIN usuarios u").
			WillReturnRows(sqlmock.NewRows([]string{"autor", "comentario", "nota_geral", "criado_em"}))

		report, err := service.Report(ctx, "", "")
		require.NoError(t, err)
		assert.Empty(t, report.Resumo)
		assert.Empty(t, report.Comentarios)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad filters", func(t *testing.T) {
		_, err := service.Report(ctx, "ontem", "")
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)

		_, err = service.Report(ctx, "", "cafe")
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "Ótim", truncateRunes("Ótimo!", 4))
	assert.Equal(t, "abc", truncateRunes("abc", 10))
	assert.Len(t, []rune(truncateRunes(strings.Repeat("é", 20), 5)), 5)
}
