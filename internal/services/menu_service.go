package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"
	"github.com/rudigital/backend/internal/models"
)

// MenuInput is the body for creating a menu.
type MenuInput struct {
	DataRef  string                `json:"data_ref" example:"2025-07-10"`
	Refeicao string                `json:"refeicao" example:"almoco"`
	Itens    []models.ItemCardapio `json:"itens"`
}

// MenuUpdate carries the optional fields of an edit. A non-nil Itens
// replaces every item of the menu.
type MenuUpdate struct {
	DataRef  *string               `json:"data_ref,omitempty"`
	Refeicao *string               `json:"refeicao,omitempty"`
	Ativo    *bool                 `json:"ativo,omitempty"`
	Itens    []models.ItemCardapio `json:"itens,omitempty"`
}

type MenuService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewMenuService(db *sql.DB) *MenuService {
	return &MenuService{db: db, validator: NewValidationHelper()}
}

// GetMenu returns the active menus of the day with their items.
func (s *MenuService) GetMenu(ctx context.Context, dataRef string) ([]models.Cardapio, error) {
	if _, ok := models.ParseDataRef(dataRef); !ok {
		return nil, NewValidationError("Formato de data inválido. Use YYYY-MM-DD.")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.refeicao,
		       i.categoria, i.descricao, i.imagem_url, i.calorias, i.proteinas_g, i.carboidratos_g
		FROM cardapio c
		JOIN itens_cardapio i ON i.cardapio_id = c.id
		WHERE c.data_ref = $1 AND c.ativo = TRUE
		ORDER BY c.refeicao, i.categoria, i.id`, dataRef)
	if err != nil {
		return nil, fmt.Errorf("query menu: %w", err)
	}
	defer rows.Close()

	menus := []models.Cardapio{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			id       int64
			refeicao string
			item     itemRow
		)
		if err := rows.Scan(&id, &refeicao, &item.categoria, &item.descricao, &item.imagemURL,
			&item.calorias, &item.proteinas, &item.carboidratos); err != nil {
			return nil, err
		}
		pos, ok := index[id]
		if !ok {
			pos = len(menus)
			index[id] = pos
			menus = append(menus, models.Cardapio{ID: id, Refeicao: refeicao, Itens: []models.ItemCardapio{}})
		}
		menus[pos].Itens = append(menus[pos].Itens, item.toModel())
	}
	return menus, rows.Err()
}

// ListMenus returns every menu of the day for the admin panel, inactive
// ones and menus without items included.
func (s *MenuService) ListMenus(ctx context.Context, dataRef string) ([]models.Cardapio, error) {
	if _, ok := models.ParseDataRef(dataRef); !ok {
		return nil, NewValidationError("Formato de data inválido. Use YYYY-MM-DD.")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.refeicao, to_char(c.data_ref, 'YYYY-MM-DD'), c.ativo,
		       i.id, i.categoria, i.descricao, i.imagem_url, i.calorias, i.proteinas_g, i.carboidratos_g
		FROM cardapio c
		LEFT JOIN itens_cardapio i ON i.cardapio_id = c.id
		WHERE c.data_ref = $1
		ORDER BY c.refeicao, i.categoria, i.id`, dataRef)
	if err != nil {
		return nil, fmt.Errorf("query menus: %w", err)
	}
	defer rows.Close()

	menus := []models.Cardapio{}
	index := map[int64]int{}
	for rows.Next() {
		var (
			c    models.Cardapio
			atv  bool
			item itemRow
		)
		if err := rows.Scan(&c.ID, &c.Refeicao, &c.DataRef, &atv,
			&item.id, &item.categoria, &item.descricao, &item.imagemURL,
			&item.calorias, &item.proteinas, &item.carboidratos); err != nil {
			return nil, err
		}
		pos, ok := index[c.ID]
		if !ok {
			c.Ativo = &atv
			c.Itens = []models.ItemCardapio{}
			pos = len(menus)
			index[c.ID] = pos
			menus = append(menus, c)
		}
		if item.id.Valid {
			menus[pos].Itens = append(menus[pos].Itens, item.toModel())
		}
	}
	return menus, rows.Err()
}

// CreateMenu inserts a menu and its items. Only one menu may exist per date
// and meal.
func (s *MenuService) CreateMenu(ctx context.Context, in MenuInput) (int64, error) {
	if in.DataRef == "" {
		return 0, NewValidationError("O campo data_ref é obrigatório.")
	}
	if _, ok := models.ParseDataRef(in.DataRef); !ok {
		return 0, NewValidationError("Formato de data_ref inválido. Use YYYY-MM-DD.")
	}
	if !validRefeicao(in.Refeicao) {
		return 0, NewValidationError("Campo refeicao inválido. Use 'almoco' ou 'jantar'.")
	}
	if len(in.Itens) == 0 {
		return 0, NewValidationError("É necessário enviar pelo menos um item no cardápio.")
	}
	if err := s.validateItems(in.Itens); err != nil {
		return 0, err
	}

	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM cardapio WHERE data_ref = $1 AND refeicao = $2 LIMIT 1`,
		in.DataRef, in.Refeicao).Scan(&existing)
	if err == nil {
		return 0, duplicateMenu(in.Refeicao, in.DataRef)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check menu: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO cardapio (data_ref, refeicao, ativo) VALUES ($1, $2, TRUE) RETURNING id`,
		in.DataRef, in.Refeicao).Scan(&id)
	if isUniqueViolation(err) {
		return 0, duplicateMenu(in.Refeicao, in.DataRef)
	}
	if err != nil {
		return 0, fmt.Errorf("insert menu: %w", err)
	}

	if err := insertItems(ctx, tx, id, in.Itens); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Printf("[MENU] Created %s menu %d for %s with %d items", in.Refeicao, id, in.DataRef, len(in.Itens))
	return id, nil
}

// UpdateMenu applies the fields present in upd in one transaction.
func (s *MenuService) UpdateMenu(ctx context.Context, id int64, upd MenuUpdate) error {
	var sets []string
	var args []any

	if upd.DataRef != nil {
		if _, ok := models.ParseDataRef(*upd.DataRef); !ok {
			return NewValidationError("Formato de data_ref inválido.")
		}
		args = append(args, *upd.DataRef)
		sets = append(sets, fmt.Sprintf("data_ref = $%d", len(args)))
	}
	if upd.Refeicao != nil {
		if !validRefeicao(*upd.Refeicao) {
			return NewValidationError("Refeição inválida. Use 'almoco' ou 'jantar'.")
		}
		args = append(args, *upd.Refeicao)
		sets = append(sets, fmt.Sprintf("refeicao = $%d", len(args)))
	}
	if upd.Ativo != nil {
		args = append(args, *upd.Ativo)
		sets = append(sets, fmt.Sprintf("ativo = $%d", len(args)))
	}
	if upd.Itens != nil {
		if err := s.validateItems(upd.Itens); err != nil {
			return err
		}
	}

	var existing int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM cardapio WHERE id = $1`, id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMenuNotFound
	}
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if len(sets) > 0 {
		args = append(args, id)
		query := fmt.Sprintf("UPDATE cardapio SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return &ConflictError{Message: "Já existe um cardápio para esta data e refeição."}
			}
			return fmt.Errorf("update menu: %w", err)
		}
	}

	if upd.Itens != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM itens_cardapio WHERE cardapio_id = $1`, id); err != nil {
			return fmt.Errorf("clear items: %w", err)
		}
		if err := insertItems(ctx, tx, id, upd.Itens); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeactivateMenu hides a menu without deleting it.
func (s *MenuService) DeactivateMenu(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE cardapio SET ativo = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate menu: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMenuNotFound
	}
	return nil
}

func (s *MenuService) validateItems(itens []models.ItemCardapio) error {
	for i := range itens {
		if vErr := s.validator.Validate(itens[i]); vErr != nil {
			vErr.Message = fmt.Sprintf("Item #%d: %s", i+1, vErr.Message)
			return vErr
		}
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, cardapioID int64, itens []models.ItemCardapio) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO itens_cardapio
			(cardapio_id, categoria, descricao, imagem_url, calorias, proteinas_g, carboidratos_g)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range itens {
		if _, err := stmt.ExecContext(ctx, cardapioID, item.Categoria, item.Descricao,
			item.ImagemURL, item.Calorias, item.ProteinasG, item.CarboidratosG); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}
	return nil
}

type itemRow struct {
	id           sql.NullInt64
	categoria    sql.NullString
	descricao    sql.NullString
	imagemURL    sql.NullString
	calorias     sql.NullInt64
	proteinas    sql.NullFloat64
	carboidratos sql.NullFloat64
}

func (r itemRow) toModel() models.ItemCardapio {
	item := models.ItemCardapio{
		ID:        r.id.Int64,
		Categoria: r.categoria.String,
		Descricao: r.descricao.String,
	}
	if r.imagemURL.Valid {
		item.ImagemURL = &r.imagemURL.String
	}
	if r.calorias.Valid {
		c := int(r.calorias.Int64)
		item.Calorias = &c
	}
	if r.proteinas.Valid {
		item.ProteinasG = &r.proteinas.Float64
	}
	if r.carboidratos.Valid {
		item.CarboidratosG = &r.carboidratos.Float64
	}
	return item
}

func validRefeicao(r string) bool {
	return r == models.RefeicaoAlmoco || r == models.RefeicaoJantar
}

func duplicateMenu(refeicao, dataRef string) error {
	return &ConflictError{Message: fmt.Sprintf("Já existe um cardápio de '%s' para a data %s.", refeicao, dataRef)}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
