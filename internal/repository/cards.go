package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/thraizz/gridduel-server/internal/catalog"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/power"
)

// CardRepository reads and writes the cards table.
type CardRepository struct {
	db *DB
}

func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

const selectCardsSQL = `
SELECT id, name, rarity, power_top, power_right, power_bottom, power_left, tags, ability_id, ability_params
FROM cards ORDER BY id`

const upsertCardSQL = `
INSERT INTO cards (id, name, rarity, power_top, power_right, power_bottom, power_left, tags, ability_id, ability_params, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	rarity = EXCLUDED.rarity,
	power_top = EXCLUDED.power_top,
	power_right = EXCLUDED.power_right,
	power_bottom = EXCLUDED.power_bottom,
	power_left = EXCLUDED.power_left,
	tags = EXCLUDED.tags,
	ability_id = EXCLUDED.ability_id,
	ability_params = EXCLUDED.ability_params,
	updated_at = now()`

// cardRow mirrors one row of the cards table.
type cardRow struct {
	ID            string
	Name          string
	Rarity        string
	Top           int
	Right         int
	Bottom        int
	Left          int
	Tags          []string
	AbilityID     *string
	AbilityParams []byte
}

func (r cardRow) definition() (card.Definition, error) {
	def := card.Definition{
		ID:        r.ID,
		Name:      r.Name,
		Rarity:    card.Rarity(r.Rarity),
		BasePower: power.Vector{Top: r.Top, Right: r.Right, Bottom: r.Bottom, Left: r.Left},
		Tags:      r.Tags,
	}
	if r.AbilityID != nil && *r.AbilityID != "" {
		ref := &card.AbilityRef{ID: card.AbilityID(*r.AbilityID)}
		if len(r.AbilityParams) > 0 {
			if err := json.Unmarshal(r.AbilityParams, &ref.Params); err != nil {
				return card.Definition{}, fmt.Errorf("card %s ability params: %w", r.ID, err)
			}
		}
		def.Ability = ref
	}
	return def, nil
}

func rowFor(def card.Definition) (cardRow, error) {
	row := cardRow{
		ID:     def.ID,
		Name:   def.Name,
		Rarity: string(def.Rarity),
		Top:    def.BasePower.Top,
		Right:  def.BasePower.Right,
		Bottom: def.BasePower.Bottom,
		Left:   def.BasePower.Left,
		Tags:   def.Tags,
	}
	if row.Rarity == "" {
		row.Rarity = string(card.RarityCommon)
	}
	if row.Tags == nil {
		row.Tags = []string{}
	}
	if def.Ability != nil {
		id := string(def.Ability.ID)
		row.AbilityID = &id
		params, err := json.Marshal(def.Ability.Params)
		if err != nil {
			return cardRow{}, fmt.Errorf("card %s ability params: %w", def.ID, err)
		}
		row.AbilityParams = params
	}
	return row, nil
}

// LoadCatalog reads every card into a catalog.
func (r *CardRepository) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := r.db.Query(ctx, selectCardsSQL)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var defs []card.Definition
	for rows.Next() {
		var row cardRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Rarity, &row.Top, &row.Right, &row.Bottom, &row.Left,
			&row.Tags, &row.AbilityID, &row.AbilityParams); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		def, err := row.definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return catalog.New(defs...)
}

// GetCard returns one card definition or ErrNotFound.
func (r *CardRepository) GetCard(ctx context.Context, id string) (card.Definition, error) {
	var row cardRow
	err := r.db.QueryRow(ctx, `
		SELECT id, name, rarity, power_top, power_right, power_bottom, power_left, tags, ability_id, ability_params
		FROM cards WHERE id = $1`, id).
		Scan(&row.ID, &row.Name, &row.Rarity, &row.Top, &row.Right, &row.Bottom, &row.Left,
			&row.Tags, &row.AbilityID, &row.AbilityParams)
	if errors.Is(err, pgx.ErrNoRows) {
		return card.Definition{}, fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return card.Definition{}, fmt.Errorf("get card %s: %w", id, err)
	}
	return row.definition()
}

// UpsertCards writes the definitions in one transaction and returns how many
// rows were written.
func (r *CardRepository) UpsertCards(ctx context.Context, defs []card.Definition) (int, error) {
	batch := &pgx.Batch{}
	for _, def := range defs {
		row, err := rowFor(def)
		if err != nil {
			return 0, err
		}
		batch.Queue(upsertCardSQL, row.ID, row.Name, row.Rarity, row.Top, row.Right, row.Bottom, row.Left,
			row.Tags, row.AbilityID, row.AbilityParams)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for _, def := range defs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("upsert card %s: %w", def.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(defs), nil
}

// DeleteAll truncates the cards table.
func (r *CardRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, "TRUNCATE cards"); err != nil {
		return fmt.Errorf("truncate cards: %w", err)
	}
	return nil
}

// Count returns the number of stored cards.
func (r *CardRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM cards").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}
