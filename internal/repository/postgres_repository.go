package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type PostgresRepository struct {
	db *sqlx.DB
}

type orderRow struct {
	ID              uuid.UUID       `db:"id"`
	UserID          string          `db:"user_id"`
	Items           []byte          `db:"items"`
	Subtotal        decimal.Decimal `db:"subtotal"`
	ShippingFee     decimal.Decimal `db:"shipping_fee"`
	Tax             decimal.Decimal `db:"tax"`
	GrandTotal      decimal.Decimal `db:"grand_total"`
	Currency        string          `db:"currency"`
	ShippingAddress []byte          `db:"shipping_address"`
	PaymentMethod   string          `db:"payment_method"`
	PaymentLabel    string          `db:"payment_label"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
}

const orderColumns = `id, user_id, items, subtotal, shipping_fee, tax, grand_total, currency,
	shipping_address, payment_method, payment_label, status, created_at`

func DSN(cred *Credentials) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)
}

func NewPostgresRepository(ctx context.Context, cred *Credentials) (*PostgresRepository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cred))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

// RunMigrations applies the embedded schema migrations.
func (r *PostgresRepository) RunMigrations() error {
	driver, err := postgres.WithInstance(r.db.DB, &postgres.Config{
		MigrationsTable: "storefront_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// CreateOrder inserts the order and its OrderPlaced outbox event in one transaction.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) (err error) {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}
	payload, err := OrderPlacedPayload(order)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		order.ID,
		order.UserID,
		string(itemsJSON),
		order.Totals.Subtotal,
		order.Totals.ShippingFee,
		order.Totals.Tax,
		order.Totals.GrandTotal,
		order.Currency,
		string(addressJSON),
		string(order.PaymentMethod),
		order.PaymentLabel,
		string(order.Status),
		order.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_outbox (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		order.ID.String(), EventOrderPlaced, string(payload))
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return row.toOrder()
}

func (r *PostgresRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at ASC, seq ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}

	orders := make([]*domain.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *PostgresRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	var events []*OutboxEvent
	err := r.db.SelectContext(ctx, &events,
		`SELECT id, aggregate_id, event_type, payload, created_at, processed_at
		 FROM order_outbox WHERE processed_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	return events, nil
}

func (r *PostgresRepository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE order_outbox SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (row *orderRow) toOrder() (*domain.Order, error) {
	order := &domain.Order{
		ID:     row.ID,
		UserID: row.UserID,
		Totals: domain.Totals{
			Subtotal:    row.Subtotal,
			ShippingFee: row.ShippingFee,
			Tax:         row.Tax,
			GrandTotal:  row.GrandTotal,
		},
		Currency:      row.Currency,
		PaymentMethod: domain.PaymentMethod(row.PaymentMethod),
		PaymentLabel:  row.PaymentLabel,
		Status:        domain.OrderStatus(row.Status),
		CreatedAt:     row.CreatedAt.UTC(),
	}
	if err := json.Unmarshal(row.Items, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(row.ShippingAddress, &order.Address); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	return order, nil
}
