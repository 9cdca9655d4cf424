package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const voucherColumns = `id, code, kind, value, is_active, status, valid_from, valid_to,
       application, zone_id, item_id, created_at`

func scanVoucher(row interface{ Scan(...any) error }) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.Code, &v.Kind, &v.Value, &v.IsActive, &v.Status,
		&v.ValidFrom, &v.ValidTo, &v.Application, &v.ZoneID, &v.ItemID, &v.CreatedAt)
	return v, err
}

// GetVoucherByCode fetches a voucher rule by its public code.
func (q *Queries) GetVoucherByCode(ctx context.Context, code string) (Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE code = $1`
	return scanVoucher(q.db.QueryRow(ctx, query, code))
}

// CreateVoucherParams carries the insertable voucher fields.
type CreateVoucherParams struct {
	Code        string
	Kind        DiscountKind
	Value       int64
	IsActive    bool
	Status      string
	ValidFrom   pgtype.Timestamptz
	ValidTo     pgtype.Timestamptz
	Application ApplicationType
	ZoneID      pgtype.UUID
	ItemID      pgtype.UUID
}

// CreateVoucher inserts a new voucher rule.
func (q *Queries) CreateVoucher(ctx context.Context, arg CreateVoucherParams) (Voucher, error) {
	query := `
INSERT INTO vouchers (code, kind, value, is_active, status, valid_from, valid_to, application, zone_id, item_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + voucherColumns
	return scanVoucher(q.db.QueryRow(ctx, query,
		arg.Code, arg.Kind, arg.Value, arg.IsActive, arg.Status,
		arg.ValidFrom, arg.ValidTo, arg.Application, arg.ZoneID, arg.ItemID))
}

// UpdateVoucher replaces the mutable fields of a voucher identified by code.
func (q *Queries) UpdateVoucher(ctx context.Context, arg CreateVoucherParams) (Voucher, error) {
	query := `
UPDATE vouchers
SET kind = $2, value = $3, is_active = $4, status = $5, valid_from = $6, valid_to = $7,
    application = $8, zone_id = $9, item_id = $10
WHERE code = $1
RETURNING ` + voucherColumns
	return scanVoucher(q.db.QueryRow(ctx, query,
		arg.Code, arg.Kind, arg.Value, arg.IsActive, arg.Status,
		arg.ValidFrom, arg.ValidTo, arg.Application, arg.ZoneID, arg.ItemID))
}

// ListVouchers returns all voucher rules, newest first.
func (q *Queries) ListVouchers(ctx context.Context) ([]Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY created_at DESC`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
