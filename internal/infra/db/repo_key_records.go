package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"schnorrd/pkg/schnorr"

	"gorm.io/gorm"
)

const keyRecordsTable = "key_records"

// KeyRecordRepository stores key records through the explicit field codec. Columns are
// named and ordered by schnorr.KeyRecordFields.
type KeyRecordRepository struct {
	db    *gorm.DB
	newID func() string
}

func NewKeyRecordRepository(db *gorm.DB) *KeyRecordRepository {
	return &KeyRecordRepository{db: db, newID: newUUID}
}

func (r *KeyRecordRepository) Save(ctx context.Context, rec schnorr.KeyRecord) (string, error) {
	if r.db == nil {
		return "", errDBUnavailable
	}
	if rec.ID == "" {
		rec.ID = r.newID()
	}
	values := schnorr.EncodeKeyRecord(rec)
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	columns := schnorr.KeyRecordColumns()
	query := "INSERT INTO " + keyRecordsTable + " (" + strings.Join(columns, ", ") + ") VALUES (" + placeholders(len(columns)) + ")"
	if err := r.db.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (r *KeyRecordRepository) Get(ctx context.Context, id string) (schnorr.KeyRecord, error) {
	if r.db == nil {
		return schnorr.KeyRecord{}, errDBUnavailable
	}
	columns := schnorr.KeyRecordColumns()
	query := "SELECT " + strings.Join(columns, ", ") + " FROM " + keyRecordsTable + " WHERE id = ?"

	values := make([]string, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	row := r.db.WithContext(ctx).Raw(query, id).Row()
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schnorr.KeyRecord{}, schnorr.ErrRecordNotFound
		}
		return schnorr.KeyRecord{}, err
	}
	return schnorr.DecodeKeyRecord(values)
}

func (r *KeyRecordRepository) Count(ctx context.Context) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	var n int64
	if err := r.db.WithContext(ctx).Raw("SELECT count(*) FROM " + keyRecordsTable).Scan(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

var _ schnorr.KeyStore = (*KeyRecordRepository)(nil)
