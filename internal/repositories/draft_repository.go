package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "frontend/internal/config"
	intdb "frontend/internal/db"
	"frontend/internal/domain"
	"frontend/internal/forms"
)

const draftTable = "form_drafts"

// defaultMaxDraftBytes stays under MySQL's default max_allowed_packet (64 MiB).
const defaultMaxDraftBytes = 48 << 20

// DraftRepository keeps sealed form drafts in MySQL.
type DraftRepository struct {
	DB    *sql.DB
	Codec forms.Codec
	TTL   time.Duration
	Now   func() time.Time
	// MaxBytes caps the encoded draft; zero means defaultMaxDraftBytes.
	MaxBytes int
}

func (r DraftRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r DraftRepository) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r DraftRepository) maxBytes() int {
	if r.MaxBytes > 0 {
		return r.MaxBytes
	}
	return defaultMaxDraftBytes
}

func (r DraftRepository) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return 2 * time.Hour
}

// EnsureSchema creates the drafts table when it is missing and widens a
// payload column left over as MEDIUMBLOB.
func (r DraftRepository) EnsureSchema(ctx context.Context) error {
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "database not connected"}
	}
	if intdb.HasTable(ctx, db, draftTable) {
		if t := intdb.ColumnType(ctx, db, draftTable, "payload"); t == "" || t == "longblob" {
			return nil
		}
		if _, err := db.ExecContext(ctx, `ALTER TABLE form_drafts MODIFY payload LONGBLOB NOT NULL`); err != nil {
			return domain.InternalError{Msg: "widen form_drafts.payload", Err: err}
		}
		return nil
	}
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS form_drafts (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			flow VARCHAR(64) NOT NULL,
			owner_id VARCHAR(64) NOT NULL DEFAULT '',
			stage INT NOT NULL DEFAULT 0,
			payload LONGBLOB NOT NULL,
			updated_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			KEY idx_form_drafts_expires (expires_at)
		)
	`)
	if err != nil {
		return domain.InternalError{Msg: "create form_drafts", Err: err}
	}
	return nil
}

func (r DraftRepository) Load(ctx context.Context, id string) (forms.State, error) {
	db := r.db()
	if db == nil {
		return forms.State{}, domain.InternalError{Msg: "database not connected"}
	}

	var (
		payload []byte
		expires time.Time
	)
	err := db.QueryRowContext(ctx, `
		SELECT payload, expires_at
		FROM form_drafts
		WHERE id=? LIMIT 1
	`, id).Scan(&payload, &expires)
	if err != nil {
		if intdb.IsNoRows(err) {
			return forms.State{}, domain.NotFoundError{Resource: "draft"}
		}
		return forms.State{}, domain.InternalError{Msg: "load draft", Err: err}
	}
	if r.now().After(expires) {
		_ = r.Delete(ctx, id)
		return forms.State{}, domain.NotFoundError{Resource: "draft"}
	}
	return r.Codec.Decode(payload)
}

// Save upserts st and slides its expiry.
func (r DraftRepository) Save(ctx context.Context, st forms.State) error {
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "database not connected"}
	}
	payload, err := r.Codec.Encode(st)
	if err != nil {
		return domain.InternalError{Msg: "encode draft", Err: err}
	}
	if len(payload) > r.maxBytes() {
		return domain.ValidationError{Field: "files", Msg: fmt.Sprintf("draft is too large (%d MB max), use smaller photos", r.maxBytes()>>20)}
	}
	now := r.now()
	_, err = db.ExecContext(ctx, `
		INSERT INTO form_drafts (id, flow, owner_id, stage, payload, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			stage=VALUES(stage),
			payload=VALUES(payload),
			updated_at=VALUES(updated_at),
			expires_at=VALUES(expires_at)
	`, st.ID, st.Flow, st.OwnerID, st.Stage, payload, now, now.Add(r.ttl()))
	if err != nil {
		return domain.InternalError{Msg: "save draft", Err: err}
	}
	return nil
}

func (r DraftRepository) Delete(ctx context.Context, id string) error {
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "database not connected"}
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM form_drafts WHERE id=?`, id); err != nil {
		return domain.InternalError{Msg: "delete draft", Err: err}
	}
	return nil
}

// PurgeExpired removes every draft past its expiry and returns how many went.
func (r DraftRepository) PurgeExpired(ctx context.Context) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, domain.InternalError{Msg: "database not connected"}
	}
	res, err := db.ExecContext(ctx, `DELETE FROM form_drafts WHERE expires_at < ?`, r.now())
	if err != nil {
		return 0, domain.InternalError{Msg: "purge drafts", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	return n, nil
}
