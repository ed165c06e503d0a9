package repositories

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"frontend/internal/domain"
	"frontend/internal/forms"
	"frontend/internal/secure"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redis/v8"
)

var clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sealedCodec(t *testing.T) forms.Codec {
	t.Helper()
	box, err := secure.NewBox("drafts")
	if err != nil {
		t.Fatalf("box: %v", err)
	}
	return forms.Codec{Box: box}
}

func TestDraftRepositorySaveThenLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	codec := sealedCodec(t)
	repo := DraftRepository{DB: db, Codec: codec, TTL: time.Hour, Now: func() time.Time { return clock }}
	st := forms.State{ID: "d1", Flow: forms.FlowVehicle, OwnerID: "u1", Stage: 1, Values: map[string]string{"brand": "Toyota"}}

	mock.ExpectExec("INSERT INTO form_drafts").
		WithArgs("d1", forms.FlowVehicle, "u1", 1, sqlmock.AnyArg(), clock, clock.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := repo.Save(context.Background(), st); err != nil {
		t.Fatalf("save: %v", err)
	}

	payload, err := codec.Encode(st)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	mock.ExpectQuery("SELECT payload, expires_at").WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "expires_at"}).AddRow(payload, clock.Add(time.Hour)))

	got, err := repo.Load(context.Background(), "d1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Stage != 1 || got.Values["brand"] != "Toyota" {
		t.Fatalf("unexpected draft: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDraftRepositoryMissingAndExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := DraftRepository{DB: db, Codec: forms.Codec{}, Now: func() time.Time { return clock }}

	mock.ExpectQuery("SELECT payload, expires_at").WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "expires_at"}))
	if _, err := repo.Load(context.Background(), "gone"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("SELECT payload, expires_at").WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "expires_at"}).AddRow([]byte(`{}`), clock.Add(-time.Minute)))
	mock.ExpectExec("DELETE FROM form_drafts WHERE id=").WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if _, err := repo.Load(context.Background(), "old"); !domain.IsNotFound(err) {
		t.Fatalf("expected expired draft to be not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDraftRepositoryEnsureSchemaSkipsExistingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := DraftRepository{DB: db}

	mock.ExpectQuery("information_schema\\.tables").WithArgs("form_drafts").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("form_drafts"))
	mock.ExpectQuery("information_schema\\.columns").WithArgs("form_drafts", "payload").
		WillReturnRows(sqlmock.NewRows([]string{"data_type"}).AddRow("longblob"))
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	mock.ExpectQuery("information_schema\\.tables").WithArgs("form_drafts").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))
	mock.ExpectExec("(?s)CREATE TABLE IF NOT EXISTS form_drafts \\(.*payload LONGBLOB NOT NULL").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDraftRepositoryEnsureSchemaWidensPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := DraftRepository{DB: db}

	mock.ExpectQuery("information_schema\\.tables").WithArgs("form_drafts").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("form_drafts"))
	mock.ExpectQuery("information_schema\\.columns").WithArgs("form_drafts", "payload").
		WillReturnRows(sqlmock.NewRows([]string{"data_type"}).AddRow("mediumblob"))
	mock.ExpectExec("ALTER TABLE form_drafts MODIFY payload LONGBLOB NOT NULL").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// largerThan matches a []byte argument longer than n bytes.
type largerThan int

func (n largerThan) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	return ok && len(b) > int(n)
}

func photoDraft(size int) forms.State {
	photo := func(name string) *forms.Attachment {
		data := bytes.Repeat([]byte{0xff}, size)
		copy(data, "\xff\xd8\xff")
		return &forms.Attachment{Filename: name, ContentType: "image/jpeg", Data: data}
	}
	return forms.State{
		ID: "d2", Flow: forms.FlowVehicle, OwnerID: "u1", Stage: 1,
		Values: map[string]string{"brand": "Toyota"},
		Files:  map[string]*forms.Attachment{"imageFront": photo("front.jpg"), "imageBack": photo("back.jpg")},
	}
}

func TestDraftRepositorySavesTwoLargePhotos(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := DraftRepository{DB: db, Codec: sealedCodec(t), TTL: time.Hour, Now: func() time.Time { return clock }}

	// two 7 MB photos encode past the 16 MiB a MEDIUMBLOB holds
	mock.ExpectExec("INSERT INTO form_drafts").
		WithArgs("d2", forms.FlowVehicle, "u1", 1, largerThan(16<<20), clock, clock.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := repo.Save(context.Background(), photoDraft(7_000_000)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDraftRepositoryRejectsOversizedDraft(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := DraftRepository{DB: db, MaxBytes: 1 << 20}

	err = repo.Save(context.Background(), photoDraft(1<<20))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements: %v", err)
	}
}

func TestDraftRepositoryPurgeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := DraftRepository{DB: db, Now: func() time.Time { return clock }}

	mock.ExpectExec("DELETE FROM form_drafts WHERE expires_at").WithArgs(clock).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := repo.PurgeExpired(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("expected 3 purged, got %d (%v)", n, err)
	}
}

func TestDraftRepositorySaveFailureIsInternal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := DraftRepository{DB: db}

	mock.ExpectExec("INSERT INTO form_drafts").WillReturnError(errors.New("deadlock"))
	if err := repo.Save(context.Background(), forms.State{ID: "d1"}); !domain.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

type fakeRedis struct {
	data map[string][]byte
	ttl  map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = append([]byte(nil), value.([]byte)...)
	f.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestDraftCacheRoundTrip(t *testing.T) {
	rdb := newFakeRedis()
	cache := DraftCache{Client: rdb, Codec: sealedCodec(t), TTL: 30 * time.Minute}
	ctx := context.Background()

	if err := cache.Save(ctx, forms.State{ID: "d1", Values: map[string]string{"documentNumber": "X1"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rdb.ttl["form_draft:d1"] != 30*time.Minute {
		t.Fatalf("unexpected ttl %v", rdb.ttl["form_draft:d1"])
	}
	got, err := cache.Load(ctx, "d1")
	if err != nil || got.Values["documentNumber"] != "X1" {
		t.Fatalf("load: %+v %v", got, err)
	}
	if err := cache.Delete(ctx, "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cache.Load(ctx, "d1"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDraftCacheConnectionFailure(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	cache := DraftCache{Client: rdb}

	if _, err := cache.Load(context.Background(), "d1"); !domain.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err := cache.Save(context.Background(), forms.State{ID: "d1"}); !domain.IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
