package trial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/datatypes"
)

type brokenStore struct{}

func (brokenStore) Name() string { return "broken" }
func (brokenStore) Load(context.Context, string) (*Status, error) {
	return nil, errors.New("down")
}
func (brokenStore) Save(context.Context, *Status) error { return errors.New("down") }

func newService(t *testing.T, stores ...Store) (*Service, *MemoryStore, *DBStore) {
	t.Helper()
	mem := NewMemoryStore(time.Hour)
	t.Cleanup(mem.Close)
	db := NewDBStore(testutil.NewDB(t))
	all := append([]Store{mem, db}, stores...)
	return NewService(3, 24*time.Hour, NewCookieCodec("secret"), all...), mem, db
}

func TestConsume(t *testing.T) {
	svc, mem, db := newService(t)
	ctx := context.Background()

	st := svc.Resolve(ctx, "fp1", "")
	assert.Equal(t, 3, st.Remaining)
	assert.Equal(t, Version, st.Version)

	for i := 2; i >= 0; i-- {
		st, err := svc.Consume(ctx, "fp1", "", ActionAnalyzeChannel, "UC1")
		require.NoError(t, err)
		assert.Equal(t, i, st.Remaining)
	}

	_, err := svc.Consume(ctx, "fp1", "", ActionAnalyzeChannel, "")
	assert.ErrorIs(t, err, ErrExhausted)

	fromMem, err := mem.Load(ctx, "fp1")
	require.NoError(t, err)
	fromDB, err := db.Load(ctx, "fp1")
	require.NoError(t, err)
	assert.Equal(t, 0, fromMem.Remaining)
	assert.Equal(t, 0, fromDB.Remaining)
	assert.Len(t, fromDB.Actions, 3)
}

func TestConsumeRejectsUnknownAction(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Consume(context.Background(), "fp", "", "export_everything", "")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestResolveLastWriteWins(t *testing.T) {
	svc, mem, db := newService(t)
	ctx := context.Background()
	now := time.Now()

	older := &Status{Fingerprint: "fp", Remaining: 2, Limit: 3, Version: Version, UpdatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)}
	newer := &Status{Fingerprint: "fp", Remaining: 1, Limit: 3, Version: Version, UpdatedAt: now.Add(-time.Minute), ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, mem.Save(ctx, older))
	require.NoError(t, db.Save(ctx, newer))

	assert.Equal(t, 1, svc.Resolve(ctx, "fp", "").Remaining)
}

func TestResolveDiscardsStaleVersions(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, mem.Save(ctx, &Status{Fingerprint: "fp", Remaining: 0, Version: "v1", UpdatedAt: now, ExpiresAt: now.Add(time.Hour)}))
	assert.Equal(t, 3, svc.Resolve(ctx, "fp", "").Remaining)

	require.NoError(t, mem.Save(ctx, &Status{Fingerprint: "fp", Remaining: 0, Version: Version, UpdatedAt: now, ExpiresAt: now.Add(-time.Second)}))
	assert.Equal(t, 3, svc.Resolve(ctx, "fp", "").Remaining, "expired copy ignored")
}

func TestCookieRestoresLostServerState(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	st, err := svc.Consume(ctx, "fp", "", ActionGenerateReport, "")
	require.NoError(t, err)
	cookie, err := svc.Cookie(st)
	require.NoError(t, err)

	// A second instance with empty stores still honours the signed cookie.
	other, _, _ := newService(t)
	assert.Equal(t, 2, other.Resolve(ctx, "fp", cookie).Remaining)

	// Another visitor cannot reuse it.
	assert.Equal(t, 3, other.Resolve(ctx, "someone-else", cookie).Remaining)

	// Tampering breaks the signature.
	assert.Equal(t, 3, other.Resolve(ctx, "fp", "x"+cookie).Remaining)
}

func TestSaveToleratesPartialFailure(t *testing.T) {
	svc, _, _ := newService(t, brokenStore{})
	st, err := svc.Consume(context.Background(), "fp", "", ActionAIInsight, "")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Remaining)

	only := NewService(3, time.Hour, nil, brokenStore{})
	_, err = only.Consume(context.Background(), "fp", "", ActionAIInsight, "")
	require.Error(t, err)
}

func TestClaimAndReset(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	user, other := uuid.New(), uuid.New()

	st, err := svc.Claim(ctx, "fp", "", user)
	require.NoError(t, err)
	require.NotNil(t, st.ConvertedUserID)

	_, err = svc.Claim(ctx, "fp", "", user)
	require.NoError(t, err)
	_, err = svc.Claim(ctx, "fp", "", other)
	assert.ErrorIs(t, err, ErrConverted)
	_, err = svc.Consume(ctx, "fp", "", ActionAnalyzeChannel, "")
	assert.ErrorIs(t, err, ErrConverted)

	st, err = svc.Reset(ctx, "fp")
	require.NoError(t, err)
	assert.Nil(t, st.ConvertedUserID)
	assert.Equal(t, 3, svc.Resolve(ctx, "fp", "").Remaining)
}

func TestDBStoreCorruptActionLog(t *testing.T) {
	store := NewDBStore(testutil.NewDB(t))
	ctx := context.Background()
	require.NoError(t, store.db.Create(&models.AnonymousTrial{
		Fingerprint: "fp-corrupt",
		Remaining:   2,
		Limit:       3,
		Actions:     datatypes.JSON(`{"not":"a list"`),
		Version:     Version,
		ExpiresAt:   time.Now().Add(time.Hour),
	}).Error)

	st, err := store.Load(ctx, "fp-corrupt")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Remaining)
	assert.Empty(t, st.Actions)
}

func TestMemoryStoreJanitor(t *testing.T) {
	defer goleak.VerifyNone(t)

	mem := NewMemoryStore(time.Hour)
	now := time.Now()
	ctx := context.Background()
	require.NoError(t, mem.Save(ctx, &Status{Fingerprint: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, mem.Save(ctx, &Status{Fingerprint: "live", ExpiresAt: now.Add(time.Minute)}))

	assert.Equal(t, 1, mem.sweep())
	assert.Equal(t, 1, mem.Len())
	mem.Close()
	mem.Close()
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("dev-1", "UA", "1.1.1.1", "en")
	b := Fingerprint("dev-1", "UA", "2.2.2.2", "tr")
	c := Fingerprint("", "UA", "1.1.1.1", "en")

	assert.Len(t, a, 32)
	assert.Equal(t, a, b, "device header is stable across networks")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, c, Fingerprint("", "UA", "1.1.1.2", "en"))
}
