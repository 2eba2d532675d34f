package syncer

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/splitsync/internal/logging"
	"github.com/dmitrijs2005/splitsync/internal/migrations"
	"github.com/dmitrijs2005/splitsync/internal/models"
	"github.com/dmitrijs2005/splitsync/internal/remote"
	"github.com/dmitrijs2005/splitsync/internal/repositories/archive"
	"github.com/dmitrijs2005/splitsync/internal/repositories/banking"
	"github.com/dmitrijs2005/splitsync/internal/repositories/devices"
	"github.com/dmitrijs2005/splitsync/internal/repositories/groups"
	"github.com/dmitrijs2005/splitsync/internal/repositories/idmap"
	"github.com/dmitrijs2005/splitsync/internal/repositories/metadata"
	"github.com/dmitrijs2005/splitsync/internal/repositories/payments"
	"github.com/dmitrijs2005/splitsync/internal/repositories/prefs"
	"github.com/dmitrijs2005/splitsync/internal/repositories/rates"
	"github.com/dmitrijs2005/splitsync/internal/repositories/users"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, "."))
	return db
}

type repos struct {
	users    *users.SQLiteRepository
	groups   *groups.SQLiteRepository
	payments *payments.SQLiteRepository
	banking  *banking.SQLiteRepository
	rates    *rates.SQLiteRepository
	devices  *devices.SQLiteRepository
	prefs    *prefs.SQLiteRepository
	archive  *archive.SQLiteRepository
	ids      *idmap.SQLiteRepository
	metadata *metadata.SQLiteRepository
}

func setupRepos(t *testing.T) *repos {
	t.Helper()
	db := setupDB(t)
	return &repos{
		users:    users.NewSQLiteRepository(db),
		groups:   groups.NewSQLiteRepository(db),
		payments: payments.NewSQLiteRepository(db),
		banking:  banking.NewSQLiteRepository(db),
		rates:    rates.NewSQLiteRepository(db),
		devices:  devices.NewSQLiteRepository(db),
		prefs:    prefs.NewSQLiteRepository(db),
		archive:  archive.NewSQLiteRepository(db),
		ids:      idmap.NewSQLiteRepository(db),
		metadata: metadata.NewSQLiteRepository(db),
	}
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func pendingMeta() models.SyncMeta {
	now := models.NowMillis()
	return models.SyncMeta{SyncStatus: models.StatusPendingSync, CreatedAt: now, UpdatedAt: now}
}

// fakeUsersAPI is an in-memory stand-in for the authority's user endpoints
// with per-method call counting and error injection.
type fakeUsersAPI struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]remote.UserWire
	calls   map[string]int
	errOn   map[string]error
}

func newFakeUsersAPI() *fakeUsersAPI {
	return &fakeUsersAPI{nextID: 1000, records: map[int64]remote.UserWire{}, calls: map[string]int{}, errOn: map[string]error{}}
}

func (f *fakeUsersAPI) called(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.errOn[method]
}

func (f *fakeUsersAPI) CreateUser(ctx context.Context, u remote.UserWire) (*remote.UserWire, error) {
	if err := f.called("CreateUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.records[u.ID] = u
	return &u, nil
}

func (f *fakeUsersAPI) UpdateUser(ctx context.Context, u remote.UserWire) (*remote.UserWire, error) {
	if err := f.called("UpdateUser"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[u.ID] = u
	return &u, nil
}

func (f *fakeUsersAPI) DeleteUser(ctx context.Context, id int64) error {
	if err := f.called("DeleteUser"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeUsersAPI) ListUsersSince(ctx context.Context, cursor int64) ([]remote.UserWire, error) {
	if err := f.called("ListUsersSince"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.UserWire
	for _, u := range f.records {
		if u.UpdatedAt > cursor {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeGroupsAPI covers groups and memberships.
type fakeGroupsAPI struct {
	mu          sync.Mutex
	nextID      int64
	groups      map[int64]remote.GroupWire
	memberships map[int64]remote.MembershipWire
	calls       map[string]int
	errOn       map[string]error
}

func newFakeGroupsAPI() *fakeGroupsAPI {
	return &fakeGroupsAPI{nextID: 2000, groups: map[int64]remote.GroupWire{}, memberships: map[int64]remote.MembershipWire{}, calls: map[string]int{}, errOn: map[string]error{}}
}

func (f *fakeGroupsAPI) called(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.errOn[method]
}

func (f *fakeGroupsAPI) CreateGroup(ctx context.Context, g remote.GroupWire) (*remote.GroupWire, error) {
	if err := f.called("CreateGroup"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g.ID = f.nextID
	f.groups[g.ID] = g
	return &g, nil
}

func (f *fakeGroupsAPI) UpdateGroup(ctx context.Context, g remote.GroupWire) (*remote.GroupWire, error) {
	if err := f.called("UpdateGroup"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[g.ID] = g
	return &g, nil
}

func (f *fakeGroupsAPI) DeleteGroup(ctx context.Context, id int64) error {
	if err := f.called("DeleteGroup"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, id)
	return nil
}

func (f *fakeGroupsAPI) ListGroupsSince(ctx context.Context, cursor int64) ([]remote.GroupWire, error) {
	if err := f.called("ListGroupsSince"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.GroupWire
	for _, g := range f.groups {
		if g.UpdatedAt > cursor {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGroupsAPI) CreateMembership(ctx context.Context, m remote.MembershipWire) (*remote.MembershipWire, error) {
	if err := f.called("CreateMembership"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	f.memberships[m.ID] = m
	return &m, nil
}

func (f *fakeGroupsAPI) UpdateMembership(ctx context.Context, m remote.MembershipWire) (*remote.MembershipWire, error) {
	if err := f.called("UpdateMembership"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships[m.ID] = m
	return &m, nil
}

func (f *fakeGroupsAPI) DeleteMembership(ctx context.Context, id int64) error {
	if err := f.called("DeleteMembership"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memberships, id)
	return nil
}

func (f *fakeGroupsAPI) ListMembershipsSince(ctx context.Context, cursor int64) ([]remote.MembershipWire, error) {
	if err := f.called("ListMembershipsSince"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.MembershipWire
	for _, m := range f.memberships {
		if m.UpdatedAt > cursor {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakePaymentsAPI covers payments and splits.
type fakePaymentsAPI struct {
	mu       sync.Mutex
	nextID   int64
	payments map[int64]remote.PaymentWire
	splits   map[int64]remote.SplitWire
	calls    map[string]int
	errOn    map[string]error
}

func newFakePaymentsAPI() *fakePaymentsAPI {
	return &fakePaymentsAPI{nextID: 3000, payments: map[int64]remote.PaymentWire{}, splits: map[int64]remote.SplitWire{}, calls: map[string]int{}, errOn: map[string]error{}}
}

func (f *fakePaymentsAPI) called(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.errOn[method]
}

func (f *fakePaymentsAPI) CreatePayment(ctx context.Context, p remote.PaymentWire) (*remote.PaymentWire, error) {
	if err := f.called("CreatePayment"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.payments[p.ID] = p
	return &p, nil
}

func (f *fakePaymentsAPI) UpdatePayment(ctx context.Context, p remote.PaymentWire) (*remote.PaymentWire, error) {
	if err := f.called("UpdatePayment"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[p.ID] = p
	return &p, nil
}

func (f *fakePaymentsAPI) DeletePayment(ctx context.Context, id int64) error {
	if err := f.called("DeletePayment"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.payments, id)
	return nil
}

func (f *fakePaymentsAPI) ListPaymentsSince(ctx context.Context, cursor int64) ([]remote.PaymentWire, error) {
	if err := f.called("ListPaymentsSince"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.PaymentWire
	for _, p := range f.payments {
		if p.UpdatedAt > cursor {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePaymentsAPI) CreateSplit(ctx context.Context, s remote.SplitWire) (*remote.SplitWire, error) {
	if err := f.called("CreateSplit"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	f.splits[s.ID] = s
	return &s, nil
}

func (f *fakePaymentsAPI) UpdateSplit(ctx context.Context, s remote.SplitWire) (*remote.SplitWire, error) {
	if err := f.called("UpdateSplit"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.splits[s.ID] = s
	return &s, nil
}

func (f *fakePaymentsAPI) DeleteSplit(ctx context.Context, id int64) error {
	if err := f.called("DeleteSplit"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.splits, id)
	return nil
}

// fakeBankingAPI covers bank accounts and requisitions.
type fakeBankingAPI struct {
	mu           sync.Mutex
	nextID       int64
	accounts     map[int64]remote.BankAccountWire
	requisitions map[int64]remote.RequisitionWire
	calls        map[string]int
	errOn        map[string]error
}

func newFakeBankingAPI() *fakeBankingAPI {
	return &fakeBankingAPI{nextID: 4000, accounts: map[int64]remote.BankAccountWire{}, requisitions: map[int64]remote.RequisitionWire{}, calls: map[string]int{}, errOn: map[string]error{}}
}

func (f *fakeBankingAPI) called(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.errOn[method]
}

func (f *fakeBankingAPI) CreateBankAccount(ctx context.Context, a remote.BankAccountWire) (*remote.BankAccountWire, error) {
	if err := f.called("CreateBankAccount"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	f.accounts[a.ID] = a
	return &a, nil
}

func (f *fakeBankingAPI) UpdateBankAccount(ctx context.Context, a remote.BankAccountWire) (*remote.BankAccountWire, error) {
	if err := f.called("UpdateBankAccount"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[a.ID] = a
	return &a, nil
}

func (f *fakeBankingAPI) DeleteBankAccount(ctx context.Context, id int64) error {
	if err := f.called("DeleteBankAccount"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.accounts, id)
	return nil
}

func (f *fakeBankingAPI) ListBankAccountsSince(ctx context.Context, cursor int64) ([]remote.BankAccountWire, error) {
	if err := f.called("ListBankAccountsSince"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.BankAccountWire
	for _, a := range f.accounts {
		if a.UpdatedAt > cursor {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBankingAPI) ListRequisitionsSince(ctx context.Context, cursor int64) ([]remote.RequisitionWire, error) {
	if err := f.called("ListRequisitionsSince"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.RequisitionWire
	for _, q := range f.requisitions {
		if q.UpdatedAt > cursor {
			out = append(out, q)
		}
	}
	return out, nil
}

// fakeRatesAPI, fakeDevicesAPI, fakePrefsAPI and fakeArchiveAPI round out
// the service for coordinator-level tests.
type fakeRatesAPI struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]remote.ConversionRateWire
}

func newFakeRatesAPI() *fakeRatesAPI {
	return &fakeRatesAPI{nextID: 5000, records: map[int64]remote.ConversionRateWire{}}
}

func (f *fakeRatesAPI) CreateRate(ctx context.Context, r remote.ConversionRateWire) (*remote.ConversionRateWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	f.records[r.ID] = r
	return &r, nil
}

func (f *fakeRatesAPI) UpdateRate(ctx context.Context, r remote.ConversionRateWire) (*remote.ConversionRateWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.ID] = r
	return &r, nil
}

func (f *fakeRatesAPI) DeleteRate(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeRatesAPI) ListRatesSince(ctx context.Context, cursor int64) ([]remote.ConversionRateWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.ConversionRateWire
	for _, r := range f.records {
		if r.UpdatedAt > cursor {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeDevicesAPI struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]remote.DeviceTokenWire
}

func newFakeDevicesAPI() *fakeDevicesAPI {
	return &fakeDevicesAPI{nextID: 6000, records: map[int64]remote.DeviceTokenWire{}}
}

func (f *fakeDevicesAPI) CreateDeviceToken(ctx context.Context, d remote.DeviceTokenWire) (*remote.DeviceTokenWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	d.ID = f.nextID
	f.records[d.ID] = d
	return &d, nil
}

func (f *fakeDevicesAPI) UpdateDeviceToken(ctx context.Context, d remote.DeviceTokenWire) (*remote.DeviceTokenWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[d.ID] = d
	return &d, nil
}

func (f *fakeDevicesAPI) DeleteDeviceToken(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeDevicesAPI) ListDeviceTokensSince(ctx context.Context, cursor int64) ([]remote.DeviceTokenWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.DeviceTokenWire
	for _, d := range f.records {
		if d.UpdatedAt > cursor {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakePrefsAPI struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]remote.PreferenceWire
}

func newFakePrefsAPI() *fakePrefsAPI {
	return &fakePrefsAPI{nextID: 7000, records: map[int64]remote.PreferenceWire{}}
}

func (f *fakePrefsAPI) CreatePreference(ctx context.Context, p remote.PreferenceWire) (*remote.PreferenceWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.records[p.ID] = p
	return &p, nil
}

func (f *fakePrefsAPI) UpdatePreference(ctx context.Context, p remote.PreferenceWire) (*remote.PreferenceWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[p.ID] = p
	return &p, nil
}

func (f *fakePrefsAPI) ListPreferencesSince(ctx context.Context, cursor int64) ([]remote.PreferenceWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.PreferenceWire
	for _, p := range f.records {
		if p.UpdatedAt > cursor {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeArchiveAPI struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]remote.ArchiveWire
}

func newFakeArchiveAPI() *fakeArchiveAPI {
	return &fakeArchiveAPI{nextID: 8000, records: map[int64]remote.ArchiveWire{}}
}

func (f *fakeArchiveAPI) CreateArchive(ctx context.Context, a remote.ArchiveWire) (*remote.ArchiveWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	f.records[a.ID] = a
	return &a, nil
}

func (f *fakeArchiveAPI) DeleteArchive(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeArchiveAPI) ListArchivesSince(ctx context.Context, cursor int64) ([]remote.ArchiveWire, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.ArchiveWire
	for _, a := range f.records {
		if a.UpdatedAt > cursor {
			out = append(out, a)
		}
	}
	return out, nil
}

// fakeService composes the per-entity fakes into a full remote.Service.
type fakeService struct {
	*fakeUsersAPI
	*fakeGroupsAPI
	*fakePaymentsAPI
	*fakeBankingAPI
	*fakeRatesAPI
	*fakeDevicesAPI
	*fakePrefsAPI
	*fakeArchiveAPI
}

func newFakeService() *fakeService {
	return &fakeService{
		fakeUsersAPI:    newFakeUsersAPI(),
		fakeGroupsAPI:   newFakeGroupsAPI(),
		fakePaymentsAPI: newFakePaymentsAPI(),
		fakeBankingAPI:  newFakeBankingAPI(),
		fakeRatesAPI:    newFakeRatesAPI(),
		fakeDevicesAPI:  newFakeDevicesAPI(),
		fakePrefsAPI:    newFakePrefsAPI(),
		fakeArchiveAPI:  newFakeArchiveAPI(),
	}
}
