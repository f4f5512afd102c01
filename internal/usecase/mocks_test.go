package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/foodlens/backend/internal/domain"
)

var errStore = errors.New("store unavailable")

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalls  int
	setCalls  int
	lastTTL   time.Duration
	deletions []string
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	m.lastTTL = ttl
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletions = append(m.deletions, key)
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockRawStore is an in-memory domain.RawStore
type MockRawStore struct {
	mu        sync.Mutex
	records   []domain.RawRecord
	hashes    map[string]bool
	insertErr error
	scanErr   error
}

func NewMockRawStore(records ...domain.RawRecord) *MockRawStore {
	m := &MockRawStore{hashes: make(map[string]bool)}
	for _, rec := range records {
		m.records = append(m.records, rec)
		m.hashes[rec.Hash] = true
	}
	return m
}

func (m *MockRawStore) Insert(ctx context.Context, rec domain.RawRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.hashes[rec.Hash] {
		return domain.ErrDuplicateRecord
	}
	m.hashes[rec.Hash] = true
	m.records = append(m.records, rec)
	return nil
}

func (m *MockRawStore) Scan(ctx context.Context, limit int, fn func(domain.RawRecord) error) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	m.mu.Lock()
	records := append([]domain.RawRecord(nil), m.records...)
	m.mu.Unlock()

	for i, rec := range records {
		if limit > 0 && i >= limit {
			break
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockRawStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

// MockOutcomeStore is an in-memory domain.OutcomeStore keyed by raw id
type MockOutcomeStore struct {
	mu       sync.Mutex
	outcomes map[string]domain.Outcome
	order    []string
	putCalls int
	putErr   error
	idsErr   error
	scanErr  error
}

func NewMockOutcomeStore(outcomes ...domain.Outcome) *MockOutcomeStore {
	m := &MockOutcomeStore{outcomes: make(map[string]domain.Outcome)}
	for _, o := range outcomes {
		_ = m.Put(context.Background(), o)
	}
	m.putCalls = 0
	return m
}

func (m *MockOutcomeStore) Put(ctx context.Context, o domain.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	if _, ok := m.outcomes[o.RawID]; !ok {
		m.order = append(m.order, o.RawID)
	}
	m.outcomes[o.RawID] = o
	return nil
}

func (m *MockOutcomeStore) Get(ctx context.Context, rawID string) (*domain.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.outcomes[rawID]
	if !ok {
		return nil, domain.ErrOutcomeNotFound
	}
	return &o, nil
}

func (m *MockOutcomeStore) IDs(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idsErr != nil {
		return nil, m.idsErr
	}
	ids := make(map[string]struct{}, len(m.outcomes))
	for id := range m.outcomes {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (m *MockOutcomeStore) Scan(ctx context.Context, status domain.OutcomeStatus, limit int, fn func(domain.Outcome) error) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	m.mu.Lock()
	var selected []domain.Outcome
	for _, id := range m.order {
		o := m.outcomes[id]
		if status == "" || o.Status == status {
			selected = append(selected, o)
		}
	}
	m.mu.Unlock()

	for i, o := range selected {
		if limit > 0 && i >= limit {
			break
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockOutcomeStore) Stats(ctx context.Context) (domain.OutcomeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats domain.OutcomeStats
	for _, o := range m.outcomes {
		stats.Total++
		if o.Status == domain.OutcomeSuccess {
			stats.Success++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

// MockProductSource serves fixed pages; pages past the end are empty
type MockProductSource struct {
	pages     [][]domain.RawPayload
	fetchErr  error
	requested []int
}

func (m *MockProductSource) FetchPage(ctx context.Context, page, pageSize int) ([]domain.RawPayload, error) {
	m.requested = append(m.requested, page)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if page-1 < len(m.pages) {
		return m.pages[page-1], nil
	}
	return nil, nil
}

// MockCatalogReader is a mock implementation of domain.CatalogReader
type MockCatalogReader struct {
	items      []domain.ProductSummary
	total      int
	detail     *domain.ProductDetail
	stats      *domain.CatalogStats
	err        error
	lastFilter domain.ProductFilter
	getCalls   int
	statsCalls int
}

func (m *MockCatalogReader) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductSummary, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.items, m.total, nil
}

func (m *MockCatalogReader) GetProduct(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	if m.detail == nil || m.detail.ID != id {
		return nil, domain.ErrProductNotFound
	}
	d := *m.detail
	return &d, nil
}

func (m *MockCatalogReader) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	m.statsCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// MockCatalog is an in-memory domain.CatalogWriter. Writes made inside a
// transaction become visible to other transactions only on commit.
type MockCatalog struct {
	nextID     int64
	products   map[string]domain.ProductRow
	productIDs map[string]int64
	brands     map[string]int64
	categories map[string]int64
	links      map[int64][]int64
	nutrients  map[int64]map[string]domain.Nutrient
	allergens  map[int64][]string

	createBrandCalls    map[string]int
	createCategoryCalls map[string]int
	failInsert          map[string]error
	beginErr            error
	commits             int
	rollbacks           int
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		products:            make(map[string]domain.ProductRow),
		productIDs:          make(map[string]int64),
		brands:              make(map[string]int64),
		categories:          make(map[string]int64),
		links:               make(map[int64][]int64),
		nutrients:           make(map[int64]map[string]domain.Nutrient),
		allergens:           make(map[int64][]string),
		createBrandCalls:    make(map[string]int),
		createCategoryCalls: make(map[string]int),
		failInsert:          make(map[string]error),
	}
}

func (m *MockCatalog) BeginLoad(ctx context.Context) (domain.LoadTx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &mockLoadTx{
		c:          m,
		products:   make(map[string]domain.ProductRow),
		productIDs: make(map[string]int64),
		brands:     make(map[string]int64),
		categories: make(map[string]int64),
		links:      make(map[int64][]int64),
		nutrients:  make(map[int64]map[string]domain.Nutrient),
		allergens:  make(map[int64][]string),
	}, nil
}

func (m *MockCatalog) id() int64 {
	m.nextID++
	return m.nextID
}

type mockLoadTx struct {
	c          *MockCatalog
	done       bool
	products   map[string]domain.ProductRow
	productIDs map[string]int64
	brands     map[string]int64
	categories map[string]int64
	links      map[int64][]int64
	nutrients  map[int64]map[string]domain.Nutrient
	allergens  map[int64][]string
}

func (t *mockLoadTx) ProductExists(ctx context.Context, rawID string) (bool, error) {
	_, ok := t.c.productIDs[rawID]
	return ok, nil
}

func (t *mockLoadTx) FindBrand(ctx context.Context, name string) (int64, bool, error) {
	if id, ok := t.brands[name]; ok {
		return id, true, nil
	}
	id, ok := t.c.brands[name]
	return id, ok, nil
}

func (t *mockLoadTx) CreateBrand(ctx context.Context, name string) (int64, error) {
	t.c.createBrandCalls[name]++
	id := t.c.id()
	t.brands[name] = id
	return id, nil
}

func (t *mockLoadTx) FindCategory(ctx context.Context, name string) (int64, bool, error) {
	if id, ok := t.categories[name]; ok {
		return id, true, nil
	}
	id, ok := t.c.categories[name]
	return id, ok, nil
}

func (t *mockLoadTx) CreateCategory(ctx context.Context, name string) (int64, error) {
	t.c.createCategoryCalls[name]++
	id := t.c.id()
	t.categories[name] = id
	return id, nil
}

func (t *mockLoadTx) InsertProduct(ctx context.Context, row domain.ProductRow) (int64, error) {
	if err := t.c.failInsert[row.RawID]; err != nil {
		return 0, err
	}
	id := t.c.id()
	t.products[row.RawID] = row
	t.productIDs[row.RawID] = id
	return id, nil
}

func (t *mockLoadTx) LinkCategory(ctx context.Context, productID, categoryID int64) error {
	t.links[productID] = append(t.links[productID], categoryID)
	return nil
}

func (t *mockLoadTx) InsertNutrient(ctx context.Context, productID int64, name string, n domain.Nutrient) error {
	if t.nutrients[productID] == nil {
		t.nutrients[productID] = make(map[string]domain.Nutrient)
	}
	t.nutrients[productID][name] = n
	return nil
}

func (t *mockLoadTx) InsertAllergen(ctx context.Context, productID int64, name string) error {
	t.allergens[productID] = append(t.allergens[productID], name)
	return nil
}

func (t *mockLoadTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	t.c.commits++
	for k, v := range t.products {
		t.c.products[k] = v
	}
	for k, v := range t.productIDs {
		t.c.productIDs[k] = v
	}
	for k, v := range t.brands {
		t.c.brands[k] = v
	}
	for k, v := range t.categories {
		t.c.categories[k] = v
	}
	for k, v := range t.links {
		t.c.links[k] = v
	}
	for k, v := range t.nutrients {
		t.c.nutrients[k] = v
	}
	for k, v := range t.allergens {
		t.c.allergens[k] = v
	}
	return nil
}

func (t *mockLoadTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.c.rollbacks++
	return nil
}
