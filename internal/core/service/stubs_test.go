package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vinylshop/storefront/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory user repository with the same uniqueness rules as the indexes.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User

	findErr     error
	createErr   error
	afterLookup func() // runs after FindByEmailOrUsername, outside the lock
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return nil, domain.ErrConflict
		}
	}
	r.nextID++
	clone := *u
	clone.ID = r.nextID
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*domain.User, error) {
	u, err := r.find(func(u *domain.User) bool { return u.Email == email || u.Username == username })
	if r.afterLookup != nil {
		r.afterLookup()
	}
	return u, err
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---------------------------------------------------------------------------
// In-memory cart repository. Every method is atomic, like a single storage
// statement; Insert enforces the (user, product) uniqueness the index gives.
// ---------------------------------------------------------------------------

type cartKey struct{ user, product int64 }

type stubCartRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.CartItem
	byPair map[cartKey]int64
	titles map[int64]string // product catalog for ListLines

	incrementErr error
	insertErr    error
	beforeInsert func() // runs before Insert takes the lock
	inserts      int
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		rows:   make(map[int64]*domain.CartItem),
		byPair: make(map[cartKey]int64),
		titles: make(map[int64]string),
	}
}

func (r *stubCartRepo) Increment(_ context.Context, userID, productID int64) (*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incrementErr != nil {
		return nil, r.incrementErr
	}
	id, ok := r.byPair[cartKey{userID, productID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	row := r.rows[id]
	row.Quantity++
	row.UpdatedAt = time.Now().UTC()
	clone := *row
	return &clone, nil
}

func (r *stubCartRepo) Insert(_ context.Context, userID, productID int64) (*domain.CartItem, error) {
	if r.beforeInsert != nil {
		r.beforeInsert()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	key := cartKey{userID, productID}
	if _, exists := r.byPair[key]; exists {
		return nil, domain.ErrConflict
	}
	r.nextID++
	now := time.Now().UTC()
	row := &domain.CartItem{ID: r.nextID, UserID: userID, ProductID: productID, Quantity: 1, CreatedAt: now, UpdatedAt: now}
	r.rows[row.ID] = row
	r.byPair[key] = row.ID
	clone := *row
	return &clone, nil
}

func (r *stubCartRepo) SumQuantity(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, row := range r.rows {
		if row.UserID == userID {
			total += row.Quantity
		}
	}
	return total, nil
}

func (r *stubCartRepo) ListLines(_ context.Context, userID int64) ([]domain.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lines []domain.CartLine
	for _, row := range r.rows {
		title, ok := r.titles[row.ProductID]
		if row.UserID != userID || !ok {
			continue
		}
		lines = append(lines, domain.CartLine{CartItemID: row.ID, Quantity: row.Quantity, Title: title})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].CartItemID < lines[j].CartItemID })
	return lines, nil
}

func (r *stubCartRepo) Delete(_ context.Context, userID, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[itemID]
	if !ok || row.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.rows, itemID)
	delete(r.byPair, cartKey{row.UserID, row.ProductID})
	return nil
}

func (r *stubCartRepo) DeleteAll(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, row := range r.rows {
		if row.UserID == userID {
			delete(r.rows, id)
			delete(r.byPair, cartKey{row.UserID, row.ProductID})
			n++
		}
	}
	return n, nil
}

func (r *stubCartRepo) rowsFor(userID, productID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.UserID == userID && row.ProductID == productID {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// In-memory session store.
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	saveErr  error
	getErr   error
	delErr   error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sess, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.sessions, id)
	return nil
}
