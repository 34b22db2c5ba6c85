package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/and161185/foodpocket/internal/errs"
	"github.com/and161185/foodpocket/internal/limiter"
	"github.com/and161185/foodpocket/internal/model"
	"github.com/and161185/foodpocket/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// memStore backs every fake repository so cascades cross entity boundaries
// the same way the SQL ones do.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	tokens   map[string]model.Token
	pockets  map[uuid.UUID]*model.Pocket
	rests    map[uuid.UUID]*model.Restaurant
	visits   map[uuid.UUID]*model.VisitRecord
	stamp    time.Time

	tokenCollisions int
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*model.Account{},
		tokens:   map[string]model.Token{},
		pockets:  map[uuid.UUID]*model.Pocket{},
		rests:    map[uuid.UUID]*model.Restaurant{},
		visits:   map[uuid.UUID]*model.VisitRecord{},
		stamp:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick hands out strictly increasing created_at values.
func (m *memStore) tick() time.Time {
	m.stamp = m.stamp.Add(time.Second)
	return m.stamp
}

type (
	fakeAccounts    struct{ *memStore }
	fakeTokens      struct{ *memStore }
	fakePockets     struct{ *memStore }
	fakeRestaurants struct{ *memStore }
	fakeVisits      struct{ *memStore }
)

var (
	_ repository.AccountRepository    = fakeAccounts{}
	_ repository.TokenRepository      = fakeTokens{}
	_ repository.PocketRepository     = fakePockets{}
	_ repository.RestaurantRepository = fakeRestaurants{}
	_ repository.VisitRepository      = fakeVisits{}
)

/************ accounts & tokens ************/

func (f fakeAccounts) Create(_ context.Context, a *model.Account, first *model.Pocket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[strings.ToLower(a.Username)]; ok {
		return errs.ErrUsernameTaken
	}
	for _, other := range f.accounts {
		if other.Email == a.Email {
			return errs.ErrEmailTaken
		}
	}
	cp := *a
	cp.CreatedAt = f.tick()
	f.accounts[strings.ToLower(a.Username)] = &cp
	p := *first
	p.CreatedAt = f.tick()
	f.pockets[p.ID] = &p
	return nil
}

func (f fakeAccounts) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[strings.ToLower(username)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeAccounts) TouchLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ID == id {
			a.LastLogin = at
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f fakeTokens) Create(_ context.Context, t *model.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenCollisions > 0 {
		f.tokenCollisions--
		return errs.ErrAlreadyExists
	}
	if _, ok := f.tokens[t.Token]; ok {
		return errs.ErrAlreadyExists
	}
	f.tokens[t.Token] = *t
	return nil
}

func (f fakeTokens) Owner(_ context.Context, token string, now time.Time) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.ExpireTime.Before(now) {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return t.AccountID, nil
}

/************ pockets ************/

func (f fakePockets) Create(_ context.Context, p *model.Pocket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	cp.CreatedAt = f.tick()
	f.pockets[p.ID] = &cp
	return nil
}

func (f fakePockets) Get(_ context.Context, ownerID, id uuid.UUID) (*model.Pocket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pockets[id]
	if !ok || p.OwnerID != ownerID {
		return nil, errs.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakePockets) live(ownerID uuid.UUID) []*model.Pocket {
	var out []*model.Pocket
	for _, p := range f.pockets {
		if p.OwnerID == ownerID && p.Status != model.PocketDeleted {
			out = append(out, p)
		}
	}
	return out
}

func (f fakePockets) List(_ context.Context, ownerID uuid.UUID) ([]model.PocketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.PocketSummary{}
	for _, p := range f.live(ownerID) {
		s := model.PocketSummary{Pocket: *p}
		for _, r := range f.rests {
			if r.PocketID == p.ID && r.Status != model.RestaurantDeleted {
				s.Size++
			}
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b model.PocketSummary) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (f fakePockets) LastUsed(_ context.Context, ownerID uuid.UUID) (*model.Pocket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := f.live(ownerID)
	if len(live) == 0 {
		return nil, errs.ErrNotFound
	}
	slices.SortFunc(live, func(a, b *model.Pocket) int {
		switch {
		case a.LastUseTime != nil && b.LastUseTime != nil:
			if c := b.LastUseTime.Compare(*a.LastUseTime); c != 0 {
				return c
			}
		case a.LastUseTime != nil:
			return -1
		case b.LastUseTime != nil:
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	cp := *live[0]
	return &cp, nil
}

func (f fakePockets) Touch(_ context.Context, ownerID, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pockets[id]; ok && p.OwnerID == ownerID {
		p.LastUseTime = &at
	}
	return nil
}

func (f fakePockets) Update(_ context.Context, ownerID, id uuid.UUID, patch model.PocketPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pockets[id]
	if !ok || p.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Note != nil {
		p.Note = *patch.Note
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return nil
}

func (f fakePockets) Remove(_ context.Context, ownerID, id uuid.UUID, patch model.PocketPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pockets[id]
	if !ok || p.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	if p.Status == model.PocketDeleted {
		return nil
	}
	if len(f.live(ownerID)) <= 1 {
		return errs.ErrLastPocket
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Note != nil {
		p.Note = *patch.Note
	}
	p.Status = model.PocketDeleted
	for _, r := range f.rests {
		if r.PocketID == id && r.Status != model.RestaurantDeleted {
			f.dropRestaurant(r)
		}
	}
	return nil
}

/************ restaurants ************/

func (m *memStore) dropRestaurant(r *model.Restaurant) {
	r.Status = model.RestaurantDeleted
	r.LastVisit = nil
	for _, v := range m.visits {
		if v.RestaurantID == r.ID {
			v.Status = model.VisitDeleted
		}
	}
}

func (m *memStore) refreshLastVisit(restaurantID uuid.UUID) {
	var last *time.Time
	for _, v := range m.visits {
		if v.RestaurantID == restaurantID && v.Status != model.VisitDeleted {
			if last == nil || v.VisitDate.After(*last) {
				d := v.VisitDate
				last = &d
			}
		}
	}
	if r, ok := m.rests[restaurantID]; ok {
		r.LastVisit = last
	}
}

func (f fakeRestaurants) FindOrCreate(_ context.Context, r *model.Restaurant) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.rests {
		if other.OwnerID == r.OwnerID && other.Name == r.Name && other.Status != model.RestaurantDeleted {
			return other.ID, false, nil
		}
	}
	cp := *r
	cp.CreatedAt = f.tick()
	f.rests[r.ID] = &cp
	return r.ID, true, nil
}

func (f fakeRestaurants) Get(_ context.Context, ownerID, id uuid.UUID) (*model.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rests[id]
	if !ok || r.OwnerID != ownerID {
		return nil, errs.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f fakeRestaurants) NameTaken(_ context.Context, ownerID uuid.UUID, name string, except uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rests {
		if r.OwnerID == ownerID && r.Name == name && r.Status != model.RestaurantDeleted && r.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeRestaurants) Update(_ context.Context, ownerID, id uuid.UUID, patch model.RestaurantPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rests[id]
	if !ok || r.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Note != nil {
		r.Note = *patch.Note
	}
	if patch.HideUntil != nil {
		r.HideUntil = *patch.HideUntil
	}
	if patch.Status != nil {
		if *patch.Status == model.RestaurantDeleted {
			f.dropRestaurant(r)
		} else {
			r.Status = *patch.Status
		}
	}
	return nil
}

func (f fakeRestaurants) Remove(_ context.Context, ownerID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rests[id]
	if !ok || r.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	f.dropRestaurant(r)
	return nil
}

func (f fakeRestaurants) ListByPocket(_ context.Context, pocketID uuid.UUID) ([]model.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Restaurant{}
	for _, r := range f.rests {
		if r.PocketID == pocketID && r.Status != model.RestaurantDeleted {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b model.Restaurant) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (f fakeRestaurants) ListVisible(ctx context.Context, pocketID uuid.UUID, today time.Time) ([]model.Restaurant, error) {
	all, _ := f.ListByPocket(ctx, pocketID)
	out := []model.Restaurant{}
	for _, r := range all {
		if !r.HideUntil.After(today) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Restaurant) int {
		switch {
		case a.LastVisit != nil && b.LastVisit != nil:
			return a.LastVisit.Compare(*b.LastVisit)
		case a.LastVisit != nil:
			return -1
		case b.LastVisit != nil:
			return 1
		}
		return 0
	})
	return out, nil
}

/************ visits ************/

func (f fakeVisits) Create(_ context.Context, v *model.VisitRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *v
	cp.CreatedAt = f.tick()
	f.visits[v.ID] = &cp
	f.refreshLastVisit(v.RestaurantID)
	return nil
}

func (f fakeVisits) Update(_ context.Context, ownerID, id uuid.UUID, patch model.VisitPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok || v.OwnerID != ownerID || v.Status == model.VisitDeleted {
		return errs.ErrNotFound
	}
	if patch.VisitDate != nil {
		v.VisitDate = *patch.VisitDate
	}
	if patch.Score != nil {
		v.Score = *patch.Score
	}
	f.refreshLastVisit(v.RestaurantID)
	return nil
}

func (f fakeVisits) Remove(_ context.Context, ownerID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.visits[id]
	if !ok || v.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	v.Status = model.VisitDeleted
	f.refreshLastVisit(v.RestaurantID)
	return nil
}

func (f fakeVisits) ListByPocket(_ context.Context, ownerID, pocketID uuid.UUID) ([]model.VisitView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.VisitView{}
	for _, v := range f.visits {
		r := f.rests[v.RestaurantID]
		if v.OwnerID != ownerID || r == nil || r.PocketID != pocketID || v.Status == model.VisitDeleted {
			continue
		}
		out = append(out, model.VisitView{VisitRecord: *v, RestaurantName: r.Name})
	}
	slices.SortFunc(out, func(a, b model.VisitView) int {
		if c := b.VisitDate.Compare(a.VisitDate); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (f fakeVisits) RecentCounts(_ context.Context, pocketID uuid.UUID, today time.Time) (map[uuid.UUID]model.VisitCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	month, week := today.AddDate(0, 0, -30), today.AddDate(0, 0, -7)
	out := map[uuid.UUID]model.VisitCounts{}
	for _, v := range f.visits {
		r := f.rests[v.RestaurantID]
		if r == nil || r.PocketID != pocketID || v.Status == model.VisitDeleted {
			continue
		}
		c := out[v.RestaurantID]
		c.Total++
		if v.VisitDate.After(month) {
			c.Last30Days++
		}
		if v.VisitDate.After(week) {
			c.Last7Days++
		}
		out[v.RestaurantID] = c
	}
	return out, nil
}

/************ limiter ************/

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool

	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, nil
}

/************ wiring ************/

// fixture wires every service over one memStore with a frozen clock.
type fixture struct {
	store       *memStore
	clock       Clock
	lim         *fakeLimiter
	auth        *AuthServiceImpl
	pockets     *PocketServiceImpl
	restaurants *RestaurantServiceImpl
	visits      *VisitServiceImpl
}

var fixedNow = time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	m := newMemStore()
	clock := Clock{Now: func() time.Time { return fixedNow }, Loc: time.UTC}
	lim := &fakeLimiter{allowOK: true}
	pr := fakePockets{m}
	rr := fakeRestaurants{m}
	vr := fakeVisits{m}
	return &fixture{
		store:       m,
		clock:       clock,
		lim:         lim,
		auth:        NewAuthService(fakeAccounts{m}, fakeTokens{m}, pr, lim, 24*time.Hour, clock),
		pockets:     NewPocketService(pr),
		restaurants: NewRestaurantService(pr, rr, vr, clock),
		visits:      NewVisitService(pr, rr, vr, clock),
	}
}

// owner seeds an account with its default pocket without hashing a password.
func (f *fixture) owner() (uuid.UUID, uuid.UUID) {
	a := &model.Account{ID: uuid.Must(uuid.NewV4()), Username: uuid.Must(uuid.NewV4()).String(), Email: uuid.Must(uuid.NewV4()).String()}
	p := &model.Pocket{ID: uuid.Must(uuid.NewV4()), OwnerID: a.ID, Name: model.DefaultPocketName, Status: model.PocketActive}
	_ = fakeAccounts{f.store}.Create(context.Background(), a, p)
	return a.ID, p.ID
}

func ptr[T any](v T) *T { return &v }
