// Package membershiptest provides in-memory stand-ins for the membership
// service's stores so workflow and handler tests run without MongoDB.
package membershiptest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/unionhub/internal/app/store/ledger"
	userstore "github.com/dalemusser/unionhub/internal/app/store/users"
	"github.com/dalemusser/unionhub/internal/app/system/paging"
	"github.com/dalemusser/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is an in-memory users, branches, and registration log store with a
// ledger that commits a mutation and its entry together.
type Store struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	branches map[primitive.ObjectID]models.Branch
	logs     []models.RegistrationLog
	tick     time.Time

	// LastList is the query most recently passed to List.
	LastList userstore.ListQuery

	// FailAppend, when set, makes every log append fail with this error.
	// The paired user write is discarded.
	FailAppend error
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:    map[primitive.ObjectID]models.User{},
		branches: map[primitive.ObjectID]models.Branch{},
		tick:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// next returns strictly increasing timestamps so ordering is deterministic.
func (s *Store) next() time.Time {
	s.tick = s.tick.Add(time.Millisecond)
	return s.tick
}

// AddBranch stores a branch and returns it.
func (s *Store) AddBranch(name string, active bool) models.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := models.Branch{ID: primitive.NewObjectID(), Name: name, IsActive: active}
	s.branches[b.ID] = b
	return b
}

// AddUser stores u as-is (no log entry) and returns it with an ID.
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = u
	return u
}

// User returns the stored user, or false.
func (s *Store) User(id primitive.ObjectID) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// Logs returns every stored entry for the user in append order.
func (s *Store) Logs(id primitive.ObjectID) []models.RegistrationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RegistrationLog
	for _, e := range s.logs {
		if e.UserID == id {
			out = append(out, e)
		}
	}
	return out
}

// --- membership.Users ---

func (s *Store) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

// GetByEmail serves login handler tests.
func (s *Store) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// UpdatePassword serves profile handler tests.
func (s *Store) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	u.PasswordHash = hash
	u.Version++
	s.users[id] = u
	return nil
}

func (s *Store) EmailTaken(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailTaken(email), nil
}

func (s *Store) emailTaken(email string) bool {
	for _, u := range s.users {
		if u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) NationalIDTaken(_ context.Context, nid string, exclude primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID != exclude && u.NationalID == nid {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(s.users, id)
	return nil
}

// --- membership.Branches ---

// Branches adapts the store to the branch lookup interface.
func (s *Store) Branches() BranchLookup { return BranchLookup{s} }

// BranchLookup serves branch reads from a Store.
type BranchLookup struct{ s *Store }

func (b BranchLookup) GetByID(_ context.Context, id primitive.ObjectID) (*models.Branch, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	br, ok := b.s.branches[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &br, nil
}

// --- membership.Ledger ---

func (s *Store) append(entry models.RegistrationLog) (models.RegistrationLog, error) {
	if s.FailAppend != nil {
		return models.RegistrationLog{}, s.FailAppend
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.Timestamp = s.next()
	s.logs = append(s.logs, entry)
	return entry, nil
}

func (s *Store) CreateUser(_ context.Context, u models.User, entry models.RegistrationLog) (models.User, models.RegistrationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if s.emailTaken(u.Email) {
		return models.User{}, models.RegistrationLog{}, userstore.ErrDuplicateEmail
	}
	entry.UserID = u.ID
	stored, err := s.append(entry)
	if err != nil {
		return models.User{}, models.RegistrationLog{}, err
	}
	s.users[u.ID] = u
	return u, stored, nil
}

func (s *Store) Apply(_ context.Context, m ledger.Mutation, entry models.RegistrationLog) (*models.User, models.RegistrationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[m.UserID]
	if !ok || cur.Version != m.ExpectedVersion {
		return nil, models.RegistrationLog{}, ledger.ErrVersionConflict
	}

	next, err := merge(cur, m.Set)
	if err != nil {
		return nil, models.RegistrationLog{}, err
	}
	if nid := next.NationalID; nid != "" && nid != cur.NationalID {
		for _, u := range s.users {
			if u.ID != cur.ID && u.NationalID == nid {
				return nil, models.RegistrationLog{}, userstore.ErrDuplicateNationalID
			}
		}
	}
	next.Version = cur.Version + 1
	if !m.At.IsZero() {
		next.UpdatedAt = m.At
	}

	entry.UserID = m.UserID
	stored, err := s.append(entry)
	if err != nil {
		return nil, models.RegistrationLog{}, err
	}
	s.users[m.UserID] = next
	return &next, stored, nil
}

// merge applies a $set document to u through its BSON form.
func merge(u models.User, set bson.M) (models.User, error) {
	raw, err := bson.Marshal(u)
	if err != nil {
		return u, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return u, err
	}
	for k, v := range set {
		doc[k] = v
	}
	raw, err = bson.Marshal(doc)
	if err != nil {
		return u, err
	}
	var out models.User
	if err := bson.Unmarshal(raw, &out); err != nil {
		return u, err
	}
	return out, nil
}

// --- membership.Logs ---

func (s *Store) ListByUser(_ context.Context, id primitive.ObjectID, after *primitive.ObjectID) ([]models.RegistrationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.RegistrationLog{}
	for _, e := range s.logs {
		if e.UserID == id {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if after == nil {
		return out, nil
	}
	for i, e := range out {
		if e.ID == *after {
			return out[i+1:], nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

// --- membership.Directory ---

// List filters by branch, status and role and returns everything in one
// page ordered by email. Any cursor other than a valid hex ObjectID is
// rejected as invalid.
func (s *Store) List(_ context.Context, q userstore.ListQuery) (userstore.ListPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastList = q
	for _, c := range []string{q.Before, q.After} {
		if _, err := primitive.ObjectIDFromHex(c); c != "" && err != nil {
			return userstore.ListPage{}, paging.ErrInvalidCursor
		}
	}
	page := userstore.ListPage{Users: []models.User{}}
	for _, u := range s.users {
		if q.BranchID != nil && (u.BranchID == nil || *u.BranchID != *q.BranchID) {
			continue
		}
		if q.Status != "" && u.Status != q.Status {
			continue
		}
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		page.Users = append(page.Users, u)
	}
	sort.Slice(page.Users, func(i, j int) bool { return page.Users[i].Email < page.Users[j].Email })
	page.Total = int64(len(page.Users))
	return page, nil
}

func (s *Store) Stats(_ context.Context, branchID *primitive.ObjectID) (userstore.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := userstore.NewStats()
	for _, u := range s.users {
		if branchID != nil && (u.BranchID == nil || *u.BranchID != *branchID) {
			continue
		}
		st.Total++
		st.ByStatus[u.Status]++
		st.ByRole[u.Role]++
		if u.IsActive {
			st.Active++
		} else {
			st.Inactive++
		}
	}
	return st, nil
}

// --- membership.NameLookup ---

func (s *Store) Names(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[primitive.ObjectID]string{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.FullName()
		}
	}
	return out, nil
}

// Notifier records approvals.
type Notifier struct {
	mu    sync.Mutex
	Calls []models.RegistrationLog
}

func (n *Notifier) Approved(_ context.Context, _ models.User, entry models.RegistrationLog) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, entry)
}

// Count returns the number of recorded approvals.
func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Calls)
}

// ErrAppend is a ready-made failure for FailAppend.
var ErrAppend = errors.New("membershiptest: log append failed")
