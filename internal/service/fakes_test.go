package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/iyhunko/academy-backend/internal/model"
	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/storage"
)

// table keeps JSON encoded documents in insertion order.
type table struct {
	order []string
	docs  map[string][]byte
}

func newTable() *table {
	return &table{docs: map[string][]byte{}}
}

func (t *table) clone() *table {
	return &table{order: slices.Clone(t.order), docs: maps.Clone(t.docs)}
}

func (t *table) put(id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, ok := t.docs[id]; !ok {
		t.order = append(t.order, id)
	}
	t.docs[id] = raw
	return nil
}

func (t *table) remove(id string) {
	delete(t.docs, id)
	t.order = slices.DeleteFunc(t.order, func(s string) bool { return s == id })
}

type memData struct {
	products, courses, roboGenius, reviews, users *table
	events                                        []*model.Event
}

func (d *memData) clone() *memData {
	events := make([]*model.Event, len(d.events))
	for i, e := range d.events {
		cp := *e
		events[i] = &cp
	}
	return &memData{
		products:   d.products.clone(),
		courses:    d.courses.clone(),
		roboGenius: d.roboGenius.clone(),
		reviews:    d.reviews.clone(),
		users:      d.users.clone(),
		events:     events,
	}
}

// memStore is an in-memory repository.Store. Transactions work on a copy of the data
// that replaces the shared state only when fn succeeds.
type memStore struct {
	txMu *sync.Mutex
	mu   *sync.Mutex
	data *memData
	inTx bool

	// eventErr makes every outbox write fail.
	eventErr error
	// locks lists the products read with FindByIDForUpdate, shared with transactions.
	locks *[]string
}

func (s *memStore) recordLock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.locks = append(*s.locks, id)
}

func (s *memStore) lockedProducts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(*s.locks)
}

func newMemStore() *memStore {
	return &memStore{
		txMu:  &sync.Mutex{},
		mu:    &sync.Mutex{},
		locks: &[]string{},
		data: &memData{
			products:   newTable(),
			courses:    newTable(),
			roboGenius: newTable(),
			reviews:    newTable(),
			users:      newTable(),
		},
	}
}

func (s *memStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) Products() repository.ProductRepository {
	return &memProducts{memRepo: &memRepo[*model.Product]{
		s: s, tbl: func(d *memData) *table { return d.products }, newDoc: func() *model.Product { return &model.Product{} },
		managed: repository.ProductManagedKeys,
	}}
}

func (s *memStore) Courses() repository.CourseRepository {
	return &memCourses{memRepo: &memRepo[*model.Course]{
		s: s, tbl: func(d *memData) *table { return d.courses }, newDoc: func() *model.Course { return &model.Course{} },
		managed: repository.CourseManagedKeys,
	}}
}

func (s *memStore) RoboGenius() repository.Repository[*model.RoboGenius] {
	return &memRepo[*model.RoboGenius]{s: s, tbl: func(d *memData) *table { return d.roboGenius }, newDoc: func() *model.RoboGenius { return &model.RoboGenius{} }}
}

func (s *memStore) Reviews() repository.ReviewRepository {
	return &memReviews{memRepo: &memRepo[*model.Review]{s: s, tbl: func(d *memData) *table { return d.reviews }, newDoc: func() *model.Review { return &model.Review{} }}}
}

func (s *memStore) Users() repository.UserRepository {
	return &memUsers{memRepo: &memRepo[*model.User]{s: s, tbl: func(d *memData) *table { return d.users }, newDoc: func() *model.User { return &model.User{} }}}
}

func (s *memStore) Events() repository.EventRepository {
	return &memEvents{s: s}
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	tx := &memStore{txMu: s.txMu, mu: s.mu, data: s.data.clone(), inTx: true, eventErr: s.eventErr, locks: s.locks}
	s.mu.Unlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = tx.data
	s.mu.Unlock()
	return nil
}

// events returns a copy of the committed outbox.
func (s *memStore) events() []*model.Event {
	defer s.lock()()
	return slices.Clone(s.data.events)
}

func (s *memStore) eventTypes() []string {
	var types []string
	for _, e := range s.events() {
		types = append(types, e.EventType)
	}
	return types
}

type memRepo[T repository.Resource] struct {
	s       *memStore
	tbl     func(*memData) *table
	newDoc  func() T
	managed []string
}

func (r *memRepo[T]) decode(raw []byte) (T, error) {
	doc := r.newDoc()
	err := json.Unmarshal(raw, doc)
	return doc, err
}

func (r *memRepo[T]) Create(_ context.Context, resource T) (T, error) {
	defer r.s.lock()()
	resource.InitMeta()
	t := r.tbl(r.s.data)
	if _, ok := t.docs[resource.GetID()]; ok {
		var zero T
		return zero, &repository.UniqueConstraintError{Detail: resource.GetID()}
	}
	return resource, t.put(resource.GetID(), resource)
}

func (r *memRepo[T]) List(_ context.Context, query repository.Query) ([]T, error) {
	defer r.s.lock()()
	t := r.tbl(r.s.data)
	result := make([]T, 0)
	for _, id := range t.order {
		raw := t.docs[id]
		if !matches(raw, query) {
			continue
		}
		doc, err := r.decode(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
		if query.Limit > 0 && len(result) == query.Limit {
			break
		}
	}
	return result, nil
}

func matches(raw []byte, query repository.Query) bool {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	for field, want := range query.Values {
		switch got := fields[string(field)].(type) {
		case []any:
			if !slices.Contains(got, any(want)) {
				return false
			}
		default:
			if got != want {
				return false
			}
		}
	}
	return true
}

func (r *memRepo[T]) FindByID(_ context.Context, id string) (T, error) {
	defer r.s.lock()()
	raw, ok := r.tbl(r.s.data).docs[id]
	if !ok {
		var zero T
		return zero, repository.ErrNotFound
	}
	return r.decode(raw)
}

// Update keeps the stored values of managed keys, like the real stores do.
func (r *memRepo[T]) Update(_ context.Context, resource T) error {
	defer r.s.lock()()
	t := r.tbl(r.s.data)
	prev, ok := t.docs[resource.GetID()]
	if !ok {
		return repository.ErrNotFound
	}
	resource.Touch()

	raw, err := json.Marshal(resource)
	if err != nil {
		return err
	}
	merged, err := mergeKeys(raw, prev, r.managed)
	if err != nil {
		return err
	}
	return t.put(resource.GetID(), merged)
}

// mergeKeys copies keys from prev into next.
func mergeKeys(next, prev []byte, keys []string) (json.RawMessage, error) {
	if len(keys) == 0 {
		return next, nil
	}
	var nextFields, prevFields map[string]json.RawMessage
	if err := json.Unmarshal(next, &nextFields); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(prev, &prevFields); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if v, ok := prevFields[key]; ok {
			nextFields[key] = v
		}
	}
	return json.Marshal(nextFields)
}

// patch sets fields on the stored document.
func (r *memRepo[T]) patch(id string, fields map[string]any) error {
	defer r.s.lock()()
	t := r.tbl(r.s.data)
	prev, ok := t.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	var doc map[string]any
	if err := json.Unmarshal(prev, &doc); err != nil {
		return err
	}
	maps.Copy(doc, fields)
	return t.put(id, doc)
}

func (r *memRepo[T]) DeleteByID(_ context.Context, id string) error {
	defer r.s.lock()()
	t := r.tbl(r.s.data)
	if _, ok := t.docs[id]; !ok {
		return repository.ErrNotFound
	}
	t.remove(id)
	return nil
}

type memProducts struct {
	*memRepo[*model.Product]
}

func (r *memProducts) FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	r.s.recordLock(id)
	return r.FindByID(ctx, id)
}

func (r *memProducts) SetRating(_ context.Context, id string, summary model.RatingSummary) error {
	return r.patch(id, map[string]any{"averageRating": summary.Average, "numOfReviews": summary.Count})
}

type memCourses struct {
	*memRepo[*model.Course]
}

func (r *memCourses) modify(id string, fn func(c *model.Course) bool) (bool, error) {
	defer r.s.lock()()
	t := r.tbl(r.s.data)
	raw, ok := t.docs[id]
	if !ok {
		return false, nil
	}
	course, err := r.decode(raw)
	if err != nil {
		return false, err
	}
	if !fn(course) {
		return false, nil
	}
	course.Touch()
	return true, t.put(id, course)
}

func (r *memCourses) AddStudent(_ context.Context, courseID, userID string) (bool, error) {
	return r.modify(courseID, func(c *model.Course) bool {
		if c.HasStudent(userID) {
			return false
		}
		c.Students = append(c.Students, userID)
		return true
	})
}

func (r *memCourses) RemoveStudent(_ context.Context, courseID, userID string) (bool, error) {
	return r.modify(courseID, func(c *model.Course) bool {
		if !c.HasStudent(userID) {
			return false
		}
		c.Students = slices.DeleteFunc(c.Students, func(s string) bool { return s == userID })
		return true
	})
}

type memReviews struct {
	*memRepo[*model.Review]
}

func (r *memReviews) Summary(ctx context.Context, productID string) (model.RatingSummary, error) {
	reviews, err := r.List(ctx, *repository.NewQuery().With(repository.ProductField, productID))
	if err != nil {
		return model.RatingSummary{}, err
	}
	if len(reviews) == 0 {
		return model.RatingSummary{}, nil
	}
	total := 0
	for _, rv := range reviews {
		total += rv.Rating
	}
	return model.RatingSummary{Average: float64(total) / float64(len(reviews)), Count: len(reviews)}, nil
}

type memUsers struct {
	*memRepo[*model.User]
}

func (r *memUsers) AddEnrolledCourse(_ context.Context, userID, courseID string) error {
	defer r.s.lock()()
	t := r.tbl(r.s.data)
	user := &model.User{Meta: model.Meta{ID: userID}, EnrolledCourses: []string{}}
	if raw, ok := t.docs[userID]; ok {
		existing, err := r.decode(raw)
		if err != nil {
			return err
		}
		user = existing
	} else {
		user.InitMeta()
	}
	if !slices.Contains(user.EnrolledCourses, courseID) {
		user.EnrolledCourses = append(user.EnrolledCourses, courseID)
	}
	return t.put(userID, user)
}

func (r *memUsers) RemoveEnrolledCourse(_ context.Context, userID, courseID string) error {
	defer r.s.lock()()
	t := r.tbl(r.s.data)
	raw, ok := t.docs[userID]
	if !ok {
		return nil
	}
	user, err := r.decode(raw)
	if err != nil {
		return err
	}
	user.EnrolledCourses = slices.DeleteFunc(user.EnrolledCourses, func(s string) bool { return s == courseID })
	return t.put(userID, user)
}

func (r *memUsers) FindByIDs(_ context.Context, ids []string) ([]*model.User, error) {
	defer r.s.lock()()
	t := r.tbl(r.s.data)
	users := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		raw, ok := t.docs[id]
		if !ok {
			continue
		}
		u, err := r.decode(raw)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// putUser seeds a user document directly.
func (s *memStore) putUser(u *model.User) {
	defer s.lock()()
	u.InitMeta()
	_ = s.data.users.put(u.ID, u)
}

type memEvents struct {
	s *memStore
}

func (r *memEvents) Create(_ context.Context, event *model.Event) (*model.Event, error) {
	if r.s.eventErr != nil {
		return nil, r.s.eventErr
	}
	defer r.s.lock()()
	event.InitMeta()
	r.s.data.events = append(r.s.data.events, event)
	return event, nil
}

func (r *memEvents) ListPending(_ context.Context, limit int) ([]*model.Event, error) {
	defer r.s.lock()()
	var pending []*model.Event
	for _, e := range r.s.data.events {
		if e.Status == model.EventStatusPending {
			pending = append(pending, e)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (r *memEvents) UpdateStatus(_ context.Context, id string, status model.EventStatus) error {
	defer r.s.lock()()
	for _, e := range r.s.data.events {
		if e.ID == id {
			now := time.Now().UTC()
			e.Status = status
			e.ProcessedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeImages records saved and deleted files.
type fakeImages struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	saveErr error
	delErr  error
	seq     int
}

func (f *fakeImages) Save(_ context.Context, up storage.Upload) (*model.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.seq++
	name := fmt.Sprintf("%d-%s", f.seq, up.Filename)
	f.saved = append(f.saved, name)
	return &model.Image{Filename: name, URL: up.BaseURL + "/uploads/" + name}, nil
}

func (f *fakeImages) Delete(_ context.Context, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, filename)
	return f.delErr
}

func upload(name string) *storage.Upload {
	return &storage.Upload{Filename: name, ContentType: "image/png", Size: 3, BaseURL: "http://localhost"}
}

func ptr[T any](v T) *T {
	return &v
}
