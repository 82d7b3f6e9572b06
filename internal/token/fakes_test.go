package token

import (
	"context"
	"time"

	"tokend/internal/ident"
	"tokend/internal/ports"
	"tokend/internal/types"
)

// opLog records collaborator calls in order, so tests can assert
// ordering rules like invalidate-before-mutate.
type opLog struct {
	ops []string
}

func (l *opLog) add(op string) { l.ops = append(l.ops, op) }

func (l *opLog) indexOf(op string) int {
	for i, o := range l.ops {
		if o == op {
			return i
		}
	}
	return -1
}

// memStore is an in-memory ports.TokenStore. Mutations stage until
// Commit, mirroring the port contract.
type memStore struct {
	recs    map[ident.ID]types.TokenRecord
	pending []func()
	log     *opLog

	gets    int
	commits int

	getErr    error
	addErr    error
	updateErr error
	deleteErr error
	commitErr error
}

func newMemStore(log *opLog) *memStore {
	return &memStore{recs: make(map[ident.ID]types.TokenRecord), log: log}
}

func (m *memStore) Get(ctx context.Context, q ports.Query) ([]types.TokenRecord, error) {
	m.gets++
	m.log.add("store.get")
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.recs[q.ID]
	if !ok {
		return nil, nil
	}
	return []types.TokenRecord{rec}, nil
}

func (m *memStore) Add(ctx context.Context, rec types.TokenRecord) error {
	m.log.add("store.add")
	if m.addErr != nil {
		return m.addErr
	}
	m.pending = append(m.pending, func() { m.recs[rec.ID] = rec })
	return nil
}

func (m *memStore) Update(ctx context.Context, rec types.TokenRecord) error {
	m.log.add("store.update")
	if m.updateErr != nil {
		return m.updateErr
	}
	m.pending = append(m.pending, func() { m.recs[rec.ID] = rec })
	return nil
}

func (m *memStore) Delete(ctx context.Context, rec types.TokenRecord) error {
	m.log.add("store.delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.pending = append(m.pending, func() { delete(m.recs, rec.ID) })
	return nil
}

func (m *memStore) Commit(ctx context.Context) error {
	m.log.add("store.commit")
	if m.commitErr != nil {
		return m.commitErr
	}
	for _, apply := range m.pending {
		apply()
	}
	m.pending = nil
	m.commits++
	return nil
}

// memCache is an in-memory ports.EntityCache with failure injection.
type memCache struct {
	data map[string]types.TokenRecord
	log  *opLog

	sets          int
	invalidations int

	getErr error
	setErr error
	invErr error
}

func newMemCache(log *opLog) *memCache {
	return &memCache{data: make(map[string]types.TokenRecord), log: log}
}

func (c *memCache) key(namespace, key string) string { return namespace + "/" + key }

func (c *memCache) Get(ctx context.Context, namespace, key string) (*types.TokenRecord, error) {
	c.log.add("cache.get")
	if c.getErr != nil {
		return nil, c.getErr
	}
	rec, ok := c.data[c.key(namespace, key)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (c *memCache) Set(ctx context.Context, namespace, key string, rec types.TokenRecord) error {
	c.log.add("cache.set")
	if c.setErr != nil {
		return c.setErr
	}
	c.sets++
	c.data[c.key(namespace, key)] = rec
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, namespace, key string) error {
	c.log.add("cache.invalidate")
	if c.invErr != nil {
		return c.invErr
	}
	c.invalidations++
	delete(c.data, c.key(namespace, key))
	return nil
}

// fixedClock reports a constant instant.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
