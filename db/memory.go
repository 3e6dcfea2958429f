package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Istiyak4099/Airdrop/models"
)

// MemoryStore keeps documents in process. Used for local runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[Ref]*memoryDoc
	seq  int64
}

type memoryDoc struct {
	data map[string]any
	seq  int64
}

type jsonDocument struct {
	ref Ref
	raw []byte
}

func (d jsonDocument) Ref() Ref { return d.ref }

func (d jsonDocument) Decode(dst any) error {
	return json.Unmarshal(d.raw, dst)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[Ref]*memoryDoc)}
}

func (s *MemoryStore) GetDoc(ctx context.Context, ref Ref, dst any) error {
	s.mu.RLock()
	doc, ok := s.docs[ref]
	var raw []byte
	var err error
	if ok {
		raw, err = json.Marshal(doc.data)
	}
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", ref, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return malformed(ref, err)
	}
	return nil
}

func (s *MemoryStore) SetDoc(ctx context.Context, ref Ref, data map[string]any, opts ...SetOption) error {
	if err := ref.validate(); err != nil {
		return err
	}
	o := applySetOptions(opts)
	fields, err := roundTrip(normalize(data))
	if err != nil {
		return fmt.Errorf("encode %s: %w", ref, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.docs[ref]
	if ok && o.merge {
		merged := make(map[string]any, len(existing.data)+len(fields))
		for k, v := range existing.data {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
		existing.data = merged
		return nil
	}
	if ok {
		existing.data = fields
		return nil
	}

	s.seq++
	s.docs[ref] = &memoryDoc{data: fields, seq: s.seq}
	return nil
}

func (s *MemoryStore) AddDoc(ctx context.Context, collection string, data map[string]any) (Ref, error) {
	ref, withID := newDocument(collection, data)
	if err := s.SetDoc(ctx, ref, withID); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *MemoryStore) ListDocs(ctx context.Context, collection, orderField string, order Order, limit int) ([]Document, error) {
	type entry struct {
		ref Ref
		doc *memoryDoc
	}

	s.mu.RLock()
	var entries []entry
	for ref, doc := range s.docs {
		if ref.Parent() == collection {
			entries = append(entries, entry{ref: ref, doc: doc})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		c := compareValues(entries[i].doc.data[orderField], entries[j].doc.data[orderField])
		if c == 0 {
			c = compareInt(entries[i].doc.seq, entries[j].doc.seq)
		}
		if order == Descending {
			return c > 0
		}
		return c < 0
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	docs := make([]Document, 0, len(entries))
	var err error
	for _, e := range entries {
		var raw []byte
		raw, err = json.Marshal(e.doc.data)
		if err != nil {
			break
		}
		docs = append(docs, jsonDocument{ref: e.ref, raw: raw})
	}
	s.mu.RUnlock()

	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	return docs, nil
}

func (s *MemoryStore) QueryMessages(ctx context.Context, conversation Ref, limit int, order Order) ([]models.Message, error) {
	return queryMessages(ctx, s, conversation, limit, order)
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// roundTrip stores values the way a JSON document database would.
func roundTrip(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(data))
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// compareValues orders missing values first, then numbers and strings.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
