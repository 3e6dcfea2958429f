package db

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Istiyak4099/Airdrop/models"
)

var (
	// ErrNotFound is returned by GetDoc when no document exists at the path.
	ErrNotFound = errors.New("document not found")
	// ErrMalformed is returned by GetDoc when a stored document does not
	// decode into the destination type.
	ErrMalformed = errors.New("malformed document")
)

func malformed(ref Ref, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, ref, err)
}

// Order is the sort direction of a collection listing.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Ref is a slash separated document path, e.g. "userAccounts/u1/conversations/p_c".
type Ref string

// Doc joins path segments into a document reference.
func Doc(segments ...string) Ref {
	return Ref(strings.Join(segments, "/"))
}

// ID returns the last path segment.
func (r Ref) ID() string {
	return path.Base(string(r))
}

// Parent returns the collection path that contains the document.
func (r Ref) Parent() string {
	return path.Dir(string(r))
}

// Collection returns the path of a subcollection below the document.
func (r Ref) Collection(name string) string {
	return string(r) + "/" + name
}

func (r Ref) validate() error {
	segments := strings.Split(string(r), "/")
	if len(segments) < 2 || len(segments)%2 != 0 {
		return fmt.Errorf("invalid document path %q", string(r))
	}
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("invalid document path %q", string(r))
		}
	}
	return nil
}

type setOptions struct {
	merge bool
}

// SetOption changes SetDoc behaviour.
type SetOption func(*setOptions)

// Merge makes SetDoc overwrite only the supplied top-level fields.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

func applySetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Document is one result row of a collection listing.
type Document interface {
	Ref() Ref
	Decode(dst any) error
}

// Store is the document database used by every service. Paths follow the
// Firestore layout of the dashboard so data stays portable between drivers.
type Store interface {
	GetDoc(ctx context.Context, ref Ref, dst any) error
	SetDoc(ctx context.Context, ref Ref, data map[string]any, opts ...SetOption) error
	AddDoc(ctx context.Context, collection string, data map[string]any) (Ref, error)
	ListDocs(ctx context.Context, collection, orderField string, order Order, limit int) ([]Document, error)
	QueryMessages(ctx context.Context, conversation Ref, limit int, order Order) ([]models.Message, error)
	Close(ctx context.Context) error
}

// queryMessages is the driver independent QueryMessages implementation.
func queryMessages(ctx context.Context, s Store, conversation Ref, limit int, order Order) ([]models.Message, error) {
	docs, err := s.ListDocs(ctx, conversation.Collection("messages"), "timestamp", order, limit)
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(docs))
	for _, d := range docs {
		var m models.Message
		if err := d.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", d.Ref(), err)
		}
		if m.ID == "" {
			m.ID = d.Ref().ID()
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// sortableTime renders timestamps with a fixed width so JSON drivers can order
// them as plain strings.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

// normalize converts top-level time values into sortable UTC strings.
func normalize(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch t := v.(type) {
		case time.Time:
			out[k] = t.UTC().Format(sortableTime)
		case *time.Time:
			if t != nil {
				out[k] = t.UTC().Format(sortableTime)
			}
		default:
			out[k] = v
		}
	}
	return out
}

// newDocument allocates a random id below collection and copies it into the
// "id" field unless the caller supplied one.
func newDocument(collection string, data map[string]any) (Ref, map[string]any) {
	id := uuid.NewString()
	withID := make(map[string]any, len(data)+1)
	for k, v := range data {
		withID[k] = v
	}
	if _, ok := withID["id"]; !ok {
		withID["id"] = id
	}
	return Ref(collection + "/" + id), withID
}
