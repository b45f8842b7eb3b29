// Package firestore keeps the board as one Firestore document and streams
// its snapshots for real-time sync.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Store struct {
	client *firestore.Client
	doc    *firestore.DocumentRef
}

func New(ctx context.Context, projectID, collection, name string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient -> %w", err)
	}

	return &Store{
		client: client,
		doc:    client.Collection(collection).Doc(name),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Load returns nil without error when the document does not exist.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	snap, err := s.doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("s.doc.Get -> %w", err)
	}

	return encode(snap)
}

// Save overwrites the document. The grid is a flat map, so the document has
// no nested arrays.
func (s *Store) Save(ctx context.Context, doc []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		return fmt.Errorf("json.Unmarshal -> %w", err)
	}

	if _, err := s.doc.Set(ctx, fields); err != nil {
		return fmt.Errorf("s.doc.Set -> %w", err)
	}

	return nil
}

// Subscribe streams document snapshots to onChange until unsubscribe is
// called.
func (s *Store) Subscribe(ctx context.Context, onChange func([]byte)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.doc.Snapshots(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
					return
				}
				zap.L().Error("firestore snapshot stream failed", zap.Error(err))
				return
			}
			if !snap.Exists() {
				continue
			}

			raw, err := encode(snap)
			if err != nil {
				zap.L().Warn("firestore snapshot encode failed", zap.Error(err))
				continue
			}
			onChange(raw)
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}, nil
}

func encode(snap *firestore.DocumentSnapshot) ([]byte, error) {
	raw, err := json.Marshal(snap.Data())
	if err != nil {
		return nil, fmt.Errorf("json.Marshal -> %w", err)
	}
	return raw, nil
}
