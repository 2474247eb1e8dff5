package publish

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// DocumentStore writes one document into a collection
type DocumentStore interface {
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error
}

type firestoreStore struct {
	client *firestore.Client
}

func (f firestoreStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	_, err := f.client.Collection(collection).Doc(id).Set(ctx, data)
	return err
}

// FirestoreStore adapts a Firestore client to DocumentStore
func FirestoreStore(client *firestore.Client) DocumentStore {
	return firestoreStore{client: client}
}

// FirestoreSink stores the record as <collection>/<run id>
type FirestoreSink struct {
	store      DocumentStore
	collection string
}

// NewFirestoreSink creates a sink writing to collection
func NewFirestoreSink(store DocumentStore, collection string) *FirestoreSink {
	return &FirestoreSink{store: store, collection: collection}
}

// Name implements Sink
func (s *FirestoreSink) Name() string { return "firestore" }

// Publish implements Sink
func (s *FirestoreSink) Publish(ctx context.Context, a Artifacts) error {
	if err := s.store.Set(ctx, s.collection, a.RunID, recordDocument(a)); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", s.collection, a.RunID, err)
	}
	return nil
}
