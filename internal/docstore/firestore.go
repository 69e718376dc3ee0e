package docstore

import (
	"context"
	"errors"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/sells-group/violation-portal/internal/model"
)

// FirestoreStore reads collections from Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore client for projectID. credentialsFile is
// optional; without it Application Default Credentials are used. When
// emulatorHost is set the client talks to the local emulator instead.
func NewFirestore(ctx context.Context, projectID, credentialsFile, emulatorHost string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, eris.New("firestore: project id is required")
	}
	if emulatorHost != "" {
		// The SDK only reads the emulator address from the environment.
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", emulatorHost); err != nil {
			return nil, eris.Wrap(err, "firestore: set emulator host")
		}
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "firestore: create client")
	}
	zap.L().Debug("firestore: client created",
		zap.String("project_id", projectID),
		zap.Bool("emulator", emulatorHost != ""),
	)
	return &FirestoreStore{client: client}, nil
}

// List implements Store.
func (s *FirestoreStore) List(ctx context.Context, collection string) ([]model.Document, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	var docs []model.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "firestore: list %s", collection)
		}
		docs = append(docs, model.Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

// Close implements Store.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
