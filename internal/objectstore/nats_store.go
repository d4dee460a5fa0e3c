// Package objectstore provides a NATS-based implementation of the
// core.ObjectStore interface. The conversion engine works on files, so the
// store moves objects between buckets and the local filesystem.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NatsObjectStore implements the core.ObjectStore interface using NATS JetStream.
type NatsObjectStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
}

// New creates and initializes a new NatsObjectStore.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			store, err = jetstreamContext.ObjectStore(bucketName)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
			}
		} else {
			// For any other error, fail.
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
	}, nil
}

// DownloadToFile retrieves an object from the NATS object store and writes it
// to destPath.
func (n *NatsObjectStore) DownloadToFile(_ context.Context, key, destPath string) error {
	err := n.store.GetFile(key, destPath)
	if err != nil {
		return fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// UploadFile saves the file at srcPath to the NATS object store under key.
func (n *NatsObjectStore) UploadFile(_ context.Context, key, srcPath string) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file '%s': %w", srcPath, err)
	}

	_, putErr := n.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, file)

	closeErr := file.Close()

	if putErr != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, putErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close source file '%s': %w", srcPath, closeErr)
	}

	return nil
}
