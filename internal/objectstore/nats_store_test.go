// Package objectstore_test tests the NATS object store implementation.
package objectstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/vc-service/internal/objectstore"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func TestNatsObjectStore_FileRoundTrip(t *testing.T) {
	t.Parallel()

	// 1. Setup
	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	bucketName := "test-audio-bucket"
	store, err := objectstore.New(jetstreamContext, bucketName)
	require.NoError(t, err)

	// 2. Test data on disk
	ctx := context.Background()
	key := "chunk-0001.wav"
	audioData := []byte("RIFF fake wav payload")

	tempDir := t.TempDir()
	srcPath := filepath.Join(tempDir, "source.wav")
	require.NoError(t, os.WriteFile(srcPath, audioData, 0o600))

	// 3. Upload from file
	err = store.UploadFile(ctx, key, srcPath)
	require.NoError(t, err)

	// 4. Download to a new file
	destPath := filepath.Join(tempDir, "downloaded.wav")
	err = store.DownloadToFile(ctx, key, destPath)
	require.NoError(t, err)

	// 5. Assert
	downloaded, err := os.ReadFile(destPath)
	require.NoError(t, err)
	require.Equal(t, audioData, downloaded)
}

func TestNatsObjectStore_DownloadMissingKey(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, "test-missing-bucket")
	require.NoError(t, err)

	destPath := filepath.Join(t.TempDir(), "never-written.wav")

	err = store.DownloadToFile(context.Background(), "absent.wav", destPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "absent.wav")
}

func TestNatsObjectStore_UploadMissingFile(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, "test-upload-bucket")
	require.NoError(t, err)

	missingPath := filepath.Join(t.TempDir(), "absent.wav")

	err = store.UploadFile(context.Background(), "chunk.wav", missingPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open source file")
}

func TestNatsObjectStore_BindExisting(t *testing.T) {
	t.Parallel()

	natsServer, natsConnection := StartTestServer(t)
	defer natsServer.Shutdown()
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	bucketName := "test-rebind-bucket"

	_, err = objectstore.New(jetstreamContext, bucketName)
	require.NoError(t, err)

	// A second initialization must bind to the existing bucket, not fail.
	_, err = objectstore.New(jetstreamContext, bucketName)
	require.NoError(t, err)
}
