//go:build integration

package xkv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// 运行方式: go test -tags=integration ./pkg/storage/xkv/...
//
// 环境变量:
//   - XTTL_MONGO_URI: 已有 MongoDB 的连接串；为空时通过 testcontainers 启动 mongo:7.0

func setupMongo(t *testing.T) *mongo.Client {
	t.Helper()

	uri := os.Getenv("XTTL_MONGO_URI")
	if uri == "" {
		uri = startMongoContainer(t)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Fatalf("mongo ping failed: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	return client
}

func startMongoContainer(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not found in PATH, skipping integration test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("mongo container not available: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestMongo_Contract_Integration(t *testing.T) {
	client := setupMongo(t)
	db := client.Database("xttl_test")

	n := 0
	runStoreContract(t, func(t *testing.T) Store {
		n++
		coll := db.Collection(fmt.Sprintf("entries_%d_%d", time.Now().UnixNano(), n))
		t.Cleanup(func() { _ = coll.Drop(context.Background()) })
		s, err := NewMongo(coll)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMongo_SkipsNonStringIDs_Integration(t *testing.T) {
	ctx := context.Background()
	client := setupMongo(t)
	coll := client.Database("xttl_test").Collection("mixed_ids")
	t.Cleanup(func() { _ = coll.Drop(context.Background()) })

	_, err := coll.InsertOne(ctx, bson.D{{Key: "_id", Value: 42}, {Key: "value", Value: []byte("x")}})
	require.NoError(t, err)

	s, err := NewMongo(coll)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "LocalCache-a", []byte("1")))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"LocalCache-a"}, keys)
}
