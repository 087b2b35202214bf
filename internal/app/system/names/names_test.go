package names_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/unionhub/internal/app/system/names"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu     sync.Mutex
	names  map[primitive.ObjectID]string
	calls  int
	maxLen int
}

func (f *fakeSource) NamesByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(ids) > f.maxLen {
		f.maxLen = len(ids)
	}
	out := map[primitive.ObjectID]string{}
	for _, id := range ids {
		if n, ok := f.names[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func newSource(n int) (*fakeSource, []primitive.ObjectID) {
	src := &fakeSource{names: map[primitive.ObjectID]string{}}
	ids := make([]primitive.ObjectID, n)
	for i := range ids {
		ids[i] = primitive.NewObjectID()
		src.names[ids[i]] = "Member " + ids[i].Hex()[18:]
	}
	return src, ids
}

func TestResolver_NoCache_Chunks(t *testing.T) {
	src, ids := newSource(120)
	r := names.New(src, nil, 0, zap.NewNop())

	got, err := r.Names(context.Background(), append(ids, ids[0], primitive.NewObjectID()))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 120 {
		t.Errorf("resolved %d names, want 120", len(got))
	}
	if src.calls != 3 || src.maxLen != names.ChunkSize {
		t.Errorf("calls = %d, largest batch = %d", src.calls, src.maxLen)
	}
}

func TestResolver_Empty(t *testing.T) {
	src, _ := newSource(0)
	r := names.New(src, nil, 0, nil)
	got, err := r.Names(context.Background(), nil)
	if err != nil || len(got) != 0 || src.calls != 0 {
		t.Errorf("got %v, %v after %d calls", got, err, src.calls)
	}
}

// redisClient connects to UNIONHUB_TEST_REDIS_ADDR (default localhost:6379)
// and skips the test when Redis is unreachable.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("UNIONHUB_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestResolver_CachesInRedis(t *testing.T) {
	rdb := redisClient(t)
	src, ids := newSource(3)
	r := names.New(src, rdb, time.Minute, zap.NewNop())
	ctx := context.Background()
	t.Cleanup(func() {
		for _, id := range ids {
			r.Invalidate(ctx, id)
		}
	})

	if _, err := r.Names(ctx, ids); err != nil {
		t.Fatal(err)
	}
	got, err := r.Names(ctx, ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || src.calls != 1 {
		t.Errorf("second lookup hit the source: calls = %d", src.calls)
	}

	r.Invalidate(ctx, ids[0])
	if _, err := r.Names(ctx, ids); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 || src.maxLen != 3 {
		t.Errorf("after invalidate: calls = %d", src.calls)
	}
}
