package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUpstashArchiveStoreRedisKey(t *testing.T) {
	t.Parallel()

	store := &UpstashArchiveStore{keyPrefix: defaultArchiveKeyPrefix}
	got, err := store.redisKey("abc")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "recsys:conversation:abc" {
		t.Fatalf("redisKey() = %q, want %q", got, "recsys:conversation:abc")
	}
}

func TestUpstashArchiveStoreRedisKeyEmptyID(t *testing.T) {
	t.Parallel()

	store := &UpstashArchiveStore{keyPrefix: defaultArchiveKeyPrefix}
	_, err := store.redisKey("   ")
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("redisKey() error = %v, want ErrInvalidID", err)
	}
}

func TestUpstashArchiveStoreSaveAssignsIDAndSetsKey(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashArchiveStore(
		UpstashConfig{
			URL:   server.URL,
			Token: "token",
		},
		WithHTTPClient(server.Client()),
		WithTTL(0),
	)
	if err != nil {
		t.Fatalf("NewUpstashArchiveStore() error = %v", err)
	}

	rec := &ConversationRecord{
		Query:  "I want a racing game",
		Answer: "Try Mario Kart 8 Deluxe",
		Messages: []Message{
			{Role: RoleUser, Content: "I want a racing game"},
		},
		Next: "finish",
	}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if rec.ID == uuid.Nil {
		t.Fatal("Save() must assign an id")
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("Save() must stamp created_at")
	}

	if len(gotCommand) < 3 {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if gotCommand[0] != "SET" {
		t.Fatalf("command[0] = %v, want SET", gotCommand[0])
	}
	wantKey := defaultArchiveKeyPrefix + rec.ID.String()
	if gotCommand[1] != wantKey {
		t.Fatalf("command[1] = %v, want %s", gotCommand[1], wantKey)
	}
}

func TestUpstashArchiveStoreSaveAppendsTTL(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashArchiveStore(
		UpstashConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
		WithTTL(90*time.Second),
	)
	if err != nil {
		t.Fatalf("NewUpstashArchiveStore() error = %v", err)
	}

	if err := store.Save(context.Background(), &ConversationRecord{Query: "q", Answer: "a"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if len(gotCommand) != 5 {
		t.Fatalf("expected SET key value EX ttl, got %#v", gotCommand)
	}
	if gotCommand[3] != "EX" {
		t.Fatalf("command[3] = %v, want EX", gotCommand[3])
	}
	if ttl, ok := gotCommand[4].(float64); !ok || int64(ttl) != 90 {
		t.Fatalf("command[4] = %v, want 90", gotCommand[4])
	}
}

func TestUpstashArchiveStoreLoadRoundTrip(t *testing.T) {
	t.Parallel()

	seed := &ConversationRecord{
		ID:        uuid.New(),
		Query:     "co-op game for two kids",
		Answer:    "no suitable recommendations are available",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded seed: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		fmt.Fprintf(w, `{"result":%s}`, encoded)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashArchiveStore(
		UpstashConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashArchiveStore() error = %v", err)
	}

	got, err := store.Load(context.Background(), seed.ID.String())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ID != seed.ID {
		t.Fatalf("Load() id = %s, want %s", got.ID, seed.ID)
	}
	if got.Query != seed.Query || got.Answer != seed.Answer {
		t.Fatalf("Load() returned %+v, want %+v", got, seed)
	}
}

func TestUpstashArchiveStoreLoadMissingRecord(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		fmt.Fprint(w, `{"result":null}`)
	}))
	t.Cleanup(server.Close)

	store, err := NewUpstashArchiveStore(
		UpstashConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashArchiveStore() error = %v", err)
	}

	_, err = store.Load(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Load() error = %v, want ErrRecordNotFound", err)
	}
}

func TestUpstashArchiveStoreSaveNilRecord(t *testing.T) {
	t.Parallel()

	store := &UpstashArchiveStore{}
	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilRecord) {
		t.Fatalf("Save(nil) error = %v, want ErrNilRecord", err)
	}
}
