package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/leadforge/prospectdb"
)

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestFind_EmptyCollection(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("LRANGE", "prospectdb:clients:__order", "0", "-1")).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c)
	docs, err := s.Find(context.Background(), "clients", prospectdb.Predicate{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("docs = %v, want empty", docs)
	}
}

func TestKeys(t *testing.T) {
	s := &Store{prefix: "crm"}

	if got := s.docKey("clients", "c1"); got != "crm:clients:c1" {
		t.Errorf("docKey = %q", got)
	}
	if got := s.orderKey("clients"); got != "crm:clients:__order" {
		t.Errorf("orderKey = %q", got)
	}
	if got := s.collectionsKey(); got != "crm:__collections" {
		t.Errorf("collectionsKey = %q", got)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	doc := prospectdb.Document{
		"id":     "d1",
		"nom":    "Dupont",
		"budget": 1500.0,
		"date":   at,
		"tags":   []any{"seo", "ads"},
	}

	raw, err := encodeDoc(doc)
	if err != nil {
		t.Fatalf("encodeDoc: %v", err)
	}

	back, err := decodeDoc(raw)
	if err != nil {
		t.Fatalf("decodeDoc: %v", err)
	}
	if back.ID() != "d1" || back["nom"] != "Dupont" || back["budget"] != 1500.0 {
		t.Errorf("round trip lost fields: %v", back)
	}

	// Dates survive as RFC 3339 strings the evaluator still orders.
	ts, ok := prospectdb.TimeValue(back["date"])
	if !ok || !ts.Equal(at) {
		t.Errorf("date = %v, want %v", back["date"], at)
	}
}

func TestCodec_RejectsGarbage(t *testing.T) {
	if _, err := decodeDoc("{not json"); err == nil {
		t.Fatal("expected error")
	}
}
