package embed

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"similarity-lab/config"
	"similarity-lab/ranker"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestHashEncoder(t *testing.T) {
	enc := NewHashEncoder(256)
	ctx := context.Background()

	a, err := enc.Encode(ctx, "白菜と豚肉の鍋")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(a) != 256 {
		t.Fatalf("Expected 256 dimensions, got %d", len(a))
	}
	if math.Abs(magnitude(a)-1) > 1e-5 {
		t.Errorf("Expected unit length, got %f", magnitude(a))
	}

	again, _ := enc.Encode(ctx, "白菜と豚肉の鍋")
	for i := range a {
		if a[i] != again[i] {
			t.Fatal("HashEncoder must be deterministic")
		}
	}

	near, _ := enc.Encode(ctx, "白菜と豚肉のミルフィーユ鍋")
	far, _ := enc.Encode(ctx, "cheese omelette with toast")
	sNear, _ := ranker.Score(ranker.Dot, a, near)
	sFar, _ := ranker.Score(ranker.Dot, a, far)
	if sNear <= sFar {
		t.Errorf("Texts sharing characters should be closer: near %f, far %f", sNear, sFar)
	}

	empty, err := enc.Encode(ctx, "")
	if err != nil || magnitude(empty) != 0 {
		t.Errorf("Empty text should encode to the zero vector, got %v, %v", empty, err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := enc.Encode(canceled, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEncodeAll(t *testing.T) {
	enc := NewHashEncoder(16)
	vectors, err := EncodeAll(context.Background(), enc, []string{"a", "b", "c"})
	if err != nil || len(vectors) != 3 {
		t.Fatalf("Expected 3 vectors, got %d, %v", len(vectors), err)
	}

	failing := &countingEncoder{dims: 4, failOn: "bad"}
	_, err = EncodeAll(context.Background(), failing, []string{"ok", "bad", "never"})
	if !errors.Is(err, errEncode) {
		t.Errorf("Expected the encoder's error to be wrapped, got %v", err)
	}
	if failing.calls != 2 {
		t.Errorf("Expected encoding to stop at the failure, got %d calls", failing.calls)
	}
}

var errEncode = errors.New("encode failed")

type countingEncoder struct {
	dims   int
	calls  int
	failOn string
}

func (c *countingEncoder) Dimensions() int { return c.dims }

func (c *countingEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	c.calls++
	if text == c.failOn {
		return nil, errEncode
	}
	v := make([]float32, c.dims)
	v[len(text)%c.dims] = 1
	return v, nil
}

func TestCachedEncoder(t *testing.T) {
	inner := &countingEncoder{dims: 4}
	enc, err := NewCachedEncoder(inner, 2)
	if err != nil {
		t.Fatalf("NewCachedEncoder failed: %v", err)
	}
	ctx := context.Background()

	first, _ := enc.Encode(ctx, "abc")
	first[0] = 42
	second, _ := enc.Encode(ctx, "abc")
	if inner.calls != 1 {
		t.Errorf("Expected 1 inner call, got %d", inner.calls)
	}
	if second[0] == 42 {
		t.Error("Cached vectors must not be shared with callers")
	}

	_, _ = enc.Encode(ctx, "d")
	_, _ = enc.Encode(ctx, "ef")
	if enc.Len() != 2 {
		t.Errorf("Expected cache size 2, got %d", enc.Len())
	}
	_, _ = enc.Encode(ctx, "abc")
	if inner.calls != 4 {
		t.Errorf("Evicted text should be re-encoded, got %d calls", inner.calls)
	}

	if _, err := enc.Encode(ctx, ""); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if enc.Dimensions() != 4 {
		t.Errorf("Expected 4 dimensions, got %d", enc.Dimensions())
	}
}

func TestRemoteEncoder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req embeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Input {
		case "empty":
			_, _ = w.Write([]byte(`{"data": []}`))
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("model overloaded"))
		default:
			_, _ = w.Write([]byte(`{"data": [{"embedding": [0.1, 0.2, 0.3]}]}`))
		}
	}))
	defer server.Close()

	enc := NewRemoteEncoder(config.EmbeddingConfig{
		Endpoint: server.URL + "/v1/",
		Model:    "test-model",
		APIKey:   "secret",
		Timeout:  5,
	})
	ctx := context.Background()

	v, err := enc.Encode(ctx, "鍋")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(v) != 3 || v[2] != 0.3 {
		t.Errorf("Unexpected embedding %v", v)
	}

	if _, err := enc.Encode(ctx, "empty"); err == nil {
		t.Error("Expected error for empty data")
	}
	if _, err := enc.Encode(ctx, "boom"); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected status error, got %v", err)
	}

	enc.Dims = 4
	if _, err := enc.Encode(ctx, "鍋"); !errors.Is(err, ranker.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}

	enc.APIKey = ""
	enc.Dims = 0
	if _, err := enc.Encode(ctx, "鍋"); err == nil {
		t.Error("Expected error without credentials")
	}
}

func TestFromConfig(t *testing.T) {
	enc, err := FromConfig(config.EmbeddingConfig{Provider: "hash", Dimensions: 32, CacheSize: 8})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if _, ok := enc.(*CachedEncoder); !ok {
		t.Errorf("Expected a cached encoder, got %T", enc)
	}
	if enc.Dimensions() != 32 {
		t.Errorf("Expected 32 dimensions, got %d", enc.Dimensions())
	}

	if _, err := FromConfig(config.EmbeddingConfig{Provider: "remote"}); err == nil {
		t.Error("Expected error for remote provider without endpoint")
	}
	if _, err := FromConfig(config.EmbeddingConfig{Provider: "onnx"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
