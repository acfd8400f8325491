package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Run("scales to unit norm", func(t *testing.T) {
		v := Normalize([]float32{3, 4, 0})
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("norm^2 = %f, want 1", sum)
		}
		if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
			t.Errorf("v = %v", v)
		}
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		v := Normalize([]float32{0, 0, 0})
		for _, x := range v {
			if x != 0 {
				t.Errorf("v = %v", v)
			}
		}
	})
}

func TestEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}

		// One un-normalized 3-vector per input, distinguishable by position.
		resp := ollamaEmbedResponse{}
		for i := range req.Input {
			v := []float32{0, 0, 0}
			v[i%3] = 2
			resp.Embeddings = append(resp.Embeddings, v)
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOllamaProvider(WithBaseURL(srv.URL), WithModel("test-model"), WithDimensions(3))

	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}

	// Output must be normalized and in input order.
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("vecs = %v", vecs)
	}
}

func TestEmbedBatchErrors(t *testing.T) {
	t.Run("batch too large", func(t *testing.T) {
		p := NewOllamaProvider()
		texts := make([]string, MaxBatchSize+1)
		if _, err := p.EmbedBatch(context.Background(), texts); err == nil {
			t.Error("expected error for oversized batch")
		}
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		p := NewOllamaProvider(WithBaseURL("http://localhost:0"))
		vecs, err := p.EmbedBatch(context.Background(), nil)
		if err != nil || vecs != nil {
			t.Errorf("vecs = %v, err = %v", vecs, err)
		}
	})

	t.Run("count mismatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1, 0, 0}}})
		}))
		defer srv.Close()

		p := NewOllamaProvider(WithBaseURL(srv.URL), WithDimensions(3))
		if _, err := p.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
			t.Error("expected error for count mismatch")
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{1, 0}}})
		}))
		defer srv.Close()

		p := NewOllamaProvider(WithBaseURL(srv.URL), WithDimensions(3))
		if _, err := p.EmbedBatch(context.Background(), []string{"a"}); err == nil {
			t.Error("expected error for dimension mismatch")
		}
	})
}
