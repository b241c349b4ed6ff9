package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scangestor/internal/chunker"
	"scangestor/internal/vectorstore"
	"scangestor/internal/vectorstore/qdrant"
)

// qdrantServer keeps points in memory and answers 404 for everything under
// the collection until it has been created.
type qdrantServer struct {
	mu      sync.Mutex
	created bool
	points  map[string]map[string]any
}

func (q *qdrantServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	base := "/collections/docs"
	if r.Method == http.MethodPut && r.URL.Path == base {
		q.created = true
		w.Write([]byte(`{"result":true}`))
		return
	}
	if !q.created {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":{"error":"Not found: Collection docs doesn't exist!"}}`))
		return
	}

	switch r.URL.Path {
	case base:
		w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":2,"distance":"Cosine"}}}}}`))
	case base + "/points":
		for _, p := range body["points"].([]any) {
			pt := p.(map[string]any)
			q.points[pt["id"].(string)] = pt["payload"].(map[string]any)
		}
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	case base + "/points/scroll":
		source := ""
		if f, ok := body["filter"].(map[string]any); ok {
			cond := f["must"].([]any)[0].(map[string]any)
			source = cond["match"].(map[string]any)["value"].(string)
		}
		var found []map[string]any
		for id, payload := range q.points {
			if source == "" || payload["source_file"] == source {
				found = append(found, map[string]any{"id": id, "payload": payload})
			}
		}
		out, _ := json.Marshal(map[string]any{"result": map[string]any{"points": found, "next_page_offset": nil}})
		w.Write(out)
	case base + "/points/delete":
		for _, id := range body["points"].([]any) {
			delete(q.points, id.(string))
		}
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestIngest_FreshQdrantCollection(t *testing.T) {
	fake := &qdrantServer{points: map[string]map[string]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	index := vectorstore.NewIndex(lengthEmbedder{}, qdrant.NewStorage(qdrant.Config{URL: srv.URL, Collection: "docs"}), 0)
	mgr := NewManager(index, chunker.NewParagraphChunker(0, 0), Options{})
	f := &fixture{root: t.TempDir(), index: index, mgr: mgr}
	api := f.write(t, "TECNICA/api.md", "Endpoints de tickets.")
	f.write(t, "GESTION/plan__ACT.md", "Plan v2.")
	ctx := context.Background()

	sum, err := mgr.Ingest(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 2}, sum)
	assert.True(t, fake.created)
	assert.Len(t, fake.points, 2)
	assert.Len(t, f.chunksFor(t, api), 1)

	sum, err = mgr.Ingest(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 2}, sum)
}
