package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sequor/internal/domain/document"
	"sequor/internal/domain/journal"
	"sequor/internal/domain/link"
	"sequor/internal/domain/sequence"
	"sequor/internal/domain/stamping"
	"sequor/internal/infrastructure/storage"
	"sequor/pkg/logger"
)

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	tree   *document.MemoryTree
}

func newAPIFixture(t *testing.T, authSecret string) *apiFixture {
	t.Helper()

	kv := storage.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })

	store := sequence.NewStore(kv)
	tree := document.NewMemoryTree()
	links := link.NewRegistry(tree)

	journalSvc, err := journal.NewService(journal.NewMemoryRepository())
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Store:      store,
		Tree:       tree,
		Links:      links,
		Stamper:    stamping.NewService(store, links, tree, document.NoopFontLoader{}, journalSvc),
		Analyzer:   stamping.NewAnalyzer(store, links, tree),
		Journal:    journalSvc,
		Logger:     logger.Default(),
		AuthSecret: authSecret,
	})
	return &apiFixture{t: t, router: router, tree: tree}
}

func (f *apiFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) decode(w *httptest.ResponseRecorder, out any) {
	f.t.Helper()
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), out))
}

func (f *apiFixture) createSequence(body map[string]any) map[string]any {
	f.t.Helper()
	w := f.do(http.MethodPost, "/api/v1/sequences", body)
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Sequence map[string]any `json:"sequence"`
	}
	f.decode(w, &resp)
	return resp.Sequence
}

func (f *apiFixture) createText(text string) string {
	f.t.Helper()
	w := f.do(http.MethodPost, "/api/v1/elements", map[string]any{"kind": "text", "text": text})
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	f.decode(w, &resp)
	return resp.ID
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, "")

	w := f.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSequenceLifecycle(t *testing.T) {
	f := newAPIFixture(t, "")

	seq := f.createSequence(map[string]any{
		"name":   "Invoices",
		"prefix": "INV-",
		"type":   "number",
		"mode":   "design",
	})
	id := seq["id"].(string)
	assert.Equal(t, "INV-0", seq["fullValue"])

	// list doubles as the init payload
	w := f.do(http.MethodGet, "/api/v1/sequences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var init struct {
		Type      string           `json:"type"`
		Sequences []map[string]any `json:"sequences"`
	}
	f.decode(w, &init)
	assert.Equal(t, "init", init.Type)
	require.Len(t, init.Sequences, 1)

	// select, read back
	w = f.do(http.MethodPut, "/api/v1/sequences/selected", map[string]any{"sequenceId": id})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodGet, "/api/v1/sequences/selected", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var selected struct {
		ID string `json:"id"`
	}
	f.decode(w, &selected)
	assert.Equal(t, id, selected.ID)

	// rename via PATCH
	w = f.do(http.MethodPatch, "/api/v1/sequences/"+id, map[string]any{"name": "Invoices 2026"})
	require.Equal(t, http.StatusOK, w.Code)

	// delete
	w = f.do(http.MethodDelete, "/api/v1/sequences/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodGet, "/api/v1/sequences/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSequence_ValidationError(t *testing.T) {
	f := newAPIFixture(t, "")

	w := f.do(http.MethodPost, "/api/v1/sequences", map[string]any{"name": "NoType"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}
	f.decode(w, &resp)
	assert.Equal(t, "error", resp.Type)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func TestStampFlow(t *testing.T) {
	f := newAPIFixture(t, "")

	seq := f.createSequence(map[string]any{"name": "Invoices", "prefix": "INV-", "type": "number", "mode": "compliance"})
	seqID := seq["id"].(string)
	elemID := f.createText("placeholder")

	// selection state before: unlinked
	w := f.do(http.MethodPut, "/api/v1/selection", map[string]any{"elementIds": []string{elemID}})
	require.Equal(t, http.StatusOK, w.Code)
	var state struct {
		State struct {
			Kind string `json:"kind"`
		} `json:"state"`
	}
	f.decode(w, &state)
	assert.Equal(t, "unlinked", state.State.Kind)

	// stamp
	w = f.do(http.MethodPost, "/api/v1/elements/"+elemID+"/stamp", map[string]any{"sequenceId": seqID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stamped struct {
		Type     string `json:"type"`
		Value    string `json:"value"`
		Sequence struct {
			NextValue string `json:"nextValue"`
			Locked    bool   `json:"locked"`
		} `json:"sequence"`
	}
	f.decode(w, &stamped)
	assert.Equal(t, "stamped", stamped.Type)
	assert.Equal(t, "INV-0", stamped.Value)
	assert.Equal(t, "1", stamped.Sequence.NextValue)
	assert.True(t, stamped.Sequence.Locked)

	// selection state after: stamped
	w = f.do(http.MethodGet, "/api/v1/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	f.decode(w, &state)
	assert.Equal(t, "stamped", state.State.Kind)

	// re-stamp of a unique compliance value is refused
	w = f.do(http.MethodPost, "/api/v1/elements/"+elemID+"/stamp", map[string]any{"sequenceId": seqID})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var denial struct {
		Code string `json:"code"`
	}
	f.decode(w, &denial)
	assert.Equal(t, "COMPLIANCE_VIOLATION", denial.Code)

	// so is deleting the sequence while the element links to it
	w = f.do(http.MethodDelete, "/api/v1/sequences/"+seqID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// unlink, then delete succeeds
	w = f.do(http.MethodPost, "/api/v1/elements/"+elemID+"/unlink", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodDelete, "/api/v1/sequences/"+seqID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDuplicateAndRelinkFlow(t *testing.T) {
	f := newAPIFixture(t, "")

	seq := f.createSequence(map[string]any{"name": "Invoices", "type": "number", "mode": "compliance"})
	seqID := seq["id"].(string)
	elemID := f.createText("")

	w := f.do(http.MethodPost, "/api/v1/elements/"+elemID+"/stamp", map[string]any{"sequenceId": seqID})
	require.Equal(t, http.StatusOK, w.Code)

	// paste a copy
	w = f.do(http.MethodPost, "/api/v1/elements/duplicate", map[string]any{"elementId": elemID})
	require.Equal(t, http.StatusCreated, w.Code)
	var clone struct {
		ID string `json:"id"`
	}
	f.decode(w, &clone)

	// the copy reads as needs-stamp with the duplicate flag
	w = f.do(http.MethodPut, "/api/v1/selection", map[string]any{"elementIds": []string{clone.ID}})
	require.Equal(t, http.StatusOK, w.Code)
	var state struct {
		State struct {
			Kind        string `json:"kind"`
			IsDuplicate bool   `json:"isDuplicate"`
		} `json:"state"`
	}
	f.decode(w, &state)
	assert.Equal(t, "needs-stamp", state.State.Kind)
	assert.True(t, state.State.IsDuplicate)

	// duplicated values may be re-stamped even under compliance
	w = f.do(http.MethodPost, "/api/v1/elements/"+clone.ID+"/stamp", map[string]any{"sequenceId": seqID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// journal recorded the whole history
	w = f.do(http.MethodGet, "/api/v1/journal?sequenceId="+seqID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]any
	f.decode(w, &entries)
	assert.GreaterOrEqual(t, len(entries), 3) // create, stamp, restamp
}

func TestRelinkBrokenLink(t *testing.T) {
	f := newAPIFixture(t, "")

	old := f.createSequence(map[string]any{"name": "Old", "type": "number"})
	oldID := old["id"].(string)
	elemID := f.createText("")

	w := f.do(http.MethodPost, "/api/v1/elements/"+elemID+"/stamp", map[string]any{"sequenceId": oldID})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodDelete, "/api/v1/sequences/"+oldID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// broken link surfaces in selection state
	w = f.do(http.MethodPut, "/api/v1/selection", map[string]any{"elementIds": []string{elemID}})
	require.Equal(t, http.StatusOK, w.Code)
	var state struct {
		State struct {
			Kind         string `json:"kind"`
			StampedValue string `json:"stampedValue"`
		} `json:"state"`
	}
	f.decode(w, &state)
	assert.Equal(t, "broken-link", state.State.Kind)
	assert.Equal(t, "0", state.State.StampedValue)

	// repair against a fresh sequence
	fresh := f.createSequence(map[string]any{"name": "New", "type": "number"})
	w = f.do(http.MethodPost, "/api/v1/elements/"+elemID+"/relink", map[string]any{"sequenceId": fresh["id"]})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	f.decode(w, &state)
	assert.Equal(t, "stamped", state.State.Kind)
}

func TestReset(t *testing.T) {
	f := newAPIFixture(t, "")

	seq := f.createSequence(map[string]any{"name": "Invoices", "type": "number", "mode": "compliance"})
	seqID := seq["id"].(string)
	elemID := f.createText("")

	w := f.do(http.MethodPost, "/api/v1/elements/"+elemID+"/stamp", map[string]any{"sequenceId": seqID})
	require.Equal(t, http.StatusOK, w.Code)

	// backwards reset is refused under compliance
	w = f.do(http.MethodPost, "/api/v1/sequences/"+seqID+"/reset", map[string]any{"value": "0"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(http.MethodPost, "/api/v1/sequences/"+seqID+"/reset", map[string]any{"value": "500"})
	require.Equal(t, http.StatusOK, w.Code)
	var reset struct {
		Sequence struct {
			NextValue string `json:"nextValue"`
		} `json:"sequence"`
	}
	f.decode(w, &reset)
	assert.Equal(t, "500", reset.Sequence.NextValue)
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"
	f := newAPIFixture(t, secret)

	// no token
	w := f.do(http.MethodGet, "/api/v1/sequences", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// garbage token
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sequences", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// valid token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "host-ui",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sequences", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", signed))
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// health stays open
	w = f.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
