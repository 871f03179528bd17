package defra

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy_500", http.StatusInternalServerError, true},
		{"unhealthy_503", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health-check" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := NewClient(server.URL)
			err := client.HealthCheck(context.Background())

			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_HealthCheck_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := client.HealthCheck(ctx)
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestClient_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/graphql" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content-type: %s", ct)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"Monster": [{"_docID": "abc123", "name": "Goblin"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Execute(context.Background(), `{ Monster { _docID name } }`, nil)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Error() != "" {
		t.Errorf("unexpected GraphQL error: %s", resp.Error())
	}
	if resp.Data == nil {
		t.Error("expected data in response")
	}
}

func TestClient_Execute_WithVariables(t *testing.T) {
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody = make([]byte, r.ContentLength)
		r.Body.Read(receivedBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"Monster": []}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	vars := map[string]any{"id": "test-id", "limit": 10}
	_, err := client.Execute(context.Background(), `query($id: String!) { Monster(filter: {_docID: $id}) { name } }`, vars)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// Verify variables were sent
	if len(receivedBody) == 0 {
		t.Error("expected request body")
	}
}

func TestClient_Execute_GraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors": [{"message": "field not found"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Execute(context.Background(), `{ Invalid }`, nil)

	if err != nil {
		t.Fatalf("Execute() returned transport error: %v", err)
	}
	if resp.Error() == "" {
		t.Error("expected GraphQL error in response")
	}
	if resp.Error() != "field not found" {
		t.Errorf("unexpected error message: %s", resp.Error())
	}
}

func TestClient_Execute_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Execute(ctx, `{ Monster { name } }`, nil)
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestClient_AddSchema(t *testing.T) {
	var receivedSchema string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/schema" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "text/plain" {
			t.Errorf("unexpected content-type: %s", ct)
		}

		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		receivedSchema = string(body)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	schema := `type Monster { name: String }`
	err := client.AddSchema(context.Background(), schema)

	if err != nil {
		t.Fatalf("AddSchema() error = %v", err)
	}
	if receivedSchema != schema {
		t.Errorf("schema mismatch: got %q, want %q", receivedSchema, schema)
	}
}

func TestClient_AddSchema_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid schema syntax"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.AddSchema(context.Background(), `invalid {`)

	if err == nil {
		t.Error("expected error for invalid schema")
	}
}

func TestClient_CreateMany(t *testing.T) {
	var got GQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"create_Monster": [{"_docID": "bae-1"}, {"_docID": "bae-2"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ids, err := client.CreateMany(context.Background(), "Monster", []map[string]any{
		{"name": "Aboleth", "region": "Unknown"},
		{"name": "Goblin", "region": "Unknown"},
	})
	if err != nil {
		t.Fatalf("CreateMany() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "bae-1" || ids[1] != "bae-2" {
		t.Errorf("unexpected ids: %v", ids)
	}

	want := `mutation { create_Monster(input: [{name: "Aboleth", region: "Unknown"}, {name: "Goblin", region: "Unknown"}]) { _docID } }`
	if got.Query != want {
		t.Errorf("query = %q, want %q", got.Query, want)
	}
}

func TestClient_CreateMany_Empty(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	ids, err := client.CreateMany(context.Background(), "Monster", nil)
	if err != nil {
		t.Fatalf("CreateMany() error = %v", err)
	}
	if ids != nil {
		t.Errorf("expected nil ids, got %v", ids)
	}
}

func TestClient_CreateMany_ShortResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"create_Monster": [{"_docID": "bae-1"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateMany(context.Background(), "Monster", []map[string]any{
		{"name": "Aboleth"},
		{"name": "Goblin"},
	})
	if err == nil {
		t.Error("expected error when fewer docs are created than requested")
	}
}

func TestClient_UpdateWhere(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs int
		wantErr error
	}{
		{"matched", `{"data": {"update_Monster": [{"_docID": "bae-1"}]}}`, 1, nil},
		{"no match", `{"data": {"update_Monster": []}}`, 0, ErrNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got GQLRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&got)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			ids, err := client.UpdateWhere(context.Background(), "Monster",
				map[string]any{"name": map[string]any{"_eq": "Frost Wyrm"}},
				map[string]any{"region": "Frostpeak"},
			)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UpdateWhere() error = %v, want %v", err, tt.wantErr)
			}
			if len(ids) != tt.wantIDs {
				t.Errorf("got %d ids, want %d", len(ids), tt.wantIDs)
			}

			want := `mutation { update_Monster(filter: {name: {_eq: "Frost Wyrm"}}, input: {region: "Frostpeak"}) { _docID } }`
			if got.Query != want {
				t.Errorf("query = %q, want %q", got.Query, want)
			}
		})
	}
}

func TestClient_UpdateWhere_GraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "collection not found"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.UpdateWhere(context.Background(), "Monster",
		map[string]any{"name": map[string]any{"_eq": "x"}},
		map[string]any{"region": "y"},
	)
	if err == nil || errors.Is(err, ErrNoMatch) {
		t.Errorf("expected GraphQL error, got %v", err)
	}
}

func TestClient_Documents(t *testing.T) {
	var got GQLRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"data": {"Monster": [{"_docID": "bae-1", "name": "Goblin"}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	docs, err := client.Documents(context.Background(), "Monster", []string{"name"})
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	if got.Query != `{ Monster { _docID name } }` {
		t.Errorf("unexpected query: %q", got.Query)
	}
	if len(docs) != 1 || docs[0]["name"] != "Goblin" {
		t.Errorf("unexpected docs: %v", docs)
	}
}

func TestClient_Execute_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Execute(context.Background(), `{ Monster { name } }`, nil); err == nil {
		t.Error("expected error for 5xx response")
	}
}

func TestClient_URLNormalization(t *testing.T) {
	// URL with trailing slash should be normalized
	client := NewClient("http://localhost:9182/")
	if client.url != "http://localhost:9182" {
		t.Errorf("URL not normalized: %s", client.url)
	}

	// URL without trailing slash should stay the same
	client2 := NewClient("http://localhost:9182")
	if client2.url != "http://localhost:9182" {
		t.Errorf("URL changed unexpectedly: %s", client2.url)
	}
}

func TestMapToGraphQLInput(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{"string value", map[string]any{"name": "Test"}, `{name: "Test"}`},
		{"int value", map[string]any{"xp": 42}, `{xp: 42}`},
		{"float value", map[string]any{"challenge_rating": 0.25}, `{challenge_rating: 0.25}`},
		{"bool value", map[string]any{"active": true}, `{active: true}`},
		{"nil value", map[string]any{"xp": nil}, `{xp: null}`},
		{"empty map", map[string]any{}, `{}`},
		{"keys sorted", map[string]any{"size": "Large", "name": "Ogre", "type": "giant"}, `{name: "Ogre", size: "Large", type: "giant"}`},
		{"escaped string", map[string]any{"desc": "say \"hi\"\n"}, `{desc: "say \"hi\"\n"}`},
		{
			"nested list",
			map[string]any{"actions": []any{map[string]any{"name": "Bite", "desc": "Melee"}}},
			`{actions: [{desc: "Melee", name: "Bite"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mapToGraphQLInput(tt.input)
			if err != nil {
				t.Fatalf("mapToGraphQLInput() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("mapToGraphQLInput() = %v, want %v", got, tt.want)
			}
		})
	}
}
