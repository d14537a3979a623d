package openalex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const searchResult = `{
  "meta": {"count": 1},
  "results": [{
    "id": "https://openalex.org/W2741809807",
    "doi": "https://doi.org/10.7717/peerj.4375",
    "title": "The state of OA: a large-scale analysis of the prevalence and impact of Open Access articles",
    "publication_year": 2018,
    "authorships": [
      {"author": {"display_name": "Heather Piwowar"}},
      {"author": {"display_name": ""}},
      {"author": {"display_name": "Jason Priem"}}
    ]
  }]
}`

func TestSearchWorks(t *testing.T) {
	var gotSearch, gotPerPage, gotMailto string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			t.Errorf("path = %q, want /works", r.URL.Path)
		}
		gotSearch = r.URL.Query().Get("search")
		gotPerPage = r.URL.Query().Get("per_page")
		gotMailto = r.URL.Query().Get("mailto")
		w.Write([]byte(searchResult))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithMailto("me@example.org"))
	works, err := client.SearchWorks(context.Background(), "state of OA & impact", 1)
	if err != nil {
		t.Fatalf("SearchWorks() error = %v", err)
	}

	if gotSearch != "state of OA & impact" {
		t.Errorf("search = %q", gotSearch)
	}
	if gotPerPage != "1" {
		t.Errorf("per_page = %q, want 1", gotPerPage)
	}
	if gotMailto != "me@example.org" {
		t.Errorf("mailto = %q", gotMailto)
	}
	if len(works) != 1 {
		t.Fatalf("got %d works, want 1", len(works))
	}

	m := works[0].Metadata()
	if m.Authors != "Heather Piwowar, Jason Priem" {
		t.Errorf("Authors = %q", m.Authors)
	}
	if m.Year != 2018 {
		t.Errorf("Year = %d, want 2018", m.Year)
	}
	if m.DOI != "10.7717/peerj.4375" {
		t.Errorf("DOI = %q, want 10.7717/peerj.4375", m.DOI)
	}
	if m.URL != "https://doi.org/10.7717/peerj.4375" {
		t.Errorf("URL = %q", m.URL)
	}
}

func TestSearchWorks_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"count":0},"results":[]}`))
	}))
	defer srv.Close()

	works, err := NewClient(WithBaseURL(srv.URL)).SearchWorks(context.Background(), "nothing", 1)
	if err != nil {
		t.Fatalf("SearchWorks() error = %v", err)
	}
	if len(works) != 0 {
		t.Errorf("got %d works, want 0", len(works))
	}
}

func TestSearchWorks_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"rate limited", http.StatusTooManyRequests, "", IsRateLimited},
		{"bad request", http.StatusBadRequest, "bad", func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 400 && apiErr.Message == "bad"
		}},
		{"invalid json", http.StatusOK, "<html>", func(err error) bool {
			return errors.Is(err, ErrInvalidResponse)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(WithBaseURL(srv.URL)).SearchWorks(context.Background(), "q", 1)
			if err == nil || !tt.check(err) {
				t.Errorf("SearchWorks() error = %v", err)
			}
		})
	}
}

func TestWork_MetadataURLFallback(t *testing.T) {
	m := Work{ID: "https://openalex.org/W1", Title: "T"}.Metadata()
	if m.URL != "https://openalex.org/W1" {
		t.Errorf("URL = %q, want work id", m.URL)
	}
	if m.DOI != "" {
		t.Errorf("DOI = %q, want empty", m.DOI)
	}
}
