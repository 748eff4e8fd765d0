//go:build !sqlite_fts5

package storage

import (
	"testing"

	"github.com/starford/cloudnotes/internal/models"
)

func TestSQLite_SearchEscapesWildcards(t *testing.T) {
	repo := testSQLite(t)
	_, _ = repo.Insert(models.Information{Title: "Discount 50% off", LastModified: at(1)})
	_, _ = repo.Insert(models.Information{Title: "Score 500", LastModified: at(2)})
	_, _ = repo.Insert(models.Information{Title: "abc", LastModified: at(3)})
	_, _ = repo.Insert(models.Information{Title: "a_c", LastModified: at(4)})

	tests := []struct {
		query string
		want  []string
	}{
		{"50%", []string{"Discount 50% off"}},
		{"a_c", []string{"a_c"}},
		{"500", []string{"Score 500"}},
	}
	for _, tt := range tests {
		results, err := repo.Search(tt.query, 10)
		if err != nil {
			t.Errorf("Search(%q): %v", tt.query, err)
			continue
		}
		if got := titles(results); !equalStrings(got, tt.want) {
			t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
