package storage

import "strings"

// likeEscaper escapes LIKE wildcards; queries use ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a user query into a substring LIKE pattern.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// ftsPhrase quotes a user query as one FTS5 prefix phrase so operators and
// punctuation in it are matched as text, not parsed as query syntax.
func ftsPhrase(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"*`
}
