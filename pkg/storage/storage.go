// Package storage holds the types shared by file store backends.
package storage

import "strings"

// Object identifies a blob held by a file store.
type Object struct {
	ID  string
	URL string
}

// JoinID encodes a backend resource kind into an object id.
func JoinID(kind, key string) string {
	if kind == "" {
		return key
	}
	return kind + ":" + key
}

// SplitID reverses JoinID. Ids without a kind prefix return an empty kind.
func SplitID(id string) (kind, key string) {
	if idx := strings.Index(id, ":"); idx > 0 {
		return id[:idx], id[idx+1:]
	}
	return "", id
}
