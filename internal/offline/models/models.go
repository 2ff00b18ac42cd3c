// Package models defines the local-first entity types (series, sermons,
// profiles) together with the sync metadata every locally stored row carries.
package models

import "encoding/json"

// Op records the remote effect a dirty row is waiting to apply.
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// MarshalTags encodes a tag list as the JSON array stored in TEXT columns.
// A nil slice encodes as "[]" so the column is never NULL.
func MarshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalTags decodes the JSON array stored in a tags column. Empty or
// NULL columns decode to an empty slice.
func UnmarshalTags(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
