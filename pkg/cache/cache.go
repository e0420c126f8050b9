// Package cache provides the key/value stores behind the dataset cache: a
// bounded in-process LRU, a Redis store, and a layered combination of both.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Store is a key/value cache. Get decodes into dest, which must be a
// non-nil pointer.
type Store interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// JoinKey renders prefix and parts as "prefix:p1:p2".
func JoinKey(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}

// assign copies value into the pointer dest. Values of a different but
// compatible shape go through a JSON round trip.
func assign(dest, value interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("cache: dest must be a non-nil pointer, got %T", dest)
	}
	vv := reflect.ValueOf(value)
	if vv.IsValid() && vv.Type().AssignableTo(dv.Elem().Type()) {
		dv.Elem().Set(vv)
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("cache: unmarshal: %w", err)
	}
	return nil
}

func deref(dest interface{}) interface{} {
	dv := reflect.ValueOf(dest)
	if dv.Kind() == reflect.Ptr && !dv.IsNil() {
		return dv.Elem().Interface()
	}
	return dest
}
