package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// kvRow maps the key-value table:
//
//	create table mgm_kv (key text primary key, value text not null, updated_at timestamptz);
type kvRow struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Get implements port.KVStore.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Get")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	var (
		value []byte
		found bool
	)
	err := c.call(ctx, "get", func() error {
		path := fmt.Sprintf("%s?key=eq.%s&select=key,value&limit=1", c.table, url.QueryEscape(key))
		body, err := c.do(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}

		var rows []kvRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode kv row: %w", err)
		}
		if len(rows) == 0 {
			value, found = nil, false
			return nil
		}
		value, found = []byte(rows[0].Value), true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Set implements port.KVStore.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	return c.SetMany(ctx, map[string][]byte{key: value})
}

// SetMany upserts every entry in one bulk request, which PostgREST runs in
// a single statement.
func (c *Client) SetMany(ctx context.Context, entries map[string][]byte) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetMany")
	defer span.End()
	span.SetAttributes(attribute.Int("kv.entries", len(entries)))

	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rows := make([]kvRow, 0, len(entries))
	for k, v := range entries {
		rows = append(rows, kvRow{Key: k, Value: string(v), UpdatedAt: now})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	return c.call(ctx, "set", func() error {
		_, err := c.do(ctx, http.MethodPost, c.table+"?on_conflict=key", rows,
			"resolution=merge-duplicates,return=minimal")
		return err
	})
}

// Delete implements port.KVStore.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.DeleteMany(ctx, []string{key})
}

// DeleteMany removes the keys with one in.(...) filter, a single statement
// on the database side.
func (c *Client) DeleteMany(ctx context.Context, keys []string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteMany")
	defer span.End()
	span.SetAttributes(attribute.Int("kv.entries", len(keys)))

	if len(keys) == 0 {
		return nil
	}
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = strconv.Quote(k)
	}
	filter := "in.(" + strings.Join(quoted, ",") + ")"

	return c.call(ctx, "delete", func() error {
		path := fmt.Sprintf("%s?key=%s", c.table, url.QueryEscape(filter))
		_, err := c.do(ctx, http.MethodDelete, path, nil, "return=minimal")
		return err
	})
}

// Keys lists keys starting with prefix. PostgREST's like filter treats "_"
// as a wildcard, so the result is re-checked here.
func (c *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Keys")
	defer span.End()

	var keys []string
	err := c.call(ctx, "keys", func() error {
		path := fmt.Sprintf("%s?select=key&order=key.asc", c.table)
		if prefix != "" {
			path += "&key=like." + url.QueryEscape(prefix+"*")
		}
		body, err := c.do(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return err
		}

		var rows []kvRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode kv keys: %w", err)
		}
		keys = keys[:0]
		for _, r := range rows {
			if strings.HasPrefix(r.Key, prefix) {
				keys = append(keys, r.Key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping issues a one-row read against the table.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	return c.call(ctx, "ping", func() error {
		_, err := c.do(ctx, http.MethodGet, c.table+"?select=key&limit=1", nil, "")
		return err
	})
}
