// Package httpstore stores objects through a Supabase-compatible storage REST
// API: POST {base}/object/{bucket}/{key}, public URLs under
// {base}/object/public/{bucket}/{key}.
package httpstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/puros/internal/storage"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httpclient"
)

// Store implements storage.ObjectStore over HTTP.
type Store struct {
	client  httpclient.Doer
	baseURL string
	apiKey  string
}

// New creates a store rooted at baseURL (for example
// https://<project>.supabase.co/storage/v1).
func New(baseURL, apiKey string, client httpclient.Doer) *Store {
	return &Store{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (s *Store) Put(ctx context.Context, input *storage.PutInput) (string, error) {
	path := url.PathEscape(input.Bucket) + "/" + escapeKey(input.Key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/object/"+path, input.Data)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", input.ContentType)
	req.Header.Set("Cache-Control", "max-age="+strconv.Itoa(input.CacheControl))
	req.Header.Set("x-upsert", strconv.FormatBool(input.Upsert))

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusConflict {
		_ = resp.Body.Close()
		return "", fmt.Errorf("upload %s: %w", path, storage.ErrObjectExists)
	}
	if resp.StatusCode >= 300 {
		err := httpclient.ParseResponseError(resp, "object store")
		return "", fmt.Errorf("upload %s: %w", path, apperrors.Store(err))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return s.baseURL + "/object/public/" + path, nil
}
