package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"backoffice/internal/application/listutil"
	"backoffice/internal/domain/record"
)

// SearchSize is the page size of typeahead lookups.
const SearchSize = 10

// SaveTarget returns the method and path used to persist an entity:
// PUT on the item path when it has an id, POST on the collection otherwise.
func SaveTarget(resource string, id record.ID) (method, path string) {
	if id == "" {
		return http.MethodPost, resource
	}
	return http.MethodPut, resource + "/" + url.PathEscape(string(id))
}

// List fetches one page of resource.
// POST: the result satisfies len(Items) <= Size or an error is returned
func List[T any](ctx context.Context, c *Client, resource string, q listutil.ListQuery) (listutil.Result[T], error) {
	var res listutil.Result[T]
	if err := q.Validate(); err != nil {
		return res, err
	}
	if err := c.getJSON(ctx, resource, q.Encode(), &res); err != nil {
		return res, err
	}
	if err := res.Validate(); err != nil {
		return res, err
	}
	return res, nil
}

// Get fetches a single record.
func Get[T any](ctx context.Context, c *Client, resource string, id record.ID) (T, error) {
	var out T
	if id == "" {
		return out, errEmptyID
	}
	err := c.getJSON(ctx, resource+"/"+url.PathEscape(string(id)), "", &out)
	return out, err
}

// Fetch returns the raw document of a record, as edited by forms.
func (c *Client) Fetch(ctx context.Context, resource string, id record.ID) (map[string]any, error) {
	return Get[map[string]any](ctx, c, resource, id)
}

// Save creates (id empty) or updates a record and returns the stored document.
func (c *Client) Save(ctx context.Context, resource string, id record.ID, payload map[string]any) (map[string]any, error) {
	method, path := SaveTarget(resource, id)
	var out map[string]any
	if err := c.sendJSON(ctx, method, path, payload, &out); err != nil {
		return nil, err
	}
	if out == nil {
		// some endpoints answer 204; echo what was sent
		out = payload
	}
	return out, nil
}

// Search looks up records whose param matches q, returning raw documents.
func (c *Client) Search(ctx context.Context, resource, param, q string) ([]map[string]any, error) {
	v := url.Values{}
	v.Set(param, q)
	v.Set("size", strconv.Itoa(SearchSize))
	body, err := c.do(ctx, request{method: http.MethodGet, path: resource, rawQuery: v.Encode()})
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	if err := json.Unmarshal([]byte(items(body).Raw), &out); err != nil {
		return nil, fmt.Errorf("marketplace: decode search: %w", err)
	}
	return out, nil
}

// ListAll fetches an unpaginated sub-list filtered by v.
// Both bare arrays and page envelopes are accepted.
func ListAll[T any](ctx context.Context, c *Client, resource string, v url.Values) ([]T, error) {
	body, err := c.do(ctx, request{method: http.MethodGet, path: resource, rawQuery: v.Encode()})
	if err != nil {
		return nil, err
	}
	var out []T
	raw := items(body).Raw
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("marketplace: decode list: %w", err)
	}
	return out, nil
}

// items selects the record array: the body itself or its "content" member.
func items(body []byte) gjson.Result {
	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		return doc
	}
	if content := doc.Get("content"); content.IsArray() {
		return content
	}
	return gjson.Parse("[]")
}

// Upload sends a file as multipart form field "file" and returns the stored image reference.
// PRE: r yields the file contents; filename is non-empty
func (c *Client) Upload(ctx context.Context, path, filename string, r io.Reader) (record.Image, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return record.Image{}, fmt.Errorf("marketplace: multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return record.Image{}, fmt.Errorf("marketplace: read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return record.Image{}, fmt.Errorf("marketplace: multipart: %w", err)
	}
	body, err := c.do(ctx, request{method: http.MethodPost, path: path, body: &buf, contentType: mw.FormDataContentType()})
	if err != nil {
		return record.Image{}, err
	}
	var img record.Image
	if err := decode(body, &img); err != nil {
		return record.Image{}, err
	}
	if img.Key == "" {
		return record.Image{}, fmt.Errorf("marketplace: upload response has no key")
	}
	return img, nil
}
