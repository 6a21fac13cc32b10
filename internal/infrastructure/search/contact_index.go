package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-contacts-api/internal/domain/entity"
)

const (
	requestTimeout = 3 * time.Second
	bulkTimeout    = 30 * time.Second
)

// indexMapping keeps the searchable fields as keywords so wildcard queries
// behave like a substring match.
const indexMapping = `{
  "mappings": {
    "properties": {
      "user_id":    {"type": "long"},
      "first_name": {"type": "keyword"},
      "last_name":  {"type": "keyword"},
      "email":      {"type": "keyword"}
    }
  }
}`

// ContactIndex mirrors contacts into Elasticsearch for owner-scoped search.
type ContactIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewContactIndex(es *elasticsearch.Client, index string) *ContactIndex {
	return &ContactIndex{es: es, index: index}
}

type contactDoc struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (x *ContactIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := esapi.IndicesExistsRequest{Index: []string{x.index}}.Do(c, x.es)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}
	res, err = esapi.IndicesCreateRequest{Index: x.index, Body: strings.NewReader(indexMapping)}.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", x.index, res.Status())
	}
	return nil
}

func toDoc(ct *entity.Contact) contactDoc {
	return contactDoc{
		ID:        ct.ID,
		UserID:    ct.UserID,
		FirstName: ct.FirstName,
		LastName:  ct.LastName,
		Email:     ct.Email,
	}
}

// docVersion orders writes of the same contact so an older snapshot never
// replaces a newer one.
func docVersion(ct *entity.Contact) int {
	return int(ct.UpdatedAt.UnixMicro())
}

// Index writes one contact and waits until it is visible to search.
func (x *ContactIndex) Index(ctx context.Context, ct *entity.Contact) error {
	b, err := json.Marshal(toDoc(ct))
	if err != nil {
		return err
	}
	version := docVersion(ct)
	req := esapi.IndexRequest{
		Index:       x.index,
		DocumentID:  strconv.FormatInt(ct.ID, 10),
		Body:        bytes.NewReader(b),
		Refresh:     "wait_for",
		Version:     &version,
		VersionType: "external_gte",
	}
	return x.do(ctx, req, "index contact")
}

// IndexAll writes a batch through the bulk API. Items already indexed at a
// newer version are skipped; any other item failure fails the call.
func (x *ContactIndex) IndexAll(ctx context.Context, cs []entity.Contact) error {
	if len(cs) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range cs {
		meta := map[string]any{"index": map[string]any{
			"_id":          strconv.FormatInt(cs[i].ID, 10),
			"version":      docVersion(&cs[i]),
			"version_type": "external_gte",
		}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(toDoc(&cs[i])); err != nil {
			return err
		}
	}

	c, cancel := context.WithTimeout(ctx, bulkTimeout)
	defer cancel()
	res, err := esapi.BulkRequest{Index: x.index, Body: &buf, Refresh: "wait_for"}.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("bulk index contacts: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("bulk index contacts: %s", res.Status())
	}
	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("bulk index contacts: %w", err)
	}
	if !parsed.Errors {
		return nil
	}
	failed := 0
	for _, item := range parsed.Items {
		for _, r := range item {
			// 409: the index already holds a newer version.
			if r.Status >= 300 && r.Status != http.StatusConflict {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("bulk index contacts: %d of %d items failed", failed, len(cs))
	}
	return nil
}

func (x *ContactIndex) Delete(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: strconv.FormatInt(id, 10), Refresh: "wait_for"}
	return x.do(ctx, req, "delete contact")
}

// Search returns ids of the owner's contacts whose first name, last name or
// email contains text, ignoring case.
func (x *ContactIndex) Search(ctx context.Context, ownerID int64, text string, size int) ([]int64, error) {
	b, err := json.Marshal(searchQuery(ownerID, text, size))
	if err != nil {
		return nil, err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search contacts: %s", res.Status())
	}
	return decodeIDs(res.Body)
}

func (x *ContactIndex) do(ctx context.Context, req esapi.Request, op string) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound && res.StatusCode != http.StatusConflict {
		return fmt.Errorf("%s: %s", op, res.Status())
	}
	return nil
}

func searchQuery(ownerID int64, text string, size int) map[string]any {
	pattern := "*" + escapeWildcard(text) + "*"
	should := make([]any, 0, 3)
	for _, f := range []string{"first_name", "last_name", "email"} {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				f: map[string]any{"value": pattern, "case_insensitive": true},
			},
		})
	}
	return map[string]any{
		"size":    size,
		"_source": []string{"id"},
		"query": map[string]any{
			"bool": map[string]any{
				"filter":               []any{map[string]any{"term": map[string]any{"user_id": ownerID}}},
				"should":               should,
				"minimum_should_match": 1,
			},
		},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

func decodeIDs(r io.Reader) ([]int64, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				Source contactDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}
