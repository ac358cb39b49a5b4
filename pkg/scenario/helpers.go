package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
	"github.com/codeready-toolchain/searchctl/pkg/credential"
	"github.com/codeready-toolchain/searchctl/pkg/search"
)

// maxDetailLen caps free text (model answers, grounding) kept in a step detail.
const maxDetailLen = 600

// waitForDocuments polls the document count until it reaches want. Indexing
// is eventually consistent, so uploads are not immediately queryable.
func waitForDocuments(ctx context.Context, svc SearchService, index string, want int64, interval time.Duration) (int64, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		n, err := svc.CountDocuments(ctx, index)
		if err != nil {
			return 0, err
		}
		if n >= want {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return n, fmt.Errorf("index %s has %d of %d documents: %w", index, n, want, ctx.Err())
		case <-ticker.C:
		}
	}
}

// uploadDocuments indexes docs and fails when any document was rejected.
func uploadDocuments(ctx context.Context, svc SearchService, index string, docs []search.Document) (string, error) {
	results, err := svc.IndexDocuments(ctx, index, search.ActionUpload, docs)
	if err != nil {
		return "", err
	}
	failed := search.FailedResults(results)
	detail := fmt.Sprintf("%d of %d documents accepted", len(results)-len(failed), len(docs))
	if len(failed) > 0 {
		msgs := make([]string, 0, len(failed))
		for _, f := range failed {
			msgs = append(msgs, fmt.Sprintf("%s: %s", f.Key, f.ErrorMessage))
		}
		return detail, fmt.Errorf("%d documents rejected: %s", len(failed), strings.Join(msgs, "; "))
	}
	return detail, nil
}

// ignoreNotFound treats deleting something already gone as success.
func ignoreNotFound(err error) error {
	if errors.Is(err, azrest.ErrNotFound) {
		return nil
	}
	return err
}

// callerToken acquires a search-scoped token for the caller and records it
// and its object ID in st.
func callerToken(ctx context.Context, tokens credential.TokenProvider, st *State) (*credential.Claims, error) {
	token, err := tokens.Token(ctx, credential.ScopeSearch)
	if err != nil {
		return nil, err
	}
	claims, err := credential.DecodeClaims(token)
	if err != nil {
		return nil, err
	}
	if claims.ObjectID == "" {
		return nil, fmt.Errorf("token has no oid claim")
	}
	st.Set(KeyCallerToken, token)
	st.Set(KeyCallerOID, claims.ObjectID)
	return claims, nil
}

// resultField collects a field's values from hits, sorted.
func resultField(resp *search.SearchResponse, field string) []string {
	out := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if v, ok := r.Document[field]; ok {
			out = append(out, fmt.Sprint(v))
		}
	}
	sort.Strings(out)
	return out
}

// unlessErr drops detail when err is set.
func unlessErr(detail string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return detail, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func countOf(resp *search.SearchResponse) int64 {
	if resp.Count != nil {
		return *resp.Count
	}
	return int64(len(resp.Results))
}

// keepOrDelete builds the cleanup step shared by the scenarios that create
// service resources. It runs even when an earlier fatal step failed.
func keepOrDelete(name string, keep bool, del func(ctx context.Context) error) Step {
	return Step{
		Name:   name,
		Always: true,
		Run: func(ctx context.Context, _ *State) (string, error) {
			if keep {
				return "kept (keep_resources is set)", nil
			}
			if err := ignoreNotFound(del(ctx)); err != nil {
				return "", err
			}
			return "deleted", nil
		},
	}
}
