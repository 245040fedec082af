package fetch

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/intel-crawler/pkg/jina"
)

type stubJina struct {
	resp *jina.ReadResponse
	err  error
}

func (s *stubJina) Read(_ context.Context, _ string) (*jina.ReadResponse, error) {
	return s.resp, s.err
}

func TestJinaFetcher(t *testing.T) {
	f := NewJinaFetcher(&stubJina{resp: &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{
			URL:     "https://acme.com/",
			Content: "Acme   Corp\n\nFounded in 1998.",
			Links: map[string]string{
				"About":    "https://acme.com/about",
				"External": "https://other.com/x",
				"Relative": "/nope",
			},
		},
	}})

	page, err := f.Fetch(context.Background(), "https://acme.com/")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp Founded in 1998.", page.Text)
	require.Len(t, page.Links, 1)
	assert.Equal(t, "https://acme.com/about", page.Links[0].URL)
}

func TestJinaFetcherClientError(t *testing.T) {
	f := NewJinaFetcher(&stubJina{err: eris.New("boom")})

	_, err := f.Fetch(context.Background(), "https://acme.com/")
	var fetchErr *Error
	require.True(t, eris.As(err, &fetchErr))
	assert.Equal(t, ReasonNetwork, fetchErr.Reason)
}

func TestJinaFetcherAPIError(t *testing.T) {
	f := NewJinaFetcher(&stubJina{resp: &jina.ReadResponse{Code: 451}})

	_, err := f.Fetch(context.Background(), "https://acme.com/")
	var fetchErr *Error
	require.True(t, eris.As(err, &fetchErr))
	assert.Equal(t, ReasonHTTP, fetchErr.Reason)
	assert.Equal(t, 451, fetchErr.Status)
}

func TestJinaFetcherEmptyContent(t *testing.T) {
	f := NewJinaFetcher(&stubJina{resp: &jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{URL: "https://acme.com/", Content: "   "},
	}})

	_, err := f.Fetch(context.Background(), "https://acme.com/")
	assert.Error(t, err)
}
