package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Apurer/admin-dashboard/internal/shared/errors"
)

func staticToken(token string) TokenProvider {
	return TokenProviderFunc(func(context.Context) (string, bool) { return token, token != "" })
}

func TestRequest_AttachesBearerWhenTokenPresent(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithTokenProvider(staticToken("abc")))
	require.NoError(t, err)

	var out struct{ OK bool }
	require.NoError(t, client.Get(context.Background(), "/users", nil, &out))
	require.True(t, out.OK)
	require.Equal(t, "Bearer abc", seen)
}

func TestRequest_OmitsBearerWithoutToken(t *testing.T) {
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL + "/")
	require.NoError(t, err)
	require.NoError(t, client.Post(context.Background(), "auth/logout", nil, nil))
	require.False(t, present)
}

func TestRequest_SendsJSONBodyAndQuery(t *testing.T) {
	var gotQuery, gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = client.Request(context.Background(), http.MethodPut, "/users/7",
		map[string]string{"name": "Ada"}, map[string]any{"page": 2, "search": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "page=2&search=a%20b", gotQuery)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"name":"Ada"}`, gotBody)
}

func TestRequest_ClassifiesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"Email already taken"}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	err = client.Post(context.Background(), "/users", map[string]string{"email": "a@b.c"}, nil)

	var httpErr *apperrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Status)
	assert.Equal(t, "Email already taken", apperrors.Message(err))
}

func TestRequest_TimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	err = client.Get(context.Background(), "/slow", nil, nil)

	var netErr *apperrors.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
	assert.True(t, apperrors.IsNetwork(err))
}

func TestRequest_UnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewClient(url)
	require.NoError(t, err)
	err = client.Get(context.Background(), "/users", nil, nil)
	require.True(t, apperrors.IsNetwork(err))

	var httpErr *apperrors.HTTPError
	require.False(t, errors.As(err, &httpErr))
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestUpload_RepeatsArrayFields(t *testing.T) {
	type part struct{ name, file, value string }
	var parts []part
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := reader.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(p)
			parts = append(parts, part{name: p.FormName(), file: p.FileName(), value: string(data)})
		}
		_, _ = io.WriteString(w, `{"uploaded":true}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	var out struct{ Uploaded bool }
	err = client.Upload(context.Background(), "/users/import", Fields{
		"tags":   []string{"a", "b"},
		"count":  3,
		"skip":   nil,
		"avatar": File{Name: "dir/me.png", ContentType: "image/png", Reader: strings.NewReader("png")},
	}, &out)
	require.NoError(t, err)
	require.True(t, out.Uploaded)
	require.True(t, strings.HasPrefix(contentType, "multipart/form-data; boundary="))
	require.Equal(t, []part{
		{name: "avatar", file: "me.png", value: "png"},
		{name: "count", value: "3"},
		{name: "tags", value: "a"},
		{name: "tags", value: "b"},
	}, parts)
}

func TestUpload_RejectsUnknownPayload(t *testing.T) {
	client, err := NewClient("http://localhost")
	require.NoError(t, err)
	require.Error(t, client.Upload(context.Background(), "/x", 42, nil))
}

type recordingSaver struct {
	name string
	data []byte
}

func (s *recordingSaver) Save(_ context.Context, filename string, data []byte) error {
	s.name = filename
	s.data = append([]byte(nil), data...)
	return nil
}

func TestDownload_SavesNamedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "id,name\n1,Ada\n"+r.URL.RawQuery)
	}))
	defer srv.Close()

	saver := &recordingSaver{}
	client, err := NewClient(srv.URL, WithSaver(saver))
	require.NoError(t, err)

	data, err := client.Download(context.Background(), "/users/export", map[string]any{"format": "csv"}, "users.csv")
	require.NoError(t, err)
	require.Equal(t, "id,name\n1,Ada\nformat=csv", string(data))
	require.Equal(t, "users.csv", saver.name)
	require.Equal(t, data, saver.data)

	saver.name = ""
	_, err = client.Download(context.Background(), "/users/export", nil, "")
	require.NoError(t, err)
	require.Empty(t, saver.name)
}

func TestDirSaver_KeepsBaseName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, DirSaver{Dir: dir}.Save(context.Background(), "../../escape.txt", []byte("hi")))

	data, err := os.ReadFile(filepath.Join(dir, "escape.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))
	require.Error(t, DirSaver{Dir: dir}.Save(context.Background(), " ", nil))
}
