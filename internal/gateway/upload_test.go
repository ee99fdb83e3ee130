// ABOUTME: Tests for upload size/type limits and auth-gated file serving
// ABOUTME: Builds multipart bodies with explicit part content types

package gateway

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func upload(t *testing.T, client *http.Client, baseURL, filename, contentType string, data []byte) *http.Response {
	t.Helper()
	body, formType := multipartBody(t, filename, contentType, data)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", formType)
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestUpload_Success(t *testing.T) {
	_, srv, client := newTestGateway(t)
	registerUser(t, client, srv.URL, "wanjiku")

	content := []byte("maasai vocabulary notes")
	resp := upload(t, client, srv.URL, "notes.txt", "text/plain", content)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode[struct {
		FileURL  string `json:"fileUrl"`
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
	}](t, resp)
	assert.Equal(t, "notes.txt", body.Filename)
	assert.Equal(t, int64(len(content)), body.Size)
	assert.True(t, strings.HasPrefix(body.FileURL, "/uploads/"))
	assert.True(t, strings.HasSuffix(body.FileURL, "-notes.txt"))

	// The stored file is served back to authenticated users.
	served, err := client.Get(srv.URL + body.FileURL)
	require.NoError(t, err)
	defer served.Body.Close()
	require.Equal(t, http.StatusOK, served.StatusCode)
	got, err := io.ReadAll(served.Body)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Unauthenticated requests cannot fetch uploads.
	anon, err := http.Get(srv.URL + body.FileURL)
	require.NoError(t, err)
	anon.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, anon.StatusCode)
}

func TestUpload_RejectsDisallowedType(t *testing.T) {
	_, srv, client := newTestGateway(t)
	registerUser(t, client, srv.URL, "wanjiku")

	resp := upload(t, client, srv.URL, "script.sh", "application/x-sh", []byte("#!/bin/sh"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	gw, srv, client := newTestGateway(t)
	gw.config.Uploads.MaxBytes = 1024
	registerUser(t, client, srv.URL, "wanjiku")

	big := bytes.Repeat([]byte("a"), 4096)
	resp := upload(t, client, srv.URL, "big.txt", "text/plain", big)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestUpload_RequiresAuth(t *testing.T) {
	_, srv, _ := newTestGateway(t)

	client := &http.Client{}
	resp := upload(t, client, srv.URL, "notes.txt", "text/plain", []byte("x"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpload_MissingFileField(t *testing.T) {
	_, srv, client := newTestGateway(t)
	registerUser(t, client, srv.URL, "wanjiku")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("note", "no file here"))
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
