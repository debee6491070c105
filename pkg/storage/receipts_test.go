package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("receipt", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["receipt"][0]
}

func TestReceiptStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewReceiptStore(dir, []string{".jpg", ".jpeg", ".png", ".pdf"})
	require.NoError(t, err)

	rel, err := store.Save(multipartHeader(t, "payment.PDF", []byte("%PDF-1.4")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "receipts"+string(filepath.Separator)))
	assert.True(t, strings.HasSuffix(rel, ".pdf"), "extension lowered: %s", rel)
	assert.NotContains(t, rel, "payment", "client filename must not leak into storage")

	data, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestReceiptStoreRejectsExtension(t *testing.T) {
	store, err := NewReceiptStore(t.TempDir(), []string{".jpg", ".jpeg", ".png", ".pdf"})
	require.NoError(t, err)

	_, err = store.Save(multipartHeader(t, "evil.exe", []byte("MZ")))
	require.Error(t, err)
}
