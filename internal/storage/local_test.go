package storage

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-tutor-server/internal/config"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.LocalRoot = t.TempDir()
	cfg.Storage.BaseURL = "http://localhost:8080/files"
	cfg.Storage.URLSecret = "0123456789abcdef0123456789abcdef"

	store, err := NewLocalStorage(cfg)
	require.NoError(t, err)
	return store
}

func TestLocalUploadAndOpen(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	err := store.Upload(ctx, "biology/5th_grade/doc.pdf", []byte("%PDF-fake"), "application/pdf")
	require.NoError(t, err)

	fullPath, err := store.Open("biology/5th_grade/doc.pdf")
	require.NoError(t, err)

	data, err := os.ReadFile(fullPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(data))
}

func TestLocalRemoveToleratesMissing(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "a/doc.pdf", []byte("x"), "application/pdf"))

	// 已存在的和不存在的一起删，不报错
	assert.NoError(t, store.Remove(ctx, []string{"a/doc.pdf", "a/ghost.pdf"}))

	fullPath, err := store.Open("a/doc.pdf")
	require.NoError(t, err)
	_, statErr := os.Stat(fullPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalResolveRejectsEscape(t *testing.T) {
	store := newTestLocalStorage(t)

	// 上级目录穿越被收敛到根目录内
	fullPath, err := store.Open("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fullPath, store.root))
}

func TestLocalPublicURLEscapesSegments(t *testing.T) {
	store := newTestLocalStorage(t)

	got := store.GetPublicURL("biology/5th grade/doc.pdf")

	assert.Equal(t, "http://localhost:8080/files/biology/5th%20grade/doc.pdf", got)
}

func TestLocalSignedURLRoundTrip(t *testing.T) {
	store := newTestLocalStorage(t)

	signed, err := store.CreateSignedURL(context.Background(), "a/doc.pdf", time.Minute)
	require.NoError(t, err)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)

	assert.NoError(t, store.VerifyToken(token, "a/doc.pdf"))
	assert.Error(t, store.VerifyToken(token, "b/doc.pdf"))
}
