package connection

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	uploads   map[string][]byte
	removeErr error
	uploadErr error
	baseURL   string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{
		uploads: make(map[string][]byte),
		baseURL: "https://storage.test/public",
	}
}

func (u *fakeUploader) Upload(_ context.Context, path, _ string, body io.Reader) error {
	if u.uploadErr != nil {
		return u.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	u.uploads[path] = data
	return nil
}

func (u *fakeUploader) Remove(_ context.Context, path string) error {
	if u.removeErr != nil {
		return u.removeErr
	}
	if _, ok := u.uploads[path]; !ok {
		return errors.New("object not found")
	}
	delete(u.uploads, path)
	return nil
}

func (u *fakeUploader) PublicURL(path string) string {
	return u.baseURL + "/" + path
}

func TestConnectUploadsAndPersistsRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	uploader := newFakeUploader()
	svc := NewServiceWithStore(store, uploader)

	state, err := svc.Connect(ctx, "sales.xlsx", "application/vnd.ms-excel", 1024, strings.NewReader("workbook-bytes"))
	require.NoError(t, err)

	assert.True(t, state.Connected)
	assert.Equal(t, "sales.xlsx", state.FileName)
	assert.Equal(t, "https://storage.test/public/excel-uploads/sales.xlsx", state.FileURL)

	// Uploaded bytes round-trip via the object path.
	assert.Equal(t, []byte("workbook-bytes"), uploader.uploads["excel-uploads/sales.xlsx"])

	url, _ := store.Get(ctx, recordKeyFileURL)
	name, _ := store.Get(ctx, recordKeyFileName)
	assert.Equal(t, state.FileURL, url)
	assert.Equal(t, "sales.xlsx", name)
}

func TestConnectOverwritesExistingObject(t *testing.T) {
	ctx := context.Background()
	uploader := newFakeUploader()
	svc := NewServiceWithStore(NewMemoryStore(), uploader)

	_, err := svc.Connect(ctx, "sales.xlsx", "", 10, strings.NewReader("v1"))
	require.NoError(t, err)
	_, err = svc.Connect(ctx, "sales.xlsx", "", 10, strings.NewReader("v2"))
	require.NoError(t, err)

	assert.Equal(t, []byte("v2"), uploader.uploads["excel-uploads/sales.xlsx"])
}

func TestConnectRejectsDisallowedExtension(t *testing.T) {
	svc := NewServiceWithStore(NewMemoryStore(), newFakeUploader())

	tests := []string{"report.pdf", "noextension", "archive.xlsx.zip"}
	for _, name := range tests {
		_, err := svc.Connect(context.Background(), name, "", 10, strings.NewReader("x"))
		assert.Error(t, err, name)
	}
}

func TestConnectAcceptsAllowedExtensions(t *testing.T) {
	for _, name := range []string{"a.xlsx", "b.xls", "c.csv", "D.XLSX"} {
		svc := NewServiceWithStore(NewMemoryStore(), newFakeUploader())
		_, err := svc.Connect(context.Background(), name, "", 10, strings.NewReader("x"))
		assert.NoError(t, err, name)
	}
}

func TestConnectRejectsOversizedFile(t *testing.T) {
	svc := NewServiceWithStore(NewMemoryStore(), newFakeUploader())

	_, err := svc.Connect(context.Background(), "big.xlsx", "", 11*1024*1024, strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload limit")
}

func TestConnectUploadFailureSurfacesError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	uploader := newFakeUploader()
	uploader.uploadErr = errors.New("bucket quota exceeded")
	svc := NewServiceWithStore(store, uploader)

	_, err := svc.Connect(ctx, "sales.xlsx", "", 10, strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket quota exceeded")

	// A failed upload never leaves a partial record behind.
	url, _ := store.Get(ctx, recordKeyFileURL)
	assert.Empty(t, url)
}

func TestDisconnectRemovesObjectAndClearsRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	uploader := newFakeUploader()
	svc := NewServiceWithStore(store, uploader)

	_, err := svc.Connect(ctx, "sales.xlsx", "", 10, strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, svc.Disconnect(ctx))

	// Object gone: removing it again fails.
	assert.Error(t, uploader.Remove(ctx, "excel-uploads/sales.xlsx"))

	state, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.False(t, state.Connected)
}

func TestDisconnectClearsRecordEvenWhenRemoveFails(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	uploader := newFakeUploader()
	svc := NewServiceWithStore(store, uploader)

	_, err := svc.Connect(ctx, "sales.xlsx", "", 10, strings.NewReader("x"))
	require.NoError(t, err)

	uploader.removeErr = errors.New("storage unreachable")
	err = svc.Disconnect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage unreachable")

	state, cerr := svc.Current(ctx)
	require.NoError(t, cerr)
	assert.False(t, state.Connected, "record must be cleared even when the delete fails")
}

func TestCurrentTreatsPartialRecordAsDisconnected(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewServiceWithStore(store, newFakeUploader())

	require.NoError(t, store.Set(ctx, recordKeyFileURL, "https://storage.test/public/excel-uploads/sales.xlsx"))

	state, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.False(t, state.Connected)
}

func TestCurrentRestoresConnectedState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewServiceWithStore(store, newFakeUploader())

	_, err := svc.Connect(ctx, "metrics.csv", "", 10, strings.NewReader("a,b"))
	require.NoError(t, err)

	// A fresh service over the same store sees the durable record.
	restored := NewServiceWithStore(store, newFakeUploader())
	state, err := restored.Current(ctx)
	require.NoError(t, err)
	assert.True(t, state.Connected)
	assert.Equal(t, "metrics.csv", state.FileName)
}
