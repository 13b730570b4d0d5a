package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hynox/vox/internal/services/chat"
	chatmodels "github.com/hynox/vox/internal/services/chat/models"
	"github.com/hynox/vox/internal/services/connection"
)

type stubUploader struct {
	uploads map[string][]byte
}

func newStubUploader() *stubUploader {
	return &stubUploader{uploads: make(map[string][]byte)}
}

func (u *stubUploader) Upload(_ context.Context, path, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	u.uploads[path] = data
	return nil
}

func (u *stubUploader) Remove(_ context.Context, path string) error {
	delete(u.uploads, path)
	return nil
}

func (u *stubUploader) PublicURL(path string) string {
	return "https://storage.test/public/" + path
}

type stubDispatcher struct {
	response *chatmodels.StructuredResponse
	err      error
}

func (d *stubDispatcher) Query(_ context.Context, _, _ string) (*chatmodels.StructuredResponse, error) {
	return d.response, d.err
}

func multipartUpload(t *testing.T, fileName, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestConnectUploadLinksFileAndChat(t *testing.T) {
	uploader := newStubUploader()
	svc := connection.NewServiceWithStore(connection.NewMemoryStore(), uploader)
	controller := chat.NewController(chat.Config{Dispatcher: &stubDispatcher{}})

	body, contentType := multipartUpload(t, "sales.xlsx", "workbook-bytes")
	r := httptest.NewRequest(http.MethodPost, "/v1/connect", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	HandleConnect(svc, controller, w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var state connection.State
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	assert.True(t, state.Connected)
	assert.Equal(t, "sales.xlsx", state.FileName)

	// The chat controller follows the connection.
	assert.Equal(t, chat.StateConnectedIdle, controller.State())
	url, name := controller.Connection()
	assert.Equal(t, state.FileURL, url)
	assert.Equal(t, "sales.xlsx", name)
}

func TestConnectUploadRejectsBadExtension(t *testing.T) {
	svc := connection.NewServiceWithStore(connection.NewMemoryStore(), newStubUploader())
	controller := chat.NewController(chat.Config{Dispatcher: &stubDispatcher{}})

	body, contentType := multipartUpload(t, "notes.pdf", "pdf-bytes")
	r := httptest.NewRequest(http.MethodPost, "/v1/connect", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	HandleConnect(svc, controller, w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, chat.StateDisconnected, controller.State())
}

func TestDisconnectClearsStateEvenWithoutUpload(t *testing.T) {
	svc := connection.NewServiceWithStore(connection.NewMemoryStore(), newStubUploader())
	controller := chat.NewController(chat.Config{Dispatcher: &stubDispatcher{}})
	controller.SetConnection("url", "name")

	r := httptest.NewRequest(http.MethodDelete, "/v1/connect", nil)
	w := httptest.NewRecorder()
	HandleConnect(svc, controller, w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, chat.StateDisconnected, controller.State())
}

func TestConnectStateRoundTrip(t *testing.T) {
	uploader := newStubUploader()
	svc := connection.NewServiceWithStore(connection.NewMemoryStore(), uploader)
	controller := chat.NewController(chat.Config{Dispatcher: &stubDispatcher{}})

	body, contentType := multipartUpload(t, "metrics.csv", "a,b")
	r := httptest.NewRequest(http.MethodPost, "/v1/connect", body)
	r.Header.Set("Content-Type", contentType)
	HandleConnect(svc, controller, httptest.NewRecorder(), r)

	r = httptest.NewRequest(http.MethodGet, "/v1/connect", nil)
	w := httptest.NewRecorder()
	HandleConnect(svc, controller, w, r)

	var state connection.State
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	assert.True(t, state.Connected)
	assert.Equal(t, "metrics.csv", state.FileName)
}

func TestChatQueryReturnsReply(t *testing.T) {
	controller := chat.NewController(chat.Config{
		Dispatcher: &stubDispatcher{response: &chatmodels.StructuredResponse{
			Status:  chatmodels.StatusSuccess,
			Summary: "Revenue is up.",
		}},
	})
	controller.SetConnection("url", "name")

	r := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message": "total revenue?"}`))
	w := httptest.NewRecorder()
	HandleChatQuery(controller, w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Revenue is up.", resp.Reply.Content)
	assert.Equal(t, "connected-idle", resp.State)
}

func TestChatQueryEmptyMessageRejected(t *testing.T) {
	controller := chat.NewController(chat.Config{Dispatcher: &stubDispatcher{}})
	controller.SetConnection("url", "name")

	r := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message": "   "}`))
	w := httptest.NewRecorder()
	HandleChatQuery(controller, w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatQueryDisconnectedReturnsNotice(t *testing.T) {
	controller := chat.NewController(chat.Config{Dispatcher: &stubDispatcher{err: errors.New("must not be called")}})

	r := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message": "hello"}`))
	w := httptest.NewRecorder()
	HandleChatQuery(controller, w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, chat.NoticeConnectFirst, resp.Reply.Content)
}

func TestChatMessagesListsTranscript(t *testing.T) {
	controller := chat.NewController(chat.Config{Dispatcher: &stubDispatcher{}})

	r := httptest.NewRequest(http.MethodGet, "/v1/chat/messages", nil)
	w := httptest.NewRecorder()
	HandleChatMessages(controller, w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages []chatmodels.Message `json:"messages"`
		State    string               `json:"state"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, chat.WelcomeMessage, resp.Messages[0].Content)
	assert.Equal(t, "disconnected", resp.State)
}
