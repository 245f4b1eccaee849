package stub_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/api"
	"docchat/internal/stub"
)

// The stub is tested through the real client so the two stay honest about
// the shared wire contract.
func newStubClient(t *testing.T) (*api.Client, *stub.Server) {
	t.Helper()
	srv := stub.NewServer(stub.Config{})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return api.NewClient(ts.URL), srv
}

func TestStatus_ReflectsDocumentState(t *testing.T) {
	client, _ := newStubClient(t)

	st, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.GeneralReady())
	assert.False(t, st.DocumentReady())
	assert.False(t, st.PDFLoaded)
	assert.Equal(t, "No PDF loaded", st.PDFChat)
}

func TestGeneralChat_EchoesMessage(t *testing.T) {
	client, _ := newStubClient(t)

	reply, err := client.GeneralChat(context.Background(), "hello", []api.HistoryItem{
		{Role: "user", Content: "earlier"},
		{Role: "assistant", Content: "noted"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Response, `"hello"`)
	assert.Contains(t, reply.Response, "2 prior turns")
}

func TestDocumentChat_RequiresUpload(t *testing.T) {
	client, srv := newStubClient(t)

	_, err := client.DocumentChat(context.Background(), "what is this about?")
	apiErr := api.AsError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, api.KindBackend, apiErr.Kind)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "No PDF loaded")
	assert.False(t, srv.Loaded())
}

func TestUpload_ThenDocumentChat(t *testing.T) {
	client, srv := newStubClient(t)
	ctx := context.Background()

	ack, err := client.UploadPDF(ctx, "paper.pdf", strings.NewReader("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Contains(t, ack.Message, "paper.pdf")
	assert.True(t, srv.Loaded())

	st, err := client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.PDFLoaded)
	assert.True(t, st.DocumentReady())

	reply, err := client.DocumentChat(ctx, "summarize")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Response)
	require.Len(t, reply.Sources, 2)
	assert.Contains(t, reply.Sources[0], "paper.pdf")
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	client, srv := newStubClient(t)

	_, err := client.UploadPDF(context.Background(), "notes.txt", strings.NewReader("plain text"))
	apiErr := api.AsError(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, api.KindBackend, apiErr.Kind)
	assert.Equal(t, "Only PDF files are allowed", apiErr.Detail)
	assert.False(t, srv.Loaded())
}

func TestUpload_MissingFileField(t *testing.T) {
	srv := stub.NewServer(stub.Config{})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("wrong", "value"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/upload-pdf", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClear_UnloadsDocument(t *testing.T) {
	client, srv := newStubClient(t)
	ctx := context.Background()

	_, err := client.UploadPDF(ctx, "paper.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.True(t, srv.Loaded())

	ack, err := client.ClearPDF(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PDF cleared successfully", ack.Message)
	assert.False(t, srv.Loaded())
}

func TestHealthAndRoot(t *testing.T) {
	client, _ := newStubClient(t)
	ctx := context.Background()

	h, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)

	root, err := client.Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Chatbot API is running", root.Message)
}
