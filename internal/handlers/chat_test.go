package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/docchat/internal/chat"
	"github.com/memohai/docchat/internal/convert"
	"github.com/memohai/docchat/internal/convert/converttest"
	"github.com/memohai/docchat/internal/dataurl"
)

func chatBody(t *testing.T, msgs ...chat.Message) string {
	t.Helper()
	data, err := json.Marshal(chat.ChatRequest{Messages: msgs})
	require.NoError(t, err)
	return string(data)
}

func TestStreamChat(t *testing.T) {
	t.Parallel()

	p := &stubProvider{chunks: []string{"Hel", "lo"}}
	e := newTestEcho(t, p)

	rec := doJSON(e, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `data: {"delta":{"content":"Hel"}}`)
	assert.Contains(t, body, `data: {"delta":{"content":"lo"}}`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
	assert.Equal(t, "test-model", p.got.Model)
	assert.Equal(t, "be brief", p.got.System)
}

func TestStreamChatConvertsPDF(t *testing.T) {
	t.Parallel()

	p := &stubProvider{chunks: []string{"ok"}}
	e := newTestEcho(t, p)

	pdf := dataurl.Encode(converttest.PDF(t, "Hello"), "application/pdf")
	body := fmt.Sprintf(`{"messages":[{"role":"user","content":"read","experimental_attachments":[{"name":"a.pdf","contentType":"application/pdf","url":%q}]}]}`, pdf)

	rec := doJSON(e, http.MethodPost, "/api/chat", body)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, p.got.Messages, 1)
	require.Len(t, p.got.Messages[0].Attachments, 1)
	att := p.got.Messages[0].Attachments[0]
	assert.Equal(t, "a.pdf", att.Name)
	assert.Equal(t, "text/xml", att.ContentType)

	raw, err := dataurl.Decode(att.URL)
	require.NoError(t, err)
	doc, err := convert.ParseXML(raw)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", doc.Filename)
	assert.Contains(t, doc.Content, "Hello")
}

func TestStreamChatUpstreamError(t *testing.T) {
	t.Parallel()

	p := &stubProvider{chunks: []string{"partial"}, err: fmt.Errorf("%w: boom", chat.ErrUpstream)}
	e := newTestEcho(t, p)

	rec := doJSON(e, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `data: {"delta":{"content":"partial"}}`)
	assert.Contains(t, body, `data: {"error":"upstream completion failure: boom"}`)
	assert.NotContains(t, body, "[DONE]")
}

func TestChatRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantPrefix string
	}{
		{
			name:       "invalid json",
			body:       `{"messages":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no messages",
			body:       `{"messages":[]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad role",
			body:       `{"messages":[{"role":"robot","content":"hi"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "attachment without url",
			body:       `{"messages":[{"role":"user","attachments":[{"name":"a.pdf","contentType":"application/pdf"}]}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed data url",
			body:       `{"messages":[{"role":"user","attachments":[{"name":"a.pdf","contentType":"application/pdf","url":"not-a-data-url"}]}]}`,
			wantStatus: http.StatusBadRequest,
			wantPrefix: "attachment could not be processed: ",
		},
		{
			name:       "not a pdf",
			body:       `{"messages":[{"role":"user","attachments":[{"name":"a.pdf","contentType":"application/pdf","url":"data:application/pdf;base64,aGVsbG8="}]}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantPrefix: "attachment could not be processed: ",
		},
		{
			name:       "unsupported attachment",
			body:       `{"messages":[{"role":"user","attachments":[{"name":"a.zip","contentType":"application/zip","url":"data:application/zip;base64,aGVsbG8="}]}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantPrefix: "attachment could not be processed: ",
		},
	}

	for _, tc := range cases {
		for _, path := range []string{"/api/chat", "/api/chat/complete"} {
			t.Run(tc.name+" "+path, func(t *testing.T) {
				t.Parallel()

				p := &stubProvider{chunks: []string{"never"}}
				rec := doJSON(newTestEcho(t, p), http.MethodPost, path, tc.body)
				require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
				assert.Empty(t, p.got.Messages, "provider must not be called")

				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Message)
				if tc.wantPrefix != "" {
					assert.True(t, strings.HasPrefix(resp.Message, tc.wantPrefix), resp.Message)
				}
			})
		}
	}
}

func TestChatComplete(t *testing.T) {
	t.Parallel()

	p := &stubProvider{chunks: []string{"Hello", " there"}}
	e := newTestEcho(t, p)

	rec := doJSON(e, http.MethodPost, "/api/chat/complete", chatBody(t, chat.Message{Role: chat.RoleUser, Content: "hi"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chat.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, chat.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "Hello there", resp.Message.Content)
	assert.Equal(t, "test-model", resp.Model)
}

func TestChatCompleteUpstreamError(t *testing.T) {
	t.Parallel()

	p := &stubProvider{err: fmt.Errorf("%w: status 500", chat.ErrUpstream)}
	rec := doJSON(newTestEcho(t, p), http.MethodPost, "/api/chat/complete", `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
