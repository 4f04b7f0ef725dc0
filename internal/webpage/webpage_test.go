package webpage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestGet_TruncatesBodyAtCap(t *testing.T) {
	page := `<html><body><div id="entrybody">夢見蛇</div><p>` +
		strings.Repeat("x", MaxBodyBytes+1024) +
		`</p><div id="tail">不會讀到</div></body></html>`
	url := serve(t, http.StatusOK, page)

	doc, err := New(5*time.Second, "").Get(context.Background(), url)
	require.NoError(t, err)

	head := FindByID(doc, "div", "entrybody")
	require.NotNil(t, head)
	assert.Equal(t, "夢見蛇", Text(head, "\n"))
	assert.Nil(t, FindByID(doc, "div", "tail"), "content past the cap must not be parsed")
}

func TestGet_SendsUserAgentAndRejectsNon200(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	_, err := New(time.Second, "dream-test").Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "dream-test", ua)

	_, err = New(time.Second, "").Get(context.Background(), serve(t, http.StatusNotFound, "gone"))
	assert.True(t, errors.Is(err, ErrStatus))
}

func TestText_SkipsScriptAndStyle(t *testing.T) {
	doc := parse(t, `<div id="x">
		<p> 第一段 </p>
		<style>.a{color:red}</style>
		<p>  </p>
		<script>alert(1)</script>
		<p>第二段<b>重點</b></p>
	</div>`)

	assert.Equal(t, "第一段|第二段|重點", Text(FindByID(doc, "div", "x"), "|"))
}

func TestFindByID_FirstMatchDepthFirst(t *testing.T) {
	doc := parse(t, `<div id="outer"><section><div id="dup">inner</div></section></div><div id="dup">later</div>`)

	n := FindByID(doc, "div", "dup")
	require.NotNil(t, n)
	assert.Equal(t, "inner", Text(n, ""))
	assert.Nil(t, FindByID(doc, "span", "dup"), "tag must match as well as id")
	assert.Equal(t, "outer", Attr(FindByID(doc, "div", "outer"), "id"))
	assert.Equal(t, "", Attr(n, "class"))
}
