package webdav

import (
	"fmt"
	"io"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"davd/internal/server/config"
	"davd/internal/server/lock"
	"davd/internal/server/props"
	"davd/internal/server/provider"
	"davd/internal/server/share"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler *Handler
	share   *share.Share
	user    *share.User
}

func newTestEnv(t *testing.T, c config.Webdav) *testEnv {
	t.Helper()
	locks := lock.NewManager()
	pm := &props.Manager{Store: props.NewMemStore(), Locks: locks}
	sh := &share.Share{
		Prefix:   "/share",
		Provider: provider.NewMemFS(),
		Users:    map[string]*share.User{},
	}
	return &testEnv{
		handler: NewHandler(c, locks, pm),
		share:   sh,
		user:    &share.User{Name: "alice"},
	}
}

func (e *testEnv) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "http://dav.test"+path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body == "" {
		req.ContentLength = 0
	}
	rel, _ := stripSharePrefix(req.URL.Path, e.share.Prefix)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req, e.share, rel, e.user)
	return rec
}

const lockBodyExclusive = `<?xml version="1.0" encoding="utf-8"?>` +
	`<D:lockinfo xmlns:D="DAV:">` +
	`<D:lockscope><D:exclusive/></D:lockscope>` +
	`<D:locktype><D:write/></D:locktype>` +
	`<D:owner><D:href>alice</D:href></D:owner>` +
	`</D:lockinfo>`

const lockBodyShared = `<?xml version="1.0" encoding="utf-8"?>` +
	`<D:lockinfo xmlns:D="DAV:">` +
	`<D:lockscope><D:shared/></D:lockscope>` +
	`<D:locktype><D:write/></D:locktype>` +
	`<D:owner/>` +
	`</D:lockinfo>`

var lockTokenRe = regexp.MustCompile(`opaquelocktoken:[0-9a-f-]+`)

func lockResource(t *testing.T, e *testEnv, path, body string) string {
	t.Helper()
	rec := e.do("LOCK", path, body, map[string]string{"Timeout": "Second-600"})
	require.Contains(t, []int{200, 201}, rec.Code, "LOCK %s: %s", path, rec.Body.String())
	token := strings.Trim(rec.Header().Get("Lock-Token"), "<>")
	require.NotEmpty(t, token)
	require.Contains(t, rec.Body.String(), token)
	return token
}

func TestPutGetRoundTrip(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})

	rec := e.do("PUT", "/share/f.txt", "hello", nil)
	assert.Equal(t, 201, rec.Code)
	etag := rec.Header().Get("ETag")
	assert.NotEmpty(t, etag)

	rec = e.do("GET", "/share/f.txt", "", nil)
	assert.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, etag, rec.Header().Get("ETag"))
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))

	rec = e.do("PUT", "/share/f.txt", "rewritten", nil)
	assert.Equal(t, 204, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestGetMissing(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	rec := e.do("GET", "/share/nope", "", nil)
	assert.Equal(t, 404, rec.Code)
}

func TestOptions(t *testing.T) {
	e := newTestEnv(t, config.Webdav{MsAuthorVia: true})

	rec := e.do("OPTIONS", "/share/", "", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "1, 2", rec.Header().Get("DAV"))
	assert.Equal(t, "DAV", rec.Header().Get("MS-Author-Via"))
	assert.Contains(t, rec.Header().Get("Allow"), "PROPFIND")
	assert.Contains(t, rec.Header().Get("Allow"), "MKCOL")
	assert.NotContains(t, rec.Header().Get("Allow"), "PUT")

	// unmapped URL advertises creation methods only
	rec = e.do("OPTIONS", "/share/nope", "", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), "PUT")
	assert.NotContains(t, rec.Header().Get("Allow"), "DELETE")
}

func TestMkcol(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})

	assert.Equal(t, 201, e.do("MKCOL", "/share/dir", "", nil).Code)
	assert.Equal(t, 405, e.do("MKCOL", "/share/dir", "", nil).Code)
	assert.Equal(t, 409, e.do("MKCOL", "/share/a/b", "", nil).Code)
	assert.Equal(t, 415, e.do("MKCOL", "/share/other", "<x/>", nil).Code)
}

func TestReadOnlyUser(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "x", nil)
	e.user.ReadOnly = true

	assert.Equal(t, 200, e.do("GET", "/share/f.txt", "", nil).Code)
	assert.Equal(t, 403, e.do("PUT", "/share/g.txt", "x", nil).Code)
	assert.Equal(t, 403, e.do("DELETE", "/share/f.txt", "", nil).Code)
	assert.Equal(t, 403, e.do("LOCK", "/share/f.txt", lockBodyExclusive, nil).Code)
	rec := e.do("OPTIONS", "/share/f.txt", "", nil)
	assert.Equal(t, 200, rec.Code)
	assert.NotContains(t, rec.Header().Get("Allow"), "PUT")
}

func TestLockBlocksUnlockedWrites(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "v1", nil)

	token := lockResource(t, e, "/share/f.txt", lockBodyExclusive)

	assert.Equal(t, 423, e.do("PUT", "/share/f.txt", "v2", nil).Code)
	assert.Equal(t, 423, e.do("DELETE", "/share/f.txt", "", nil).Code)

	rec := e.do("PUT", "/share/f.txt", "v2", map[string]string{
		"If": "(<" + token + ">)",
	})
	assert.Equal(t, 204, rec.Code)

	// wrong token in the If header is a failed precondition
	rec = e.do("PUT", "/share/f.txt", "v3", map[string]string{
		"If": "(<opaquelocktoken:00000000-0000-0000-0000-000000000000>)",
	})
	assert.Equal(t, 412, rec.Code)
}

func TestUnlock(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "v1", nil)
	token := lockResource(t, e, "/share/f.txt", lockBodyExclusive)

	assert.Equal(t, 400, e.do("UNLOCK", "/share/f.txt", "", nil).Code)
	assert.Equal(t, 409, e.do("UNLOCK", "/share/f.txt", "", map[string]string{
		"Lock-Token": "<opaquelocktoken:00000000-0000-0000-0000-000000000000>",
	}).Code)
	assert.Equal(t, 204, e.do("UNLOCK", "/share/f.txt", "", map[string]string{
		"Lock-Token": "<" + token + ">",
	}).Code)

	assert.Equal(t, 204, e.do("PUT", "/share/f.txt", "v2", nil).Code)
}

func TestSharedLocksGrantDistinctTokens(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "v1", nil)

	t1 := lockResource(t, e, "/share/f.txt", lockBodyShared)
	t2 := lockResource(t, e, "/share/f.txt", lockBodyShared)
	assert.NotEqual(t, t1, t2)

	assert.Equal(t, 423, e.do("LOCK", "/share/f.txt", lockBodyExclusive, nil).Code)
}

func TestLockUnmappedUrlCreatesResource(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})

	rec := e.do("LOCK", "/share/new.txt", lockBodyExclusive, nil)
	assert.Equal(t, 201, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Lock-Token"))

	fi, err := e.share.Provider.Stat("/new.txt")
	require.NoError(t, err)
	assert.Zero(t, fi.Size)
}

func TestLockRefresh(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "v1", nil)
	token := lockResource(t, e, "/share/f.txt", lockBodyExclusive)

	rec := e.do("LOCK", "/share/f.txt", "", map[string]string{
		"If":      "(<" + token + ">)",
		"Timeout": "Second-1200",
	})
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), token)
	assert.Contains(t, rec.Body.String(), "Second-1200")
}

func TestDepthInfinityLockCoversChildren(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("MKCOL", "/share/dir", "", nil)

	rec := e.do("LOCK", "/share/dir", lockBodyExclusive, map[string]string{"Depth": "infinity"})
	require.Equal(t, 200, rec.Code)
	token := lockTokenRe.FindString(rec.Body.String())
	require.NotEmpty(t, token)

	assert.Equal(t, 423, e.do("PUT", "/share/dir/f.txt", "x", nil).Code)
	rec = e.do("PUT", "/share/dir/f.txt", "x", map[string]string{"If": "(<" + token + ">)"})
	assert.Equal(t, 201, rec.Code)
}

func TestIfMatchPrecondition(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	rec := e.do("PUT", "/share/f.txt", "v1", nil)
	etag := rec.Header().Get("ETag")

	assert.Equal(t, 204, e.do("PUT", "/share/f.txt", "v2", map[string]string{"If-Match": etag}).Code)
	assert.Equal(t, 412, e.do("PUT", "/share/f.txt", "v3", map[string]string{"If-Match": etag}).Code)
	assert.Equal(t, 412, e.do("PUT", "/share/nope.txt", "x", map[string]string{"If-Match": "*"}).Code)
	assert.Equal(t, 412, e.do("PUT", "/share/f.txt", "v3", map[string]string{"If-None-Match": "*"}).Code)
}

func TestDeleteCollection(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("MKCOL", "/share/dir", "", nil)
	e.do("PUT", "/share/dir/f.txt", "x", nil)

	assert.Equal(t, 204, e.do("DELETE", "/share/dir", "", nil).Code)
	assert.Equal(t, 404, e.do("GET", "/share/dir/f.txt", "", nil).Code)
}

func TestDeleteReleasesLocksAndProps(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "x", nil)
	token := lockResource(t, e, "/share/f.txt", lockBodyExclusive)

	rec := e.do("DELETE", "/share/f.txt", "", map[string]string{"If": "(<" + token + ">)"})
	assert.Equal(t, 204, rec.Code)

	// lock is gone with the resource; a new one is granted freely
	e.do("PUT", "/share/f.txt", "x", nil)
	lockResource(t, e, "/share/f.txt", lockBodyExclusive)
}

func TestCopyFile(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/src.txt", "payload", nil)

	rec := e.do("COPY", "/share/src.txt", "", map[string]string{
		"Destination": "http://dav.test/share/dst.txt",
	})
	assert.Equal(t, 201, rec.Code)

	rec = e.do("GET", "/share/dst.txt", "", nil)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "payload", string(body))
	// source untouched
	assert.Equal(t, 200, e.do("GET", "/share/src.txt", "", nil).Code)
}

func TestCopyOverwrite(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/src.txt", "new", nil)
	e.do("PUT", "/share/dst.txt", "old", nil)

	rec := e.do("COPY", "/share/src.txt", "", map[string]string{
		"Destination": "http://dav.test/share/dst.txt",
		"Overwrite":   "F",
	})
	assert.Equal(t, 412, rec.Code)

	rec = e.do("COPY", "/share/src.txt", "", map[string]string{
		"Destination": "http://dav.test/share/dst.txt",
	})
	assert.Equal(t, 204, rec.Code)
	rec = e.do("GET", "/share/dst.txt", "", nil)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "new", string(body))
}

func TestCopyCollectionDepthZero(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("MKCOL", "/share/dir", "", nil)
	e.do("PUT", "/share/dir/f.txt", "x", nil)

	rec := e.do("COPY", "/share/dir", "", map[string]string{
		"Destination": "http://dav.test/share/copy",
		"Depth":       "0",
	})
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, 404, e.do("GET", "/share/copy/f.txt", "", nil).Code)

	rec = e.do("COPY", "/share/dir", "", map[string]string{
		"Destination": "http://dav.test/share/full",
	})
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, 200, e.do("GET", "/share/full/f.txt", "", nil).Code)
}

func TestMove(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("MKCOL", "/share/dir", "", nil)
	e.do("PUT", "/share/dir/f.txt", "x", nil)

	rec := e.do("MOVE", "/share/dir", "", map[string]string{
		"Destination": "http://dav.test/share/moved",
	})
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, 404, e.do("GET", "/share/dir/f.txt", "", nil).Code)
	assert.Equal(t, 200, e.do("GET", "/share/moved/f.txt", "", nil).Code)
}

func TestMoveReleasesSourceLocks(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "x", nil)
	token := lockResource(t, e, "/share/f.txt", lockBodyExclusive)

	rec := e.do("MOVE", "/share/f.txt", "", map[string]string{
		"Destination": "http://dav.test/share/g.txt",
		"If":          "(<" + token + ">)",
	})
	assert.Equal(t, 201, rec.Code)

	// the moved resource is not lock protected anymore
	assert.Equal(t, 204, e.do("PUT", "/share/g.txt", "y", nil).Code)
}

func TestCopyMoveDestinationErrors(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "x", nil)

	assert.Equal(t, 400, e.do("COPY", "/share/f.txt", "", nil).Code)
	assert.Equal(t, 502, e.do("COPY", "/share/f.txt", "", map[string]string{
		"Destination": "http://other.host/share/g.txt",
	}).Code)
	assert.Equal(t, 502, e.do("COPY", "/share/f.txt", "", map[string]string{
		"Destination": "http://dav.test/outside/g.txt",
	}).Code)
	assert.Equal(t, 403, e.do("COPY", "/share/f.txt", "", map[string]string{
		"Destination": "http://dav.test/share/f.txt",
	}).Code)
	// MOVE is whole-tree only
	e.do("MKCOL", "/share/dir", "", nil)
	assert.Equal(t, 400, e.do("MOVE", "/share/dir", "", map[string]string{
		"Destination": "http://dav.test/share/dst",
		"Depth":       "0",
	}).Code)
}

var hrefRe = regexp.MustCompile(`<D:href>([^<]*)</D:href>`)

func responseHrefs(body string) []string {
	var out []string
	for _, m := range hrefRe.FindAllStringSubmatch(body, -1) {
		out = append(out, m[1])
	}
	return out
}

func TestPropfindPreOrder(t *testing.T) {
	e := newTestEnv(t, config.Webdav{AllowPropfindInfDepth: true})
	e.do("MKCOL", "/share/A", "", nil)
	e.do("PUT", "/share/A/file1", "1", nil)
	e.do("MKCOL", "/share/A/subdir", "", nil)
	e.do("PUT", "/share/A/subdir/file2", "2", nil)

	rec := e.do("PROPFIND", "/share/A", "", map[string]string{"Depth": "infinity"})
	require.Equal(t, 207, rec.Code)
	assert.Equal(t, []string{
		"/share/A",
		"/share/A/file1",
		"/share/A/subdir",
		"/share/A/subdir/file2",
	}, responseHrefs(rec.Body.String()))

	rec = e.do("PROPFIND", "/share/A", "", map[string]string{"Depth": "1"})
	require.Equal(t, 207, rec.Code)
	assert.Equal(t, []string{
		"/share/A",
		"/share/A/file1",
		"/share/A/subdir",
	}, responseHrefs(rec.Body.String()))

	rec = e.do("PROPFIND", "/share/A", "", map[string]string{"Depth": "0"})
	require.Equal(t, 207, rec.Code)
	assert.Equal(t, []string{"/share/A"}, responseHrefs(rec.Body.String()))
}

func TestPropfindInfiniteDepthRefused(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("MKCOL", "/share/A", "", nil)

	rec := e.do("PROPFIND", "/share/A", "", map[string]string{"Depth": "infinity"})
	assert.Equal(t, 403, rec.Code)
	assert.Contains(t, rec.Body.String(), "propfind-finite-depth")
}

func TestPropfindAllprop(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "hello", nil)

	rec := e.do("PROPFIND", "/share/f.txt", "", map[string]string{"Depth": "0"})
	require.Equal(t, 207, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "getcontentlength")
	assert.Contains(t, body, ">5<")
	assert.Contains(t, body, "getetag")
	assert.Contains(t, body, "supportedlock")
}

func TestPropfindNamed(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "hello", nil)

	reqBody := `<?xml version="1.0"?><D:propfind xmlns:D="DAV:"><D:prop>` +
		`<D:getcontentlength/><D:missingprop/></D:prop></D:propfind>`
	rec := e.do("PROPFIND", "/share/f.txt", reqBody, map[string]string{"Depth": "0"})
	require.Equal(t, 207, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "200 OK")
	assert.Contains(t, body, "404 Not Found")
	assert.Contains(t, body, "missingprop")
}

func TestPropfindPropname(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "hello", nil)

	reqBody := `<?xml version="1.0"?><D:propfind xmlns:D="DAV:"><D:propname/></D:propfind>`
	rec := e.do("PROPFIND", "/share/f.txt", reqBody, map[string]string{"Depth": "0"})
	require.Equal(t, 207, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<D:getetag/>")
	// names only, no values
	assert.NotContains(t, body, ">5<")
}

func TestProppatchIndependentApplication(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "x", nil)

	reqBody := `<?xml version="1.0"?>` +
		`<D:propertyupdate xmlns:D="DAV:" xmlns:Z="urn:example">` +
		`<D:set><D:prop><Z:color>blue</Z:color></D:prop></D:set>` +
		`<D:set><D:prop><D:getetag>forged</D:getetag></D:prop></D:set>` +
		`</D:propertyupdate>`
	rec := e.do("PROPPATCH", "/share/f.txt", reqBody, nil)
	require.Equal(t, 207, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "200 OK")
	assert.Contains(t, body, "403 Forbidden")
	assert.Contains(t, body, "cannot-modify-protected-property")

	// the allowed set took effect even though another one failed
	reqBody = `<?xml version="1.0"?><D:propfind xmlns:D="DAV:" xmlns:Z="urn:example">` +
		`<D:prop><Z:color/></D:prop></D:propfind>`
	rec = e.do("PROPFIND", "/share/f.txt", reqBody, map[string]string{"Depth": "0"})
	assert.Contains(t, rec.Body.String(), "blue")
}

func TestProppatchRemove(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "x", nil)

	set := `<?xml version="1.0"?><D:propertyupdate xmlns:D="DAV:" xmlns:Z="urn:example">` +
		`<D:set><D:prop><Z:color>red</Z:color></D:prop></D:set></D:propertyupdate>`
	require.Equal(t, 207, e.do("PROPPATCH", "/share/f.txt", set, nil).Code)

	remove := `<?xml version="1.0"?><D:propertyupdate xmlns:D="DAV:" xmlns:Z="urn:example">` +
		`<D:remove><D:prop><Z:color/></D:prop></D:remove></D:propertyupdate>`
	require.Equal(t, 207, e.do("PROPPATCH", "/share/f.txt", remove, nil).Code)

	query := `<?xml version="1.0"?><D:propfind xmlns:D="DAV:" xmlns:Z="urn:example">` +
		`<D:prop><Z:color/></D:prop></D:propfind>`
	rec := e.do("PROPFIND", "/share/f.txt", query, map[string]string{"Depth": "0"})
	assert.Contains(t, rec.Body.String(), "404 Not Found")
}

func TestCopyCarriesDeadProperties(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/src.txt", "x", nil)

	set := `<?xml version="1.0"?><D:propertyupdate xmlns:D="DAV:" xmlns:Z="urn:example">` +
		`<D:set><D:prop><Z:color>green</Z:color></D:prop></D:set></D:propertyupdate>`
	require.Equal(t, 207, e.do("PROPPATCH", "/share/src.txt", set, nil).Code)

	require.Equal(t, 201, e.do("COPY", "/share/src.txt", "", map[string]string{
		"Destination": "http://dav.test/share/dst.txt",
	}).Code)

	query := `<?xml version="1.0"?><D:propfind xmlns:D="DAV:" xmlns:Z="urn:example">` +
		`<D:prop><Z:color/></D:prop></D:propfind>`
	rec := e.do("PROPFIND", "/share/dst.txt", query, map[string]string{"Depth": "0"})
	assert.Contains(t, rec.Body.String(), "green")
}

func TestLockdiscoveryThroughPropfind(t *testing.T) {
	e := newTestEnv(t, config.Webdav{})
	e.do("PUT", "/share/f.txt", "x", nil)
	token := lockResource(t, e, "/share/f.txt", lockBodyExclusive)

	query := `<?xml version="1.0"?><D:propfind xmlns:D="DAV:">` +
		`<D:prop><D:lockdiscovery/></D:prop></D:propfind>`
	rec := e.do("PROPFIND", "/share/f.txt", query, map[string]string{"Depth": "0"})
	require.Equal(t, 207, rec.Code)
	assert.Contains(t, rec.Body.String(), token)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("<D:depth>%s</D:depth>", "infinity"))
}

func TestDavmountExposed(t *testing.T) {
	e := newTestEnv(t, config.Webdav{ExposeDavmount: true})
	e.do("PUT", "/share/f.txt", "x", nil)

	rec := e.do("GET", "/share/f.txt?davmount", "", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/davmount+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "http://dav.test/share/f.txt")

	e2 := newTestEnv(t, config.Webdav{})
	e2.do("PUT", "/share/f.txt", "x", nil)
	rec = e2.do("GET", "/share/f.txt?davmount", "", nil)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}

func TestContentTypeProbe(t *testing.T) {
	e := newTestEnv(t, config.Webdav{EnableContentTypeProbe: true})
	e.do("PUT", "/share/page.html", "<html><body>x</body></html>", nil)

	rec := e.do("GET", "/share/page.html", "", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
