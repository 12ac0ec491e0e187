package feishu_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wwwbq/FlashMemo/pkg/codec"
)

type fakeFolder struct {
	name   string
	parent string
}

type fakeDoc struct {
	name     string
	folder   string
	modified int64
	blocks   []codec.Block
}

// fakeFeishu is an in-memory stand-in for the drive and docx APIs.
type fakeFeishu struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	seq         int
	tokens      map[string]bool
	folders     map[string]fakeFolder
	docs        map[string]*fakeDoc
	failFolders map[string]bool // folder names whose documents reject blocks
	pageSize    int             // forces pagination when > 0
	tokenCalls  int

	fetchDelay  atomic.Int64
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	blockCalls  atomic.Int32
}

const fakeRoot = "fld-root"

func newFakeFeishu(t *testing.T) *fakeFeishu {
	t.Helper()
	f := &fakeFeishu{
		t:           t,
		tokens:      make(map[string]bool),
		folders:     make(map[string]fakeFolder),
		docs:        make(map[string]*fakeDoc),
		failFolders: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v3/tenant_access_token/internal", f.handleToken)
	mux.HandleFunc("GET /drive/v1/files", f.authed(f.handleList))
	mux.HandleFunc("POST /drive/v1/files/create_folder", f.authed(f.handleCreateFolder))
	mux.HandleFunc("DELETE /drive/v1/files/{token}", f.authed(f.handleDelete))
	mux.HandleFunc("POST /docx/v1/documents", f.authed(f.handleCreateDoc))
	mux.HandleFunc("POST /docx/v1/documents/{doc}/blocks/{block}/children", f.authed(f.handleAppend))
	mux.HandleFunc("GET /docx/v1/documents/{doc}/blocks", f.authed(f.handleBlocks))

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeFeishu) URL() string { return f.srv.URL }

func (f *fakeFeishu) nextID(prefix string) string {
	f.seq++
	return prefix + strconv.Itoa(f.seq)
}

func reply(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"code": code, "msg": "fake"}
	if data != nil {
		body["data"] = data
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeFeishu) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		ok := f.tokens[token]
		f.mu.Unlock()
		if !ok {
			reply(w, 99991663, nil)
			return
		}
		next(w, r)
	}
}

func (f *fakeFeishu) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppID     string `json:"app_id"`
		AppSecret string `json:"app_secret"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	if req.AppSecret != "secret" {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 10014, "msg": "app secret invalid"})
		return
	}
	token := f.nextID("t-")
	f.tokens[token] = true
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code": 0, "msg": "ok", "tenant_access_token": token, "expire": 7200,
	})
}

func (f *fakeFeishu) handleList(w http.ResponseWriter, r *http.Request) {
	parent := r.URL.Query().Get("folder_token")

	f.mu.Lock()
	var files []map[string]string
	for token, fld := range f.folders {
		if fld.parent == parent {
			files = append(files, map[string]string{"token": token, "name": fld.name, "type": "folder"})
		}
	}
	for token, d := range f.docs {
		if d.folder == parent {
			files = append(files, map[string]string{
				"token": token, "name": d.name, "type": "docx",
				"modified_time": strconv.FormatInt(d.modified, 10),
			})
		}
	}
	pageSize := f.pageSize
	f.mu.Unlock()

	sortFiles(files)
	start, _ := strconv.Atoi(r.URL.Query().Get("page_token"))
	end := len(files)
	if pageSize > 0 {
		end = min(start+pageSize, len(files))
	}
	data := map[string]any{"files": files[start:end], "has_more": end < len(files)}
	if end < len(files) {
		data["next_page_token"] = strconv.Itoa(end)
	}
	reply(w, 0, data)
}

func sortFiles(files []map[string]string) {
	for i := 1; i < len(files); i++ {
		for j := i; j > 0 && files[j]["token"] < files[j-1]["token"]; j-- {
			files[j], files[j-1] = files[j-1], files[j]
		}
	}
}

func (f *fakeFeishu) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		FolderToken string `json:"folder_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	token := f.nextID("fld-")
	f.folders[token] = fakeFolder{name: req.Name, parent: req.FolderToken}
	f.mu.Unlock()
	reply(w, 0, map[string]string{"token": token})
}

func (f *fakeFeishu) handleCreateDoc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderToken string `json:"folder_token"`
		Title       string `json:"title"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	token := f.nextID("doc-")
	f.docs[token] = &fakeDoc{name: req.Title, folder: req.FolderToken, modified: time.Now().Unix()}
	f.mu.Unlock()
	reply(w, 0, map[string]any{"document": map[string]string{"document_id": token}})
}

func (f *fakeFeishu) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Children []codec.Block `json:"children"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reply(w, 1770001, nil)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[r.PathValue("doc")]
	if !ok {
		reply(w, 1770002, nil)
		return
	}
	if f.failFolders[f.folders[d.folder].name] {
		reply(w, 1770001, nil)
		return
	}
	d.blocks = append(d.blocks, req.Children...)
	reply(w, 0, map[string]any{"children": req.Children})
}

func (f *fakeFeishu) handleBlocks(w http.ResponseWriter, r *http.Request) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	f.blockCalls.Add(1)
	if d := time.Duration(f.fetchDelay.Load()); d > 0 {
		time.Sleep(d)
	}

	docID := r.PathValue("doc")
	f.mu.Lock()
	d, ok := f.docs[docID]
	var items []codec.Block
	if ok {
		items = append([]codec.Block{{BlockID: docID, BlockType: codec.BlockPage}}, d.blocks...)
	}
	f.mu.Unlock()

	if !ok {
		reply(w, 1770002, nil)
		return
	}
	reply(w, 0, map[string]any{"items": items, "has_more": false})
}

func (f *fakeFeishu) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := r.PathValue("token")
	if _, ok := f.docs[token]; !ok {
		reply(w, 1061007, nil)
		return
	}
	delete(f.docs, token)
	reply(w, 0, map[string]any{})
}

// addFolder creates a tag folder under the root directly.
func (f *fakeFeishu) addFolder(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := f.nextID("fld-")
	f.folders[token] = fakeFolder{name: name, parent: fakeRoot}
	return token
}

// addDoc creates a document directly, bypassing the store's layout.
func (f *fakeFeishu) addDoc(folder, name string, blocks ...codec.Block) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := f.nextID("doc-")
	f.docs[token] = &fakeDoc{name: name, folder: folder, modified: time.Now().Unix(), blocks: blocks}
	return token
}

// addDocAt is addDoc with an explicit modification time.
func (f *fakeFeishu) addDocAt(folder, name string, modified int64, blocks ...codec.Block) string {
	token := f.addDoc(folder, name, blocks...)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[token].modified = modified
	return token
}

// docsIn counts the documents inside the folder named name.
func (f *fakeFeishu) docsIn(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, d := range f.docs {
		if f.folders[d.folder].name == name {
			count++
		}
	}
	return count
}

func (f *fakeFeishu) failFolder(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFolders[name] = true
}

func (f *fakeFeishu) setPageSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = n
}
