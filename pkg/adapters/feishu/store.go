package feishu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wwwbq/FlashMemo/pkg/codec"
	"github.com/wwwbq/FlashMemo/pkg/core"
)

// Defaults applied by New.
const (
	DefaultWorkers   = 8
	DefaultCacheSize = 256
	DefaultRateLimit = 50 // requests per second
	DefaultTimeout   = 30 * time.Second
)

// Config holds the configuration for the remote block store.
type Config struct {
	AppID     string
	AppSecret string
	RootToken string // folder holding one sub-folder per tag

	BaseURL    string
	HTTPClient *http.Client
	RateLimit  float64 // requests per second, shared by all calls
	Burst      int
	Workers    int // concurrent document fetches in Load
	CacheSize  int // parsed documents kept in memory

	Policy core.SuccessPolicy
	Logger *slog.Logger
}

// cachedDoc is a parsed document remembered by token.
type cachedDoc struct {
	modified string
	note     core.Note
}

// Store persists notes as remote documents, one folder per tag under the
// root folder and one document per note copy.
type Store struct {
	config  Config
	client  *client
	logger  *slog.Logger
	folders *folderCache
	docs    *lru.Cache[string, cachedDoc]

	mu        sync.Mutex
	lastLoad  *time.Time
	fetched   int
	discarded int
}

// New creates a remote store. No request is made until the first call.
func New(cfg Config) (*Store, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, errors.New("feishu: app id and app secret are required")
	}
	if cfg.RootToken == "" {
		return nil, errors.New("feishu: root folder token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.RateLimit))
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Policy == "" {
		cfg.Policy = core.PolicyAny
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	docs, err := lru.New[string, cachedDoc](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("feishu: document cache: %w", err)
	}

	return &Store{
		config: cfg,
		client: &client{
			baseURL: cfg.BaseURL,
			http:    cfg.HTTPClient,
			limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
			tokens: &tokenSource{
				appID:     cfg.AppID,
				appSecret: cfg.AppSecret,
				endpoint:  cfg.BaseURL + tokenPath,
				http:      cfg.HTTPClient,
				logger:    cfg.Logger,
				now:       time.Now,
			},
			logger: cfg.Logger,
		},
		logger:  cfg.Logger,
		folders: newFolderCache(),
		docs:    docs,
	}, nil
}

// GetAllTags implements core.Storage. It is the only call that rebuilds the
// folder cache.
func (s *Store) GetAllTags(ctx context.Context) ([]string, error) {
	files, err := s.listFolder(ctx, s.config.RootToken)
	if err != nil {
		return nil, fmt.Errorf("list tag folders: %w", err)
	}

	byName := make(map[string]string)
	tags := make([]string, 0, len(files))
	for _, f := range files {
		if f.Type != fileTypeFolder {
			continue
		}
		if _, dup := byName[f.Name]; !dup {
			tags = append(tags, f.Name)
		}
		byName[f.Name] = f.Token
	}
	s.folders.replace(byName)

	sort.Strings(tags)
	return tags, nil
}

// folderFor resolves a tag to its folder token, refreshing the cache once on
// a miss. With create set, a missing folder is created.
func (s *Store) folderFor(ctx context.Context, tag string, create bool) (string, error) {
	if token, ok := s.folders.get(tag); ok {
		return token, nil
	}
	if _, err := s.GetAllTags(ctx); err != nil {
		return "", err
	}
	if token, ok := s.folders.get(tag); ok {
		return token, nil
	}
	if !create {
		return "", nil
	}

	token, err := s.createFolder(ctx, tag)
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", tag, err)
	}
	s.folders.put(tag, token)
	s.logger.Debug("tag folder created", "tag", tag, "token", token)
	return token, nil
}

// Save implements core.Storage.
func (s *Store) Save(ctx context.Context, note core.Note) (core.SaveResult, error) {
	note.Prepare()

	blocks, err := buildBlocks(note)
	if err != nil {
		return core.SaveResult{Note: note}, fmt.Errorf("build document: %w", err)
	}

	var outcomes []core.TagOutcome
	for _, tag := range note.TargetTags() {
		token, err := s.saveCopy(ctx, tag, note.Title, blocks)
		if err != nil {
			s.logger.Warn("document not saved", "tag", tag, "id", note.ID, "error", err)
		}
		outcomes = append(outcomes, core.TagOutcome{Tag: tag, Ref: token, Err: err})
	}
	return core.NewSaveResult(withToken(note, outcomes), outcomes, s.config.Policy)
}

// withToken records the first written document in note.Metadata["token"],
// so an Update of the returned note replaces that document.
func withToken(note core.Note, outcomes []core.TagOutcome) core.Note {
	for _, o := range outcomes {
		if o.Err != nil || o.Ref == "" {
			continue
		}
		note.Metadata = note.Metadata.Clone()
		if note.Metadata == nil {
			note.Metadata = core.Metadata{}
		}
		note.Metadata["token"] = o.Ref
		break
	}
	return note
}

func (s *Store) saveCopy(ctx context.Context, tag, title string, blocks []codec.Block) (string, error) {
	folder, err := s.folderFor(ctx, tag, true)
	if err != nil {
		return "", err
	}
	docID, err := s.createDocument(ctx, folder, title)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	if err := s.appendBlocks(ctx, docID, blocks); err != nil {
		// A document without its blocks would load as an empty note.
		if derr := s.deleteDocument(ctx, docID); derr != nil {
			s.logger.Warn("orphan document left behind", "token", docID, "error", derr)
		}
		return "", fmt.Errorf("write blocks: %w", err)
	}
	return docID, nil
}

// Update implements core.Storage. Only one document is replaced: the one
// named by note.Metadata["token"], or by note.ID when no token is recorded.
// Copies under other tags are left alone. The returned note carries the
// token of the replacement, so updates can be chained.
func (s *Store) Update(ctx context.Context, note core.Note) (core.SaveResult, error) {
	handle := documentHandle(note)
	if handle == "" {
		return core.SaveResult{Note: note}, errors.New("feishu: update needs a document token")
	}

	if err := s.deleteDocument(ctx, handle); err != nil {
		s.logger.Warn("update found no prior document, creating", "token", handle, "error", err)
	}
	s.docs.Remove(handle)

	if note.Metadata != nil {
		note.Metadata = note.Metadata.Clone()
		delete(note.Metadata, "token")
	}
	return s.Save(ctx, note)
}

func documentHandle(note core.Note) string {
	if token := note.Metadata.String("token"); token != "" {
		return token
	}
	return note.ID
}

// Load implements core.Storage. Documents are fetched concurrently; those
// that cannot be fetched are skipped.
func (s *Store) Load(ctx context.Context, tag string) ([]core.Note, error) {
	if tag == "" {
		return nil, nil
	}
	folder, err := s.folderFor(ctx, tag, false)
	if err != nil {
		return nil, err
	}
	if folder == "" {
		return nil, nil
	}
	files, err := s.listFolder(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("list folder %q: %w", tag, err)
	}

	docs := documents(files)
	results := make(chan fetchedDoc, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	go func() {
		for _, f := range docs {
			g.Go(func() error {
				note, err := s.fetchDocument(gctx, f)
				if err != nil {
					s.logger.Warn("document skipped", "token", f.Token, "error", err)
					s.countFetch(false)
					return nil
				}
				s.countFetch(true)
				results <- fetchedDoc{note: note, modified: modifiedSeconds(f.ModifiedTime)}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	var fetched []fetchedDoc
	for r := range results {
		if len(r.note.Tags) == 0 {
			r.note.Tags = []string{tag}
		}
		fetched = append(fetched, r)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Copies sharing an id resolve to the most recently modified document.
	sort.SliceStable(fetched, func(i, j int) bool { return fetched[i].modified > fetched[j].modified })
	notes := make([]core.Note, len(fetched))
	for i, r := range fetched {
		notes[i] = r.note
	}

	now := time.Now()
	s.mu.Lock()
	s.lastLoad = &now
	s.mu.Unlock()

	notes = core.DedupByID(notes)
	core.SortByRecency(notes)
	return notes, nil
}

type fetchedDoc struct {
	note     core.Note
	modified int64
}

func modifiedSeconds(s string) int64 {
	sec, _ := strconv.ParseInt(s, 10, 64)
	return sec
}

func documents(files []driveFile) []driveFile {
	docs := make([]driveFile, 0, len(files))
	for _, f := range files {
		if f.Type == fileTypeDocx {
			docs = append(docs, f)
		}
	}
	return docs
}

// fetchDocument returns the parsed document, from the cache when the listed
// modification time has not changed.
func (s *Store) fetchDocument(ctx context.Context, f driveFile) (core.Note, error) {
	if c, ok := s.docs.Get(f.Token); ok && (f.ModifiedTime == "" || c.modified == f.ModifiedTime) {
		return copyNote(c.note), nil
	}

	blocks, err := s.listBlocks(ctx, f.Token)
	if err != nil {
		return core.Note{}, err
	}
	note := decodeDocument(f.Token, f.Name, blocks)
	if note.CreatedAt == "" {
		note.CreatedAt = unixTimestamp(f.ModifiedTime)
	}

	s.docs.Add(f.Token, cachedDoc{modified: f.ModifiedTime, note: copyNote(note)})
	return note, nil
}

func copyNote(n core.Note) core.Note {
	n.Tags = append([]string(nil), n.Tags...)
	n.Metadata = n.Metadata.Clone()
	return n
}

// unixTimestamp formats the drive's modified_time (seconds) with
// core.TimestampLayout, or returns "" when it is not a number.
func unixTimestamp(s string) string {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(core.TimestampLayout)
}

// ListFiles implements core.Storage. The IDs are document tokens.
func (s *Store) ListFiles(ctx context.Context, tag string) ([]core.FileRef, error) {
	folder, err := s.folderFor(ctx, tag, false)
	if err != nil {
		return nil, err
	}
	if folder == "" {
		return nil, nil
	}
	files, err := s.listFolder(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("list folder %q: %w", tag, err)
	}

	var refs []core.FileRef
	for _, f := range documents(files) {
		refs = append(refs, core.FileRef{ID: f.Token, Name: f.Name})
	}
	return refs, nil
}

// LoadByID implements core.Storage. The id is a document token. When tag is
// set the document must be listed in that tag's folder.
func (s *Store) LoadByID(ctx context.Context, id, tag string) (core.Note, error) {
	f := driveFile{Token: id, Name: id, Type: fileTypeDocx}
	if tag != "" {
		refs, err := s.ListFiles(ctx, tag)
		if err != nil {
			return core.Note{}, err
		}
		found := false
		for _, r := range refs {
			if r.ID == id {
				f.Name, found = r.Name, true
				break
			}
		}
		if !found {
			return core.Note{}, fmt.Errorf("document %s in %q: %w", id, tag, core.ErrNotFound)
		}
	}

	note, err := s.fetchDocument(ctx, f)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return core.Note{}, fmt.Errorf("document %s: %w: %w", id, core.ErrNotFound, err)
		}
		return core.Note{}, err
	}
	if len(note.Tags) == 0 && tag != "" {
		note.Tags = []string{tag}
	}
	return note, nil
}

func (s *Store) countFetch(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.fetched++
	} else {
		s.discarded++
	}
}

var _ core.Storage = (*Store)(nil)
