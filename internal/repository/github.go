package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"gp-captain-panel/internal/config"
	"gp-captain-panel/internal/model"
)

// presenceFile is the single file holding the nested presence map,
// stored next to the per-account config files.
const presenceFile = "online-accounts.json"

// pingRetries bounds the read-modify-write retries when concurrent
// heartbeats race on the presence file's revision token.
const pingRetries = 3

var configFilePattern = regexp.MustCompile(`(?i)^config_(.+)\.json$`)

// GitHubStore reads and writes JSON files in a GitHub repository through
// the Contents API, using blob SHAs as optimistic-concurrency tokens.
// It implements both ConfigStore and PresenceStore.
type GitHubStore struct {
	client  *resty.Client
	owner   string
	repo    string
	branch  string
	baseDir string
	log     zerolog.Logger
}

// NewGitHubStore creates a store for the configured repository.
func NewGitHubStore(cfg config.GitHubConfig, log zerolog.Logger) (*GitHubStore, error) {
	if cfg.Token == "" || cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github store requires GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO")
	}

	client := resty.New().
		SetBaseURL(cfg.APIURL).
		SetAuthToken(cfg.Token).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetTimeout(30 * time.Second)

	return &GitHubStore{
		client:  client,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  cfg.Branch,
		baseDir: strings.TrimSuffix(cfg.Path, "/"),
		log:     log.With().Str("component", "github_store").Logger(),
	}, nil
}

// contentItem is the Contents API representation of a file or directory
// entry. Content is base64, possibly wrapped across multiple lines.
type contentItem struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type githubError struct {
	Message string `json:"message"`
}

func (s *GitHubStore) configPath(account string) string {
	return s.baseDir + "/config_" + account + ".json"
}

func (s *GitHubStore) presencePath() string {
	return s.baseDir + "/" + presenceFile
}

// contentsURL builds the API path, escaping each segment. Account keys
// may contain spaces and non-ASCII characters and are used verbatim.
func (s *GitHubStore) contentsURL(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s", s.owner, s.repo, strings.Join(segs, "/"))
}

// getFile fetches one file's content and SHA. Returns ErrNotFound on 404.
func (s *GitHubStore) getFile(ctx context.Context, path string) (*contentItem, error) {
	var item contentItem
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("ref", s.branch).
		SetResult(&item).
		Get(s.contentsURL(path))
	if err != nil {
		return nil, fmt.Errorf("github get %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("github get %s: %w", path, ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github get %s: status %d", path, resp.StatusCode())
	}
	return &item, nil
}

// putFile creates or updates a file. sha must be the current blob SHA for
// updates and empty for creates. Returns ErrConflict when the SHA is stale.
func (s *GitHubStore) putFile(ctx context.Context, path, message string, data []byte, sha string) error {
	body := putContentRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  s.branch,
		SHA:     sha,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&body).
		Put(s.contentsURL(path))
	if err != nil {
		return fmt.Errorf("github put %s: %w", path, err)
	}
	// The Contents API reports a stale SHA as 409; some failure modes
	// surface as 422 with a sha-mismatch message.
	if resp.StatusCode() == http.StatusConflict || resp.StatusCode() == http.StatusUnprocessableEntity {
		return fmt.Errorf("github put %s: %s: %w", path, githubMessage(resp), ErrConflict)
	}
	if resp.IsError() {
		return fmt.Errorf("github put %s: status %d: %s", path, resp.StatusCode(), githubMessage(resp))
	}
	return nil
}

func githubMessage(resp *resty.Response) string {
	var ge githubError
	if err := json.Unmarshal(resp.Body(), &ge); err == nil && ge.Message != "" {
		return ge.Message
	}
	return strings.TrimSpace(string(resp.Body()))
}

// decodeContent reverses the Contents API encoding: strips the line
// wrapping, base64-decodes, and trims any non-JSON bytes around the
// object before it is parsed.
func decodeContent(item *contentItem) ([]byte, error) {
	raw := strings.ReplaceAll(item.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", item.Path, err)
	}
	obj := model.ExtractJSONObject(data)
	if obj == nil {
		return nil, fmt.Errorf("decode %s: no JSON object in content", item.Path)
	}
	return obj, nil
}

// Get implements ConfigStore.
func (s *GitHubStore) Get(ctx context.Context, account string) (*model.BotConfig, bool, error) {
	item, err := s.getFile(ctx, s.configPath(account))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.DefaultConfig(), true, nil
		}
		return nil, false, err
	}

	data, err := decodeContent(item)
	if err != nil {
		return nil, false, err
	}
	cfg, err := model.MergeDefaults(data)
	if err != nil {
		return nil, false, fmt.Errorf("config for %q: %w", account, err)
	}
	return cfg, false, nil
}

// Put implements ConfigStore. The current blob SHA is read immediately
// before the write, so conflicts only surface on true races.
func (s *GitHubStore) Put(ctx context.Context, account string, cfg *model.BotConfig) error {
	path := s.configPath(account)

	sha := ""
	item, err := s.getFile(ctx, path)
	switch {
	case err == nil:
		sha = item.SHA
	case errors.Is(err, ErrNotFound):
		// create
	default:
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config for %q: %w", account, err)
	}
	return s.putFile(ctx, path, "Update config for "+account, data, sha)
}

// List implements ConfigStore. Returns the account keys parsed from
// config_<account>.json file names in the base directory.
func (s *GitHubStore) List(ctx context.Context) ([]string, error) {
	var items []contentItem
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("ref", s.branch).
		SetResult(&items).
		Get(s.contentsURL(s.baseDir))
	if err != nil {
		return nil, fmt.Errorf("github list %s: %w", s.baseDir, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github list %s: status %d", s.baseDir, resp.StatusCode())
	}

	var accounts []string
	for _, item := range items {
		if item.Type != "file" {
			continue
		}
		m := configFilePattern.FindStringSubmatch(item.Name)
		if m == nil {
			continue
		}
		accounts = append(accounts, m[1])
	}
	return accounts, nil
}

// loadPresence returns the presence map and the file's SHA, or an empty
// map and no SHA when the file does not exist yet.
func (s *GitHubStore) loadPresence(ctx context.Context) (model.OnlineStore, string, error) {
	item, err := s.getFile(ctx, s.presencePath())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.OnlineStore{}, "", nil
		}
		return nil, "", err
	}

	data, err := decodeContent(item)
	if err != nil {
		return nil, "", err
	}
	store := model.OnlineStore{}
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, "", fmt.Errorf("decode presence map: %w", err)
	}
	return store, item.SHA, nil
}

// Ping implements PresenceStore as a read-modify-write over the shared
// presence file. Races on the SHA are retried a bounded number of times;
// at-least-once semantics are accepted at this system's write rate.
func (s *GitHubStore) Ping(ctx context.Context, account, clientID string, seen time.Time) error {
	var lastErr error
	for attempt := 0; attempt < pingRetries; attempt++ {
		store, sha, err := s.loadPresence(ctx)
		if err != nil {
			return err
		}
		store.Touch(account, clientID, seen)

		data, err := json.MarshalIndent(store, "", "  ")
		if err != nil {
			return fmt.Errorf("encode presence map: %w", err)
		}
		err = s.putFile(ctx, s.presencePath(), "Update online-accounts for "+account, data, sha)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
		lastErr = err
		s.log.Debug().Str("account", account).Int("attempt", attempt+1).Msg("presence write conflict, retrying")
	}
	return lastErr
}

// All implements PresenceStore.
func (s *GitHubStore) All(ctx context.Context) (model.OnlineStore, error) {
	store, _, err := s.loadPresence(ctx)
	return store, err
}

// Close implements ConfigStore and PresenceStore. The HTTP client holds
// no resources that need explicit release.
func (s *GitHubStore) Close() error { return nil }
