// Package hub reads GAIA benchmark questions and attachments from the
// Hugging Face hub.
//
// Question rows come from the datasets-server rows API, which pages
// through a split without downloading the parquet exports. Attachments
// are fetched from the dataset repository through the resolve endpoint.
// Both honor an optional access token for gated datasets, and both can
// be pointed at a mirror through the configured base URLs.
package hub

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bdia-labs/gaia-bench/internal/config"
	"github.com/bdia-labs/gaia-bench/internal/gaia"
)

const (
	// DefaultBaseURL serves raw dataset files.
	DefaultBaseURL = "https://huggingface.co"
	// DefaultRowsURL serves paged dataset rows.
	DefaultRowsURL = "https://datasets-server.huggingface.co"
	// DefaultDataset is the public GAIA benchmark repository.
	DefaultDataset = "gaia-benchmark/GAIA"
	// DefaultConfig is the dataset config covering all difficulty levels.
	DefaultConfig = "2023_all"

	rowsPageSize = 100
)

// Client fetches GAIA rows and attachment files from the hub.
type Client struct {
	baseURL string
	rowsURL string
	token   string
	dataset string
	config  string
	split   string

	httpc *http.Client
}

// NewClient builds a hub client from cfg. Zero values fall back to the
// public GAIA dataset on the public hub endpoints.
func NewClient(cfg config.HubConfig) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		rowsURL: strings.TrimRight(strings.TrimSpace(cfg.RowsURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		dataset: strings.TrimSpace(cfg.Dataset),
		config:  strings.TrimSpace(cfg.Config),
		split:   strings.TrimSpace(cfg.Split),
		httpc:   &http.Client{Timeout: 5 * time.Minute},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.rowsURL == "" {
		c.rowsURL = DefaultRowsURL
	}
	if c.dataset == "" {
		c.dataset = DefaultDataset
	}
	if c.config == "" {
		c.config = DefaultConfig
	}
	if c.split == "" {
		c.split = gaia.DefaultSplit
	}
	return c
}

// Row is one GAIA question as published in the dataset metadata.
type Row struct {
	TaskID         string
	Question       string
	Level          int
	FinalAnswer    string
	FileName       string
	AnnotatorSteps string
}

// flexInt decodes a JSON number or a quoted number. GAIA exports store
// the difficulty level inconsistently across formats.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.Trim(s, `"`)))
	if err != nil {
		return fmt.Errorf("hub: parse level %s: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// metadataRow mirrors the field names used by the GAIA metadata files
// and the rows API.
type metadataRow struct {
	TaskID      string  `json:"task_id"`
	Question    string  `json:"Question"`
	Level       flexInt `json:"Level"`
	FinalAnswer string  `json:"Final answer"`
	FileName    string  `json:"file_name"`
	Annotator   struct {
		Steps string `json:"Steps"`
	} `json:"Annotator Metadata"`
}

func (m metadataRow) row() Row {
	return Row{
		TaskID:         strings.TrimSpace(m.TaskID),
		Question:       m.Question,
		Level:          int(m.Level),
		FinalAnswer:    m.FinalAnswer,
		FileName:       strings.TrimSpace(m.FileName),
		AnnotatorSteps: m.Annotator.Steps,
	}
}

type rowsResponse struct {
	Rows []struct {
		Row metadataRow `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// Rows pages through the configured dataset split and returns every
// question row.
func (c *Client) Rows(ctx context.Context) ([]Row, error) {
	if c == nil {
		return nil, errors.New("hub: nil client")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var out []Row
	for offset := 0; ; offset += rowsPageSize {
		page, total, err := c.rowsPage(ctx, offset, rowsPageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || len(out) >= total {
			return out, nil
		}
	}
}

func (c *Client) rowsPage(ctx context.Context, offset, length int) ([]Row, int, error) {
	q := url.Values{}
	q.Set("dataset", c.dataset)
	q.Set("config", c.config)
	q.Set("split", c.split)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("length", strconv.Itoa(length))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rowsURL+"/rows?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("hub: build rows request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("hub: fetch rows: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("hub: rows request failed: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var decoded rowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, 0, fmt.Errorf("hub: decode rows response: %w", err)
	}

	rows := make([]Row, 0, len(decoded.Rows))
	for _, r := range decoded.Rows {
		rows = append(rows, r.Row.row())
	}
	return rows, decoded.NumRowsTotal, nil
}

// DownloadFile streams one attachment from the dataset repository. The
// caller owns the returned reader and must close it. Size is the
// Content-Length reported by the hub, or -1 when unknown.
func (c *Client) DownloadFile(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	if c == nil {
		return nil, 0, errors.New("hub: nil client")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, 0, errors.New("hub: file name is empty")
	}

	u := fmt.Sprintf("%s/datasets/%s/resolve/main/%s/%s/%s",
		c.baseURL, c.dataset, c.filesDir(), c.split, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("hub: build download request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("hub: download %s: %w", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := readErrorBody(resp.Body)
		_ = resp.Body.Close()
		return nil, 0, fmt.Errorf("hub: download %s failed: %s: %s", name, resp.Status, msg)
	}
	return resp.Body, resp.ContentLength, nil
}

// filesDir maps a dataset config name to the attachment directory in
// the repository. The 2023 exports keep files under "2023" no matter
// which of the "2023_all" or per-level configs served the rows.
func (c *Client) filesDir() string {
	if i := strings.Index(c.config, "_"); i > 0 {
		return c.config[:i]
	}
	return c.config
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(body))
}

// ReadLocalMetadata reads GAIA rows from a metadata.jsonl file on disk,
// one JSON object per line. Blank lines are skipped.
func ReadLocalMetadata(path string) ([]Row, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("hub: metadata path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hub: open metadata: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rows []Row
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var m metadataRow
		if err := json.Unmarshal([]byte(text), &m); err != nil {
			return nil, fmt.Errorf("hub: parse metadata line %d: %w", line, err)
		}
		rows = append(rows, m.row())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("hub: read metadata: %w", err)
	}
	return rows, nil
}
