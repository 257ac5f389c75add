// Package google mirrors transactions into a Google Sheets tab.
//
// Column A holds the transaction id so rows can be found again on delete;
// the remaining columns follow the CSV export layout.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendwise/internal/core"
	"spendwise/internal/export"
	"spendwise/internal/sheets"
)

// DefaultSheetName is the tab used when Config.SheetName is empty.
const DefaultSheetName = "Transactions"

var ErrNotConfigured = errors.New("sheets service not initialized")

// Config selects the spreadsheet and how to authenticate against it.
// A service account takes precedence over an OAuth client plus token file.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthTokenFile     string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu            sync.Mutex
	headerChecked bool
}

var _ sheets.MirrorWriter = (*Client)(nil)

// New creates a mirror client from cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return serviceAccountService(ctx, []byte(serviceAccountJSON))
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Using service account credentials file", "path", serviceAccountFile)
		return serviceAccountService(ctx, b)
	case cfg.OAuthClientJSON != "" && cfg.OAuthTokenFile != "":
		client, err := oauthHTTPClient(ctx, []byte(cfg.OAuthClientJSON), cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Using OAuth token file", "path", cfg.OAuthTokenFile)
		return gsheet.NewService(ctx, goption.WithHTTPClient(client))
	}
	return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_OAUTH_CLIENT_JSON with GOOGLE_OAUTH_TOKEN_FILE)")
}

func serviceAccountService(ctx context.Context, credentials []byte) (*gsheet.Service, error) {
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// oauthHTTPClient builds a refreshing client from an installed-app OAuth
// client and a token saved by cmd/sheets-auth.
func oauthHTTPClient(ctx context.Context, clientJSON []byte, tokenFile string) (*http.Client, error) {
	conf, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tok, err := readToken(tokenFile)
	if err != nil {
		return nil, err
	}
	base := &http.Client{Transport: pooledTransport(), Timeout: 60 * time.Second}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return conf.Client(ctx, tok), nil
}

func readToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("token file holds no access or refresh token")
	}
	return &tok, nil
}

func pooledTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// Header is the first row of the mirror tab.
func Header() []string {
	return append([]string{"ID"}, export.Header...)
}

// Row is the mirror row of tx.
func Row(tx core.Transaction) []any {
	cols := append([]string{tx.ID}, export.Row(tx)...)
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = c
	}
	return out
}

func (c *Client) columns() string {
	last := rune('A' + len(Header()) - 1)
	return fmt.Sprintf("%s!A:%c", c.sheet, last)
}

// AppendTransaction writes tx as a new row, adding the header first when
// the tab is empty.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	if c.svc == nil {
		return ErrNotConfigured
	}
	if tx.ID == "" {
		return errors.New("transaction without id")
	}
	if err := c.ensureHeader(ctx); err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{Row(tx)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.columns(), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	slog.DebugContext(ctx, "Appended mirror row", "transaction_id", tx.ID, "range", ref)
	return nil
}

func (c *Client) ensureHeader(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.headerChecked {
		return nil
	}
	rng := fmt.Sprintf("%s!A1", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		header := make([]any, 0, len(Header()))
		for _, h := range Header() {
			header = append(header, h)
		}
		vr := &gsheet.ValueRange{Values: [][]any{header}}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheet+"!A1", vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	c.headerChecked = true
	return nil
}

// DeleteTransaction removes the row whose id column equals id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return ErrNotConfigured
	}
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	row := FindRow(resp.Values, id)
	if row < 0 {
		slog.InfoContext(ctx, "Mirror row already gone", "transaction_id", id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(row),
					EndIndex:        int64(row + 1),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row+1, err)
	}
	slog.DebugContext(ctx, "Deleted mirror row", "transaction_id", id, "row", row+1)
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	id, ok := SheetIDByTitle(ss.Sheets, c.sheet)
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", c.sheet)
	}
	return id, nil
}

// FindRow returns the zero-based index of the first row whose first cell
// is id, or -1.
func FindRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

// SheetIDByTitle finds the numeric id of a tab.
func SheetIDByTitle(list []*gsheet.Sheet, title string) (int64, bool) {
	for _, s := range list {
		if s == nil || s.Properties == nil {
			continue
		}
		if strings.EqualFold(s.Properties.Title, title) {
			return s.Properties.SheetId, true
		}
	}
	return 0, false
}
