package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/cache"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	ports "github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/sheets"
)

const DefaultClosingsSheet = "Cierres"

// rowCacheTTL bounds how long a remembered next row is trusted before the
// sheet is measured again, in case someone edits it by hand.
const rowCacheTTL = 10 * time.Minute

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year; the closing's year is prefixed on write.
	closingsBase string
	logger       *log.Logger

	// serializes appends so two exports never claim the same row
	mu sync.Mutex
	// next free row per sheet name
	rows cache.Cache[int]
}

var _ ports.ClosingReportWriter = (*Client)(nil)

// New creates a Sheets client authenticated with service account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, closingsSheet string, logger *log.Logger) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(closingsSheet) == "" {
		closingsSheet = DefaultClosingsSheet
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, spreadsheetID, closingsSheet, logger), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, closingsSheet string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		closingsBase:  closingsSheet,
		logger:        logger,
		rows:          cache.NewLRUCache[int](16, rowCacheTTL),
	}
}

func credentialsFromEnv() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		raw, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return raw, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func newSheetsService(ctx context.Context, logger *log.Logger) (*gsheet.Service, error) {
	credentialsJSON, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendClosing writes one row to "<year> <closings sheet>" and returns
// its A1 range.
func (c *Client) AppendClosing(ctx context.Context, report core.ClosingReport) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if report.RegisterID == "" {
		return "", errors.New("closing report without register id")
	}
	sheet := yearPrefixedName(c.closingsBase, report.ClosedAt.Year())

	c.mu.Lock()
	defer c.mu.Unlock()

	nextRow, err := c.nextRow(ctx, sheet)
	if err != nil {
		return "", err
	}

	var rows [][]any
	if nextRow == 1 {
		header := make([]any, len(ports.ClosingHeader))
		for i, h := range ports.ClosingHeader {
			header[i] = h
		}
		rows = append(rows, header)
	}
	rows = append(rows, ports.ClosingRow(report))
	lastRow := nextRow + len(rows) - 1

	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, nextRow, columnLetter(len(ports.ClosingHeader)), lastRow)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.rows.Delete(sheet)
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}
	c.rows.Set(sheet, lastRow+1)

	ref := fmt.Sprintf("%s!A%d:%s%d", sheet, lastRow, columnLetter(len(ports.ClosingHeader)), lastRow)
	c.logger.InfoContext(ctx, "Closing exported",
		log.FieldRegisterID, report.RegisterID,
		log.FieldStoreID, report.StoreID,
		"sheets_ref", ref)
	return ref, nil
}

// nextRow returns the first empty row of sheet, measuring column A only when
// the row is not remembered from a previous append.
func (c *Client) nextRow(ctx context.Context, sheet string) (int, error) {
	if row, ok := c.rows.Get(sheet); ok {
		return row, nil
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	return len(resp.Values) + 1, nil
}

// columnLetter maps 1 -> A ... 26 -> Z. Wider ranges are not needed.
func columnLetter(n int) string {
	if n < 1 || n > 26 {
		return "Z"
	}
	return string(rune('A' + n - 1))
}

func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
