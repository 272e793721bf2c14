package router

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/core"
)

var cursorCodec = base64.URLEncoding.WithPadding(base64.NoPadding)

const (
	cursorPrefixV2 = "v2:"
	cursorAfter    = "after"
	cursorBefore   = "before"
)

type Cursor struct {
	Direction string
	Value     string
}

func DecodeCursor(raw string) (Cursor, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cursor{}, nil
	}
	data, err := cursorCodec.DecodeString(trimmed)
	if err != nil {
		return Cursor{}, errors.New("invalid cursor")
	}
	payload := string(data)
	if !strings.HasPrefix(payload, cursorPrefixV2) {
		return Cursor{}, errors.New("invalid cursor")
	}
	parts := strings.Split(payload[len(cursorPrefixV2):], ":")
	if len(parts) != 2 {
		return Cursor{}, errors.New("invalid cursor")
	}
	direction := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if direction != cursorAfter && direction != cursorBefore {
		return Cursor{}, errors.New("invalid cursor direction")
	}
	if value == "" {
		return Cursor{}, errors.New("invalid cursor value")
	}
	return Cursor{Direction: direction, Value: value}, nil
}

func EncodeCursor(direction, value string) string {
	if direction == "" || value == "" {
		return ""
	}
	payload := fmt.Sprintf("%s%s:%s", cursorPrefixV2, direction, value)
	return cursorCodec.EncodeToString([]byte(payload))
}

// LimitOrDefault returns a sanitized page size. Non-numeric or non-positive
// values fall back to def and values above maxLimit are capped.
func LimitOrDefault(raw string, def int, maxLimit int) int {
	if def <= 0 {
		def = core.DefaultPageSize
	}
	if maxLimit <= 0 {
		maxLimit = core.MaxPageSize
	}
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || val <= 0 {
		return def
	}
	if val > maxLimit {
		return maxLimit
	}
	return val
}

// PageFromQuery reads the limit and cursor query parameters.
func PageFromQuery(c *gin.Context) (core.Page, error) {
	page := core.Page{Limit: LimitOrDefault(c.Query("limit"), core.DefaultPageSize, core.MaxPageSize)}
	cursor, err := DecodeCursor(c.Query("cursor"))
	if err != nil {
		return core.Page{}, core.Invalid("cursor", err.Error())
	}
	if cursor.Value == "" {
		return page, nil
	}
	if cursor.Direction != cursorAfter {
		return core.Page{}, core.Invalid("cursor", "only forward cursors are supported")
	}
	after, err := core.ParseID(cursor.Value)
	if err != nil {
		return core.Page{}, core.Invalid("cursor", err.Error())
	}
	page.After = after
	return page, nil
}

// NextCursor returns the cursor for the page following items, or "" when
// items did not fill the page.
func NextCursor(page core.Page, count int, lastID core.ID) string {
	if count == 0 || count < page.Limit {
		return ""
	}
	return EncodeCursor(cursorAfter, lastID.String())
}

// RespondWithPage writes a list envelope and the matching Link header.
func RespondWithPage[T any](c *gin.Context, page core.Page, items []T, id func(T) core.ID) {
	if items == nil {
		items = []T{}
	}
	next := ""
	if len(items) > 0 {
		next = NextCursor(page, len(items), id(items[len(items)-1]))
	}
	SetLinkHeaders(c, next, "")
	RespondWithData(c, http.StatusOK, ListResponse[T]{Items: items, NextCursor: next})
}

func SetLinkHeaders(c *gin.Context, nextCursor string, prevCursor string) {
	links := make([]string, 0, 2)
	if nextCursor != "" {
		links = append(links, buildLink(c, nextCursor, "next"))
	}
	if prevCursor != "" {
		links = append(links, buildLink(c, prevCursor, "prev"))
	}
	if len(links) > 0 {
		c.Header("Link", strings.Join(links, ", "))
	}
}

func buildLink(c *gin.Context, cursor string, rel string) string {
	u, err := url.Parse(c.Request.URL.String())
	if err != nil || u == nil {
		return ""
	}
	q := u.Query()
	q.Set("cursor", cursor)
	u.RawQuery = q.Encode()
	return fmt.Sprintf("<%s>; rel=%q", sanitizedURL(u), rel)
}

func sanitizedURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.Scheme == "" && u.Host == "" {
		if u.RawQuery == "" {
			return u.Path
		}
		return u.Path + "?" + u.RawQuery
	}
	return u.String()
}
