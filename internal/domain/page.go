package domain

import (
	"encoding/json"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageQuery is the pagination and filter part of a listing request.
type PageQuery struct {
	Page   int
	Limit  int
	Search string
}

// NewPageQuery parses page/limit strings, clamping them to sane values.
func NewPageQuery(page, limit, search string) PageQuery {
	q := PageQuery{Page: DefaultPage, Limit: DefaultLimit, Search: search}
	if p, err := strconv.Atoi(page); err == nil && p > 0 {
		q.Page = p
	}
	if l, err := strconv.Atoi(limit); err == nil && l > 0 {
		q.Limit = l
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Page is a listing as the dashboard tables consume it. Items stay raw: the
// backend owns their shape.
type Page struct {
	Items json.RawMessage `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// EmptyPage is what loaders render when the backend could not be reached.
func EmptyPage(q PageQuery) Page {
	return Page{Items: json.RawMessage(`[]`), Page: q.Page, Limit: q.Limit}
}

// ParsePage accepts either a bare array or an envelope such as
// {"data": [...], "total": n} / {"items": [...], "meta": {"total": n}}.
func ParsePage(raw json.RawMessage, q PageQuery) Page {
	page := EmptyPage(q)
	if len(raw) == 0 {
		return page
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		page.Items = raw
		page.Total = len(list)
		return page
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Items json.RawMessage `json:"items"`
		Total *int            `json:"total"`
		Meta  struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return page
	}

	switch {
	case len(envelope.Items) > 0:
		page.Items = envelope.Items
	case len(envelope.Data) > 0:
		page.Items = envelope.Data
	}
	if envelope.Total != nil {
		page.Total = *envelope.Total
	} else {
		page.Total = envelope.Meta.Total
	}
	return page
}

// DecodeList unmarshals a bare array or an envelope with data/items into out.
func DecodeList(raw json.RawMessage, out interface{}) error {
	page := ParsePage(raw, PageQuery{})
	return json.Unmarshal(page.Items, out)
}
