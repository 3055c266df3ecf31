package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const maxFormMemory = 32 << 20

// Payload is the form-encoded body of an action request, plus any uploaded
// files when the form was multipart.
type Payload struct {
	Values url.Values
	Files  map[string][]*multipart.FileHeader
}

func NewPayload(values url.Values) Payload {
	if values == nil {
		values = url.Values{}
	}
	return Payload{Values: values}
}

// PayloadFromRequest parses urlencoded or multipart form bodies.
func PayloadFromRequest(r *http.Request) (Payload, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return Payload{}, fmt.Errorf("failed to parse multipart form: %w", err)
		}
		return Payload{Values: r.MultipartForm.Value, Files: r.MultipartForm.File}, nil
	}

	if err := r.ParseForm(); err != nil {
		return Payload{}, fmt.Errorf("failed to parse form: %w", err)
	}
	return NewPayload(r.PostForm), nil
}

func (p Payload) Get(key string) string {
	return strings.TrimSpace(p.Values.Get(key))
}

func (p Payload) Action() Action {
	return Action(p.Get("action"))
}

// List reads a repeated field, accepting both "key" and "key[]" spellings
// and comma separated single values.
func (p Payload) List(key string) []string {
	raw := append([]string{}, p.Values[key]...)
	raw = append(raw, p.Values[key+"[]"]...)

	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Bool returns nil when the field is absent so updates can leave it alone.
func (p Payload) Bool(key string) *bool {
	v := p.Get(key)
	if v == "" {
		return nil
	}
	switch strings.ToLower(v) {
	case "on", "yes":
		b := true
		return &b
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func (p Payload) Float(key string) float64 {
	f, _ := strconv.ParseFloat(p.Get(key), 64)
	return f
}

func (p Payload) Int(key string) int {
	i, _ := strconv.Atoi(p.Get(key))
	return i
}

func (p Payload) PageQuery() domain.PageQuery {
	return domain.NewPageQuery(p.Get("page"), p.Get("limit"), p.Get("search"))
}

// listParams builds backend query params from pagination plus the named
// filter fields present in the payload.
func (p Payload) listParams(filters ...string) url.Values {
	q := p.PageQuery()
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	for _, f := range filters {
		if v := p.Get(f); v != "" {
			params.Set(f, v)
		}
	}
	return params
}

// openFiles opens the uploaded files under any of the given form fields and
// renames them to target for the backend. The returned closer must be called
// once the upload finished.
func (p Payload) openFiles(target string, fields ...string) ([]restclient.File, func(), error) {
	var (
		files   []restclient.File
		closers []multipart.File
	)
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	for _, field := range fields {
		for _, header := range p.Files[field] {
			f, err := header.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("failed to open %s: %w", header.Filename, err)
			}
			closers = append(closers, f)
			files = append(files, restclient.File{
				Field:       target,
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Content:     f,
			})
		}
	}

	return files, closeAll, nil
}

type localeKey struct{}

type locale struct {
	language string
	currency string
}

// WithLocale attaches the session's language and currency to ctx. Every
// backend call made with ctx carries them as X-Language / X-Currency.
func WithLocale(ctx context.Context, language, currency string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale{language: language, currency: currency})
}

func localeOptions(ctx context.Context) []restclient.Option {
	l, ok := ctx.Value(localeKey{}).(locale)
	if !ok {
		return nil
	}
	return []restclient.Option{restclient.WithLanguage(l.language), restclient.WithCurrency(l.currency)}
}

func languageFrom(ctx context.Context) string {
	l, _ := ctx.Value(localeKey{}).(locale)
	return l.language
}

// Resource bundles what every CRUD module needs.
type Resource struct {
	factory  *restclient.Factory
	path     string
	validate interface{ Struct(interface{}) error }
}

func newResource(factory *restclient.Factory, path string) Resource {
	return Resource{factory: factory, path: path, validate: newValidator()}
}

func (r Resource) client(token string) *restclient.Client {
	return r.factory.Resource(r.path, token)
}

func (r Resource) opts(ctx context.Context, extra ...restclient.Option) []restclient.Option {
	return append(localeOptions(ctx), extra...)
}

func (r Resource) list(ctx context.Context, p Payload, token string, filters ...string) Result {
	q := p.PageQuery()
	res := r.client(token).Get(ctx, r.opts(ctx, restclient.WithParams(p.listParams(filters...)))...)
	if !res.OK() {
		return Result{Data: domain.EmptyPage(q), Error: remoteError(res.Error)}
	}
	return Ok(domain.ParsePage(res.Data, q))
}

func (r Resource) get(ctx context.Context, p Payload, token string) Result {
	id := p.Get("id")
	if errBody := required(map[string]string{"id": id}); errBody != nil {
		return Result{Error: errBody}
	}
	return fromRemote(r.client(token).GetByID(ctx, id, r.opts(ctx)...))
}

func (r Resource) create(ctx context.Context, input interface{}, token string) Result {
	if err := r.validate.Struct(input); err != nil {
		return Result{Error: validationError(err)}
	}
	return fromRemote(r.client(token).Create(ctx, input, r.opts(ctx)...))
}

func (r Resource) update(ctx context.Context, id string, input interface{}, token string) Result {
	if errBody := required(map[string]string{"id": id}); errBody != nil {
		return Result{Error: errBody}
	}
	if err := r.validate.Struct(input); err != nil {
		return Result{Error: validationError(err)}
	}
	return fromRemote(r.client(token).Update(ctx, id, input, r.opts(ctx)...))
}

func (r Resource) delete(ctx context.Context, p Payload, token string) Result {
	id := p.Get("id")
	if errBody := required(map[string]string{"id": id}); errBody != nil {
		return Result{Error: errBody}
	}
	return fromRemote(r.client(token).Delete(ctx, id, r.opts(ctx)...))
}

// patchStatus flips an isActive style flag through PATCH {id}/status.
func (r Resource) patchStatus(ctx context.Context, p Payload, token, field string) Result {
	id := p.Get("id")
	value := p.Bool(field)
	if errBody := required(map[string]string{"id": id, field: p.Get(field)}); errBody != nil {
		return Result{Error: errBody}
	}
	if value == nil {
		return Fail(http.StatusBadRequest, field+" must be a boolean")
	}
	body := map[string]bool{field: *value}
	return fromRemote(r.client(token).Do(ctx, http.MethodPatch, url.PathEscape(id)+"/status", body, r.opts(ctx)...))
}

// upload forwards files from the payload as a multipart request.
func (r Resource) upload(ctx context.Context, p Payload, token, subpath, target string, fields map[string]string, formFields ...string) Result {
	files, closeFiles, err := p.openFiles(target, formFields...)
	defer closeFiles()
	if err != nil {
		return Fail(http.StatusBadRequest, err.Error())
	}
	if len(files) == 0 {
		return Fail(http.StatusBadRequest, target+" is required")
	}

	form := restclient.Multipart{Fields: fields, Files: files}
	return fromRemote(r.client(token).Upload(ctx, http.MethodPost, subpath, form, r.opts(ctx)...))
}
