// Package i18n resolves user-facing notification and error messages by code
// and locale, with fallbacks and {{var}} interpolation.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// DefaultDomain holds the built-in message catalogs.
const DefaultDomain = "default"

//go:embed locales/*.json
var builtin embed.FS

// Translator is a thread-safe message catalog: domain -> locale -> key -> message.
type Translator struct {
	mu            sync.RWMutex
	defaultLocale string
	fallbacks     []string
	store         map[string]map[string]map[string]string
}

// Option customizes Translator on creation.
type Option func(*Translator) error

// New creates a Translator with optional configuration. Option errors are
// ignored so a missing catalog directory never prevents startup.
func New(opts ...Option) *Translator {
	tr := &Translator{
		defaultLocale: "en",
		store:         make(map[string]map[string]map[string]string),
	}
	for _, opt := range opts {
		_ = opt(tr)
	}
	return tr
}

var (
	defaultOnce sync.Once
	defaultTr   *Translator
)

// Default returns a shared translator preloaded with the built-in catalogs.
func Default() *Translator {
	defaultOnce.Do(func() {
		defaultTr = New(WithBuiltin())
	})
	return defaultTr
}

// WithDefaultLocale sets the default locale (e.g., "en").
func WithDefaultLocale(locale string) Option {
	return func(t *Translator) error {
		if strings.TrimSpace(locale) != "" {
			t.defaultLocale = locale
		}
		return nil
	}
}

// WithFallbackLocales sets fallback locales in preferred order.
func WithFallbackLocales(locales ...string) Option {
	return func(t *Translator) error {
		t.fallbacks = append([]string{}, locales...)
		return nil
	}
}

// WithBuiltin loads the embedded en and zh-CN catalogs into DefaultDomain.
func WithBuiltin() Option {
	return func(t *Translator) error {
		return t.loadFS(DefaultDomain, builtin, "locales")
	}
}

// WithJSONDir loads <locale>.json files from dir into domain, overriding
// built-in keys of the same name.
func WithJSONDir(domain, dir string) Option {
	return func(t *Translator) error {
		return t.loadFS(domain, os.DirFS(dir), ".")
	}
}

func (t *Translator) loadFS(domain string, fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return err
		}
		m := map[string]string{}
		if err := json.Unmarshal(b, &m); err != nil {
			return fmt.Errorf("i18n: %s: %w", filepath.Join(dir, name), err)
		}
		t.AddBundle(domain, strings.TrimSuffix(name, ".json"), m)
	}
	return nil
}

// AddBundle merges a bundle of key->message into domain/locale.
func (t *Translator) AddBundle(domain, locale string, bundle map[string]string) {
	if domain == "" {
		domain = DefaultDomain
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.store[domain]; !ok {
		t.store[domain] = make(map[string]map[string]string)
	}
	if _, ok := t.store[domain][locale]; !ok {
		t.store[domain][locale] = make(map[string]string)
	}
	for k, v := range bundle {
		t.store[domain][locale][k] = v
	}
}

// Add adds a single key/message into domain/locale.
func (t *Translator) Add(domain, locale, key, message string) {
	t.AddBundle(domain, locale, map[string]string{key: message})
}

// Locales returns the locales known for a domain.
func (t *Translator) Locales(domain string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m := t.store[domain]
	out := make([]string, 0, len(m))
	for loc := range m {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// splitDomain extracts domain from a key of the form "domain:key".
func splitDomain(key string) (domain, k string) {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i], key[i+1:]
	}
	return DefaultDomain, key
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_\.]+)\s*\}\}`)

// T translates key for locale. Search order is the requested locale, the
// fallbacks, then the default locale; an unknown key returns the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	msg, err := t.lookup(locale, key)
	if err != nil {
		_, msg = splitDomain(key)
	}
	if len(data) == 0 {
		return msg
	}
	return interpolate(msg, data)
}

// Message is like T but returns def when the key is unknown in every locale.
func (t *Translator) Message(ctx context.Context, key, def string) string {
	return t.MessageIn(LocaleFromContext(ctx), key, def)
}

// MessageIn is Message with an explicit locale; "" means the default locale.
func (t *Translator) MessageIn(locale, key, def string) string {
	msg, err := t.lookup(locale, key)
	if err != nil {
		return def
	}
	return msg
}

func (t *Translator) lookup(locale, key string) (string, error) {
	if locale == "" {
		locale = t.defaultLocale
	}
	domain, k := splitDomain(key)

	locales := append([]string{locale}, t.fallbacks...)
	if base, _, ok := strings.Cut(locale, "-"); ok {
		locales = append(locales, base)
	}
	if t.defaultLocale != "" {
		locales = append(locales, t.defaultLocale)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, loc := range locales {
		if v, ok := t.store[domain][loc][k]; ok {
			return v, nil
		}
	}
	return "", ErrNotFound
}

func interpolate(template string, data map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		if len(sub) != 2 {
			return m
		}
		cur, ok := dig(data, sub[1])
		if !ok {
			return m
		}
		return fmt.Sprint(cur)
	})
}

func dig(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, p := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := mm[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// BestMatch returns the best locale match from an Accept-Language header.
func (t *Translator) BestMatch(acceptLang string) string {
	if strings.TrimSpace(acceptLang) == "" {
		return t.defaultLocale
	}
	t.mu.RLock()
	available := map[string]struct{}{}
	for _, locs := range t.store {
		for loc := range locs {
			available[loc] = struct{}{}
		}
	}
	t.mu.RUnlock()

	// e.g. "zh-CN,zh;q=0.9,en;q=0.8"
	for _, part := range strings.Split(acceptLang, ",") {
		lang := strings.TrimSpace(strings.Split(part, ";")[0])
		if lang == "" {
			continue
		}
		if _, ok := available[lang]; ok {
			return lang
		}
		base := strings.SplitN(lang, "-", 2)[0]
		for avail := range available {
			if strings.EqualFold(avail, base) || strings.HasPrefix(strings.ToLower(avail), strings.ToLower(base+"-")) {
				return avail
			}
		}
	}
	return t.defaultLocale
}

type ctxKey string

const localeCtxKey ctxKey = "i18n_locale"

// ContextWithLocale returns a child context with locale stored.
func ContextWithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeCtxKey, locale)
}

// LocaleFromContext returns the stored locale or empty.
func LocaleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(localeCtxKey).(string); ok {
		return s
	}
	return ""
}

// GinMiddleware stores the locale negotiated from ?lang= or Accept-Language
// in the request context.
func (t *Translator) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := strings.TrimSpace(c.Query("lang"))
		if loc == "" {
			loc = t.BestMatch(c.GetHeader("Accept-Language"))
		}
		c.Request = c.Request.WithContext(ContextWithLocale(c.Request.Context(), loc))
		c.Set(string(localeCtxKey), loc)
		c.Next()
	}
}

// ErrNotFound is returned by Lookup when a key is missing in every locale.
var ErrNotFound = errors.New("i18n: key not found")

// Lookup returns the raw message for a key in exactly one locale.
func (t *Translator) Lookup(locale, key string) (string, error) {
	domain, k := splitDomain(key)
	t.mu.RLock()
	defer t.mu.RUnlock()
	if v, ok := t.store[domain][locale][k]; ok {
		return v, nil
	}
	return "", ErrNotFound
}
