// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package i18n localizes API messages and notification emails.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

// Supported lists the languages with a translation file. The first entry is
// the fallback.
var Supported = []language.Tag{language.English, language.German}

var (
	bundle   *i18n.Bundle
	matcher  = language.NewMatcher(Supported)
	initOnce sync.Once
	initErr  error
)

// localeKey carries the request's resolved locale.
type localeKey struct{}

type locale struct {
	name      string
	localizer *i18n.Localizer
}

// Init loads the embedded translations. Repeated calls return the result of
// the first one.
func Init() error {
	initOnce.Do(func() {
		bundle, initErr = loadBundle(translationFS)
	})
	return initErr
}

func loadBundle(fsys fs.FS) (*i18n.Bundle, error) {
	b := i18n.NewBundle(Supported[0])
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(fsys, "translations/active.*.toml")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if _, err := b.LoadMessageFileFS(fsys, file); err != nil {
			return nil, fmt.Errorf("loading %s: %w", file, err)
		}
	}

	for _, tag := range Supported {
		if !hasLanguage(b, tag) {
			return nil, fmt.Errorf("missing translations for %s", tag)
		}
	}
	return b, nil
}

func hasLanguage(b *i18n.Bundle, tag language.Tag) bool {
	for _, t := range b.LanguageTags() {
		if t == tag {
			return true
		}
	}
	return false
}

// WithLocale stores the base language of lang in ctx.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	base, _ := lang.Base()
	return context.WithValue(ctx, localeKey{}, newLocale(base.String()))
}

func newLocale(name string) *locale {
	_ = Init()
	return &locale{name: name, localizer: i18n.NewLocalizer(bundle, name)}
}

func fromContext(ctx context.Context) *locale {
	if l, ok := ctx.Value(localeKey{}).(*locale); ok {
		return l
	}
	return newLocale(Supported[0].String())
}

// GetLocale returns the language code stored in ctx, "en" if none.
func GetLocale(ctx context.Context) string {
	return fromContext(ctx).name
}

// T translates messageID. Unknown IDs are returned unchanged.
func T(ctx context.Context, messageID string) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: messageID})
}

// TData translates messageID with template data.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	return localize(ctx, &i18n.LocalizeConfig{MessageID: messageID, TemplateData: data})
}

func localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	l := fromContext(ctx)
	msg, err := l.localizer.Localize(cfg)
	if err != nil {
		slog.Debug("missing_translation", "id", cfg.MessageID, "locale", l.name)
		return cfg.MessageID
	}
	return msg
}

// MatchLanguage picks the best supported language for an Accept-Language
// header value.
func MatchLanguage(acceptLanguage string) language.Tag {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	return tag
}
