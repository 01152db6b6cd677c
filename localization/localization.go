package localization

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

type contextKey string

func (c contextKey) String() string {
	return "storefront/localization/" + string(c)
}

const (
	ctxKeyLanguage = contextKey("languageKey")

	// DefaultTranslationsFolder is the folder inside Translations holding the message files.
	DefaultTranslationsFolder = "translations"
)

// Translations holds the message files shipped with the storefront.
//
//go:embed translations/*.toml
var Translations embed.FS

// ToContext adds language to the current supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts language from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

type Manager interface {
	Bundle() *i18n.Bundle
	Translate(ctx context.Context, request any, messageID string) string
	TranslateWithMap(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
	) string
	TranslateWithMapAndCount(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
		count int,
	) string
}

type managerImpl struct {
	bundle *i18n.Bundle
}

// NewManager loads messages.<lang>.toml for every language from folder within fsys.
// A nil fsys loads the embedded Translations.
func NewManager(fsys fs.FS, folder string, languages ...string) (Manager, error) {
	if fsys == nil {
		fsys = Translations
	}
	if folder == "" {
		folder = DefaultTranslationsFolder
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, lang := range languages {
		_, err := bundle.LoadMessageFileFS(fsys, fmt.Sprintf("%s/messages.%v.toml", folder, lang))
		if err != nil {
			return nil, fmt.Errorf("loading %q translations: %w", lang, err)
		}
	}

	return &managerImpl{bundle: bundle}, nil
}

// Bundle Access the translation bundle instatiated in the system.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

// Translate performs a quick translation based on the supplied message id.
func (s *managerImpl) Translate(ctx context.Context, request any, messageID string) string {
	return s.TranslateWithMap(ctx, request, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
func (s *managerImpl) TranslateWithMap(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
) string {
	return s.localize(ctx, request, messageID, variables, nil)
}

// TranslateWithMapAndCount performs a translation with variables based on the supplied message id and can pluralize.
func (s *managerImpl) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count int,
) string {
	return s.localize(ctx, request, messageID, variables, count)
}

// localize resolves the message; a nil pluralCount selects the "other" form
// so messages without plural variants still resolve.
func (s *managerImpl) localize(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	pluralCount any,
) string {
	var languageSlice []string

	switch v := request.(type) {
	case *http.Request:
		languageSlice = ExtractLanguageFromHTTPRequest(v)

	case context.Context:
		languageSlice = FromContext(v)

	case string:
		languageSlice = []string{v}

	case []string:
		languageSlice = v

	default:
		logger := util.Log(ctx).WithField("messageID", messageID).WithField("variables", variables)
		logger.Warn("TranslateWithMapAndCount -- no valid request object found, use string, []string, context or http.Request")
		return messageID
	}

	localizer := i18n.NewLocalizer(s.Bundle(), languageSlice...)

	transVersion, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID, Other: messageID},
		TemplateData:   variables,
		PluralCount:    pluralCount,
	})

	if err != nil {
		util.Log(ctx).WithError(err).WithField("messageID", messageID).
			Error("TranslateWithMapAndCount -- could not perform translation")
	}

	return transVersion
}

func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	lang := req.URL.Query().Get("lang")

	acceptedLang := ExtractLanguageFromHTTPHeader(req.Header)

	var languages []string
	if lang != "" {
		languages = append(languages, lang)
	}

	return append(languages, acceptedLang...)
}

func ExtractLanguageFromHTTPHeader(req http.Header) []string {
	acceptLanguageHeader := strings.TrimSpace(req.Get("Accept-Language"))
	if acceptLanguageHeader == "" {
		return nil
	}
	return strings.Split(acceptLanguageHeader, ",")
}

// LanguageHTTPMiddleware is an HTTP middleware that extracts language information and sets it in the context.
func LanguageHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := ExtractLanguageFromHTTPRequest(r)

		ctx := ToContext(r.Context(), l)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}
