package storefront

import (
	"context"
	"io/fs"

	"github.com/partsplug/storefront/config"
	"github.com/partsplug/storefront/localization"
)

// WithTranslations loads message files from fsys/folder. A nil fsys uses the
// bundled catalogue. Languages default to the configured list.
func WithTranslations(fsys fs.FS, folder string, languages ...string) Option {
	return func(ctx context.Context, s *Service) {
		if len(languages) == 0 {
			if cfg, ok := s.Config().(config.ConfigurationLocalization); ok {
				languages = cfg.TranslationLanguages()
			}
		}

		manager, err := localization.NewManager(fsys, folder, languages...)
		if err != nil {
			s.Log(ctx).WithError(err).Error("could not load translations")
			s.startupError = err
			return
		}
		s.localizationManager = manager
	}
}

func (s *Service) Localization() localization.Manager {
	return s.localizationManager
}
