package catalog

import (
	"strings"

	perr "moderato/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	trans, _ = uni.GetTranslator("en")
	_ = entrans.RegisterDefaultTranslations(validate, trans)
}

// Validate checks structural and cross-field consistency. Any error here is
// a configuration error: fatal at startup, never recoverable per run
func (c Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fe.Translate(trans))
			}
			return perr.Newf(perr.ErrorCodeConfiguration, "invalid catalog: %s", strings.Join(msgs, "; "))
		}
		return perr.Wrap(err, perr.ErrorCodeConfiguration, "invalid catalog")
	}

	seenKind := map[string]bool{}
	for _, k := range c.Kinds {
		if seenKind[string(k)] {
			return perr.Newf(perr.ErrorCodeConfiguration, "duplicate trigger kind %q", k)
		}
		seenKind[string(k)] = true
	}

	for k := range c.Thresholds {
		if !c.KnownKind(k) {
			return perr.Newf(perr.ErrorCodeConfiguration, "threshold for unknown trigger kind %q", k)
		}
	}

	seenName := map[string]bool{}
	for _, s := range c.Strategies {
		if s.Name == "" || s.Name == "none" {
			return perr.New(perr.ErrorCodeConfiguration, `strategy name must be set and cannot be "none"`)
		}
		if seenName[string(s.Name)] {
			return perr.Newf(perr.ErrorCodeConfiguration, "duplicate strategy %q", s.Name)
		}
		seenName[string(s.Name)] = true

		if len(s.Requires) == 0 {
			return perr.Newf(perr.ErrorCodeConfiguration, "strategy %q requires no trigger kinds", s.Name)
		}
		for _, k := range s.Requires {
			if !c.KnownKind(k) {
				return perr.Newf(perr.ErrorCodeConfiguration,
					"strategy %q requires unknown trigger kind %q", s.Name, k)
			}
		}
	}
	return nil
}
