package schema

import (
	"embed"

	"github.com/kaptinlin/go-i18n"
)

//go:embed locales/*.json
var localesFS embed.FS

// GetI18n returns an initialized internationalization bundle with the
// embedded locale for validation error messages.
func GetI18n() (*i18n.I18n, error) {
	bundle := i18n.NewBundle(
		i18n.WithDefaultLocale("en"),
		i18n.WithLocales("en"),
	)

	if err := bundle.LoadFS(localesFS, "locales/*.json"); err != nil {
		return nil, err
	}
	return bundle, nil
}

// code maps a ValidationErrorKind to its locale message code.
func (k ValidationErrorKind) code() string {
	switch k {
	case TypeMismatch:
		return "type_mismatch"
	case MissingRequiredProperty:
		return "missing_required_property"
	case EnumMismatch:
		return "enum_mismatch"
	case ArrayItemError:
		return "array_item_error"
	case ObjectPropertyError:
		return "object_property_error"
	case InvalidSchemaError:
		return "invalid_schema"
	default:
		return "unknown"
	}
}

// Localize renders e using localizer, falling back to Error() when
// localizer is nil.
func (e *ValidationError) Localize(localizer *i18n.Localizer) string {
	if localizer == nil {
		return e.Error()
	}
	vars := map[string]any{
		"expected": string(e.Expected),
		"actual":   string(e.Actual),
		"name":     e.Name,
		"index":    e.Index,
		"message":  e.Message,
	}
	return localizer.Get(e.Kind.code(), i18n.Vars(vars))
}
