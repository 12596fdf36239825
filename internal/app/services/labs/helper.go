package labs

import (
	"fmt"
	"html/template"
)

// HelperFunc renders a fragment of template output.
type HelperFunc func(args ...any) template.HTML

// HelperOptions binds a template helper to the flag that gates it.
type HelperOptions struct {
	// HelperName is the name the helper is registered under in templates.
	HelperName string
	// FlagKey is the labs key consulted before the helper runs.
	FlagKey string
	// FlagName is the human-readable feature name used in error output.
	FlagName string
	// HelpURL points at documentation for enabling the feature.
	HelpURL string
	// ErrorRender overrides the fragment rendered when the flag is off.
	ErrorRender func(err error) template.HTML
}

// DisabledFeatureError reports a helper invoked while its flag is off.
type DisabledFeatureError struct {
	HelperName string
	FlagName   string
	HelpURL    string
}

func (e *DisabledFeatureError) Error() string {
	msg := fmt.Sprintf("the %s helper is not available, the %s flag must be enabled", e.HelperName, e.FlagName)
	if e.HelpURL != "" {
		msg += ", see " + e.HelpURL
	}
	return msg
}

// errorFragment surfaces the failure in the browser console without
// breaking the surrounding page.
func errorFragment(err error) template.HTML {
	return template.HTML("<script>console.error(\"" + template.JSEscapeString(err.Error()) + "\");</script>")
}

// EnabledHelper wraps fn so it only runs while opts.FlagKey resolves to
// true. When the flag is off the wrapper logs the failure and renders an
// error fragment in place of the helper output.
func (s *Service) EnabledHelper(opts HelperOptions, fn HelperFunc) HelperFunc {
	render := opts.ErrorRender
	if render == nil {
		render = errorFragment
	}
	return func(args ...any) template.HTML {
		if s.IsEnabled(opts.FlagKey) {
			return fn(args...)
		}
		err := &DisabledFeatureError{
			HelperName: opts.HelperName,
			FlagName:   opts.FlagName,
			HelpURL:    opts.HelpURL,
		}
		s.log.WithError(err).Errorf("helper %s invoked while disabled", opts.HelperName)
		return render(err)
	}
}
