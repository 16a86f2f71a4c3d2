package decode

import (
	"github.com/mitchellh/mapstructure"
)

// Options customizes Decode behavior.
type Options struct {
	// WeaklyTypedInput enables lenient decoding ("123" -> int, 1.0 -> int64).
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// Decode maps a generic map (e.g. notification metadata loaded from the
// store) onto a typed struct. Unknown keys are ignored.
func Decode(input map[string]any, out any, opts Options) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: opts.WeaklyTypedInput,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
