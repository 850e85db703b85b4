package replacer

import (
	"fmt"
	"strings"

	"github.com/JakeStanger/rust-bindocs/internal/render"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/shlex"
)

var validate = validator.New()

// OptionsError reports directive options that could not be used.
type OptionsError struct {
	Input string
	Err   error
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid options %q: %v", e.Input, e.Err)
}

func (e *OptionsError) Unwrap() error { return e.Err }

// ParseOptions reads directive options such as `header=false depth=2`.
// A braced block with spaced assignments, `{ header = false depth = 2 }`,
// is accepted too. Keys not given keep their defaults.
func ParseOptions(s string) (render.Options, error) {
	input := strings.TrimSpace(s)
	body := input
	if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
		body = body[1 : len(body)-1]
	}

	words, err := shlex.Split(body)
	if err != nil {
		return render.DefaultOptions(), &OptionsError{Input: input, Err: err}
	}
	raw, err := assignments(words)
	if err != nil {
		return render.DefaultOptions(), &OptionsError{Input: input, Err: err}
	}

	opts := render.DefaultOptions()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &opts,
	})
	if err != nil {
		return render.DefaultOptions(), err
	}
	if err := dec.Decode(raw); err != nil {
		return render.DefaultOptions(), &OptionsError{Input: input, Err: err}
	}
	if err := validate.Struct(opts); err != nil {
		return render.DefaultOptions(), &OptionsError{Input: input, Err: err}
	}
	return opts, nil
}

// assignments folds `k=v`, `k = v`, `k= v` and `k =v` word runs into a map.
func assignments(words []string) (map[string]any, error) {
	raw := make(map[string]any, len(words))
	for i := 0; i < len(words); i++ {
		key, val, ok := strings.Cut(words[i], "=")
		switch {
		case ok && val == "" && i+1 < len(words):
			i++
			val = words[i]
		case !ok && i+1 < len(words) && strings.HasPrefix(words[i+1], "="):
			i++
			val = strings.TrimPrefix(words[i], "=")
			if val == "" && i+1 < len(words) {
				i++
				val = words[i]
			}
		case !ok:
			return nil, fmt.Errorf("expected key=value, got %q", words[i])
		}
		if key == "" {
			return nil, fmt.Errorf("missing key before %q", val)
		}
		raw[key] = val
	}
	return raw, nil
}
