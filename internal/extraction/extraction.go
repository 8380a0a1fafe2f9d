package extraction

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// Kind selects which journal layout the compressor must commit to.
type Kind string

const (
	KindRegistration Kind = "registration"
	KindSubmission   Kind = "submission"
)

var ErrUnknownKind = errors.New("unknown extraction kind")

// Descriptor is the field-extraction block attached to a compression request.
// The compressor appends the extracted values, in order, after the transcript
// header of the journal.
type Descriptor struct {
	ResponseBody FieldList `json:"response.body"`
}

type FieldList struct {
	JMESPath []string `json:"jmespath"`
}

var (
	registrationFields = []string{
		"campaign_id",
		"handle_tiktok",
		"proof_self",
	}
	submissionFields = []string{
		"campaign_id",
		"handle_tiktok",
		"score_calidad",
		"url_video",
	}
)

func For(kind Kind) (Descriptor, error) {
	switch kind {
	case KindRegistration:
		return newDescriptor(registrationFields), nil
	case KindSubmission:
		return newDescriptor(submissionFields), nil
	default:
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func newDescriptor(fields []string) Descriptor {
	return Descriptor{ResponseBody: FieldList{JMESPath: append([]string(nil), fields...)}}
}

// Validate compiles every expression so a malformed descriptor never reaches the prover.
func (d Descriptor) Validate() error {
	if len(d.ResponseBody.JMESPath) == 0 {
		return errors.New("extraction descriptor has no fields")
	}
	for _, expr := range d.ResponseBody.JMESPath {
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("invalid jmespath %q: %w", expr, err)
		}
	}
	return nil
}

// Evaluate runs the descriptor against a JSON response body and returns the
// extracted values in descriptor order. A missing field is an error, since the
// compressor would refuse it as well.
func (d Descriptor) Evaluate(body []byte) ([]any, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("response body is not json: %w", err)
	}
	out := make([]any, 0, len(d.ResponseBody.JMESPath))
	for _, expr := range d.ResponseBody.JMESPath {
		value, err := jmespath.Search(expr, data)
		if err != nil {
			return nil, fmt.Errorf("jmespath %q: %w", expr, err)
		}
		if value == nil {
			return nil, fmt.Errorf("jmespath %q matched nothing", expr)
		}
		out = append(out, value)
	}
	return out, nil
}
