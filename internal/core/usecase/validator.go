package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
)

type ValidationErrorKind string

const (
	ParseErrorKind  ValidationErrorKind = "parse_error"
	SchemaErrorKind ValidationErrorKind = "schema_error"
)

type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// ValidationError is returned for model output that is not JSON (ParseErrorKind)
// or is JSON of the wrong shape (SchemaErrorKind, with itemized violations).
type ValidationError struct {
	Kind       ValidationErrorKind
	Raw        string
	Violations []Violation
	Err        error
}

func (e *ValidationError) Error() string {
	if e.Kind == ParseErrorKind {
		return fmt.Sprintf("response is not valid JSON: %v", e.Err)
	}
	return "response does not match answer schema: " + strings.Join(e.Details(), "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Details() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.String())
	}
	return out
}

// Summary is the JSON list of violations embedded into a repair prompt.
func (e *ValidationError) Summary() string {
	if e.Kind == ParseErrorKind {
		return e.Error()
	}
	payload, err := json.Marshal(e.Violations)
	if err != nil {
		return e.Error()
	}
	return string(payload)
}

var (
	answerFields   = []string{"jurisdiction", "short_answer", "step_by_step_plan", "risks_or_deadlines", "when_to_seek_a_solicitor", "citations", "confidence"}
	citationFields = []string{"title", "url", "last_updated"}
)

// ResponseValidator turns raw model text into a StructuredAnswer or a ValidationError.
type ResponseValidator struct {
	validate *validator.Validate
}

func NewResponseValidator() *ResponseValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ResponseValidator{validate: validate}
}

func (v *ResponseValidator) Validate(raw string) (*domain.StructuredAnswer, error) {
	data := []byte(strings.TrimSpace(raw))

	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ValidationError{Kind: ParseErrorKind, Raw: raw, Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, schemaError(raw, []Violation{{Field: "$", Rule: "type", Message: "answer must be a JSON object"}})
	}

	var (
		answer     domain.StructuredAnswer
		violations []Violation
	)
	violations = append(violations, unexpectedFields("", fields, answerFields)...)
	decodeField(fields, "", "jurisdiction", &answer.Jurisdiction, "a string", &violations)
	decodeField(fields, "", "short_answer", &answer.ShortAnswer, "a string", &violations)
	decodeField(fields, "", "step_by_step_plan", &answer.StepByStepPlan, "an array of strings", &violations)
	decodeField(fields, "", "risks_or_deadlines", &answer.RisksOrDeadlines, "an array of strings", &violations)
	decodeField(fields, "", "when_to_seek_a_solicitor", &answer.WhenToSeekASolicitor, "a string", &violations)
	decodeField(fields, "", "confidence", &answer.Confidence, "a number", &violations)
	answer.Citations = decodeCitations(fields, &violations)

	violations = append(violations, v.constraintViolations(answer, violations)...)
	if len(violations) > 0 {
		return nil, schemaError(raw, violations)
	}
	return &answer, nil
}

func (v *ResponseValidator) constraintViolations(answer domain.StructuredAnswer, structural []Violation) []Violation {
	err := v.validate.Struct(answer)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Field: "$", Rule: "schema", Message: err.Error()}}
	}

	seen := make(map[string]bool, len(structural))
	for _, violation := range structural {
		seen[violation.Field] = true
	}

	out := make([]Violation, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		field := fieldErr.Namespace()
		if idx := strings.IndexByte(field, '.'); idx >= 0 {
			field = field[idx+1:]
		}
		if seen[field] {
			continue
		}
		out = append(out, Violation{Field: field, Rule: fieldErr.Tag(), Message: constraintMessage(fieldErr)})
	}
	return out
}

func constraintMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "eq":
		return fmt.Sprintf("must equal %q", fieldErr.Param())
	case "required":
		return "must not be empty"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fieldErr.Param())
	case "url":
		return "must be a valid URL"
	case "gte", "lte":
		return "must be between 0 and 1"
	default:
		return "failed " + fieldErr.Tag() + " check"
	}
}

func decodeCitations(fields map[string]json.RawMessage, violations *[]Violation) []domain.Citation {
	var items []json.RawMessage
	if !decodeField(fields, "", "citations", &items, "an array of citation objects", violations) {
		return nil
	}

	citations := make([]domain.Citation, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("citations[%d].", i)
		var citationFieldsRaw map[string]json.RawMessage
		if err := json.Unmarshal(item, &citationFieldsRaw); err != nil || citationFieldsRaw == nil {
			*violations = append(*violations, Violation{Field: strings.TrimSuffix(prefix, "."), Rule: "type", Message: "must be a citation object"})
			continue
		}
		*violations = append(*violations, unexpectedFields(prefix, citationFieldsRaw, citationFields)...)

		var citation domain.Citation
		decodeField(citationFieldsRaw, prefix, "title", &citation.Title, "a string", violations)
		decodeField(citationFieldsRaw, prefix, "url", &citation.URL, "a string", violations)
		decodeField(citationFieldsRaw, prefix, "last_updated", &citation.LastUpdated, "a string", violations)
		citations = append(citations, citation)
	}
	return citations
}

// decodeField decodes one required field without any type coercion.
func decodeField(fields map[string]json.RawMessage, prefix, name string, target any, want string, violations *[]Violation) bool {
	raw, ok := fields[name]
	if !ok {
		*violations = append(*violations, Violation{Field: prefix + name, Rule: "required", Message: "field is required"})
		return false
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) || json.Unmarshal(raw, target) != nil {
		*violations = append(*violations, Violation{Field: prefix + name, Rule: "type", Message: "must be " + want})
		return false
	}
	return true
}

func unexpectedFields(prefix string, fields map[string]json.RawMessage, allowed []string) []Violation {
	var out []Violation
	for name := range fields {
		if !contains(allowed, name) {
			out = append(out, Violation{Field: prefix + name, Rule: "additional_property", Message: "unexpected field"})
		}
	}
	return out
}

func schemaError(raw string, violations []Violation) *ValidationError {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Field == violations[j].Field {
			return violations[i].Rule < violations[j].Rule
		}
		return violations[i].Field < violations[j].Field
	})
	return &ValidationError{Kind: SchemaErrorKind, Raw: raw, Violations: violations}
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
