// Package validation checks drafts against their schema before any request
// leaves the client. Messages are translated to Brazilian Portuguese and
// keyed by the JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ptBRTranslations "github.com/go-playground/validator/v10/translations/pt_BR"
	"github.com/shopspring/decimal"

	"github.com/harisonns09/ecclesia-manager-sub000/internal/domain"
)

var (
	// custom validation tags & texts
	phoneTag  = "phone"
	phoneText = "{0} deve ter pelo menos 10 dígitos"

	cepTag   = "cep"
	cepText  = "{0} deve ter 8 dígitos"
	cepRegex = regexp.MustCompile(`^\d{8}$`)

	slugTag   = "slug"
	slugText  = "{0} deve conter apenas letras minúsculas, números e hífens"
	slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	notFutureTag  = "notfuture"
	notFutureText = "{0} não pode estar no futuro"

	afterBirthTag  = "afterbirth"
	afterBirthText = "{0} não pode ser anterior à data de nascimento"

	belowFullTag  = "belowfull"
	belowFullText = "{0} deve ser menor que o preço integral"

	requiredTag    = "required"
	requiredUnless = "required_unless"
	requiredText   = "{0} é obrigatório"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 13
)

var (
	nowFunc = time.Now

	defaultInstance *Validator
	defaultOnce     sync.Once
)

// Normalizer is implemented by drafts that trim and canonicalize their
// fields before validation
type Normalizer interface {
	Normalize()
}

// Validator validates drafts and translates failures
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator with the pt-BR translator and custom tags
func New() *Validator {
	locale := pt_BR.New()
	uni := ut.New(locale, locale)
	translator, _ := uni.GetTranslator(locale.Locale())

	validate := validator.New()
	_ = ptBRTranslations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterCustomTypeFunc(dateValue, domain.Date{}, domain.Timestamp{})
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = validate.RegisterValidation(phoneTag, phoneValidation)
	_ = validate.RegisterValidation(cepTag, cepValidation)
	_ = validate.RegisterValidation(slugTag, slugValidation)
	_ = validate.RegisterValidation(notFutureTag, notFutureValidation)

	validate.RegisterStructValidation(memberDatesValidation, domain.MemberDraft{})
	validate.RegisterStructValidation(eventPricesValidation, domain.EventDraft{})

	for tag, text := range map[string]string{
		phoneTag:       phoneText,
		cepTag:         cepText,
		slugTag:        slugText,
		notFutureTag:   notFutureText,
		afterBirthTag:  afterBirthText,
		belowFullTag:   belowFullText,
		requiredTag:    requiredText,
		requiredUnless: requiredText,
	} {
		RegisterCustomTranslation(validate, translator, tag, text, true)
	}

	return &Validator{validate: validate, translator: translator}
}

// Default returns the process-wide Validator
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultInstance = New()
	})
	return defaultInstance
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Check normalizes draft when it supports it and validates it. draft must
// be a pointer for normalization to stick.
func (v *Validator) Check(draft any) error {
	if n, ok := draft.(Normalizer); ok {
		n.Normalize()
	}
	return v.Struct(draft)
}

// Struct validates s and returns a *Error listing every failing field
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe),
			Message: fe.Translate(v.translator),
		})
	}
	return NewError(fields...)
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// FieldError is a failure on one field
type FieldError struct {
	Field   string
	Message string
}

// Error is returned when a draft fails validation. No request is sent.
type Error struct {
	Fields []FieldError
}

// NewError builds an Error with fields sorted by name
func NewError(fields ...FieldError) *Error {
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &Error{Fields: fields}
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message for the named JSON field
func (e *Error) Field(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message, true
		}
	}
	return "", false
}

// Map returns field messages keyed by JSON field name
func (e *Error) Map() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Message
	}
	return m
}

// Custom Type Funcs

func dateValue(v reflect.Value) any {
	var t time.Time
	switch d := v.Interface().(type) {
	case domain.Date:
		t = d.Time
	case domain.Timestamp:
		t = d.Time
	}
	if t.IsZero() {
		return nil
	}
	return t
}

func decimalValue(v reflect.Value) any {
	d, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

// Custom Validators

// phoneValidation counts digits only, so formatted input is accepted
func phoneValidation(fl validator.FieldLevel) bool {
	n := len(domain.OnlyDigits(fl.Field().String()))
	return n >= minPhoneDigits && n <= maxPhoneDigits
}

func cepValidation(fl validator.FieldLevel) bool {
	return cepRegex.MatchString(domain.OnlyDigits(fl.Field().String()))
}

func slugValidation(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

func notFutureValidation(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	now := nowFunc()
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	return !t.After(endOfToday)
}

func memberDatesValidation(sl validator.StructLevel) {
	d, ok := sl.Current().Interface().(domain.MemberDraft)
	if !ok || d.DataNascimento.IsZero() {
		return
	}
	if !d.DataBatismo.IsZero() && d.DataBatismo.Before(d.DataNascimento.Time) {
		sl.ReportError(d.DataBatismo, "dataBatismo", "DataBatismo", afterBirthTag, "")
	}
	if !d.DataMembresia.IsZero() && d.DataMembresia.Before(d.DataNascimento.Time) {
		sl.ReportError(d.DataMembresia, "dataMembresia", "DataMembresia", afterBirthTag, "")
	}
}

func eventPricesValidation(sl validator.StructLevel) {
	d, ok := sl.Current().Interface().(domain.EventDraft)
	if !ok || d.Preco == nil || d.PrecoPromocional == nil {
		return
	}
	if d.PrecoPromocional.IsPositive() && d.PrecoPromocional.GreaterThanOrEqual(*d.Preco) {
		sl.ReportError(d.PrecoPromocional, "precoPromocional", "PrecoPromocional", belowFullTag, "")
	}
}
