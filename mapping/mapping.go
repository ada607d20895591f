/*
Package mapping converts one struct type into another from declared rules.

	m := mapping.New[CSVProduct, resources.Product]().
		Define("SKU", "UPC").
		MapField("Slug", func(src *CSVProduct) (interface{}, error) {
			return stringutil.Slugify(src.Title), nil
		}).
		AssignField("Structure", func() interface{} { return models.StructureStandalone })

	products, err := m.Apply(rows)

Fields with the same name on both types are copied unless a rule targets
them. Rules run in declaration order after the copy.
*/
package mapping

import (
	"fmt"
	"reflect"

	multierror "github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	validator "gopkg.in/go-playground/validator.v9"

	"github.com/samar-hassan/django-oscar-odin/metadata"
	"github.com/samar-hassan/django-oscar-odin/reflectutil"
)

var metadataType = reflect.TypeOf(metadata.Metadata{})

type rule[S, T any] struct {
	to    string
	apply func(src *S, dst reflect.Value, target *T) error
}

// Mapping holds the rules converting an S into a T
type Mapping[S, T any] struct {
	rules    []rule[S, T]
	autoMap  bool
	validate *validator.Validate
	logger   *zap.Logger
	err      error
}

// Option configures a Mapping
type Option func(*options)

type options struct {
	autoMap  bool
	validate bool
	logger   *zap.Logger
}

// WithoutAutoMap disables copying fields with matching names
func WithoutAutoMap() Option {
	return func(o *options) {
		o.autoMap = false
	}
}

// WithValidation validates every target with its validate tags
func WithValidation() Option {
	return func(o *options) {
		o.validate = true
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New returns a mapping from S to T without rules
func New[S, T any](opts ...Option) *Mapping[S, T] {
	o := &options{
		autoMap: true,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	m := &Mapping[S, T]{
		autoMap: o.autoMap,
		logger:  o.logger,
	}
	if o.validate {
		m.validate = validator.New()
	}
	if reflect.TypeOf((*S)(nil)).Elem().Kind() != reflect.Struct || reflect.TypeOf((*T)(nil)).Elem().Kind() != reflect.Struct {
		m.err = reflectutil.ErrNotStruct
	}
	return m
}

// FromType returns the source type
func (m *Mapping[S, T]) FromType() reflect.Type {
	return reflect.TypeOf((*S)(nil)).Elem()
}

// ToType returns the target type
func (m *Mapping[S, T]) ToType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (m *Mapping[S, T]) addRule(to string, apply func(src *S, dst reflect.Value, target *T) error) *Mapping[S, T] {
	if to != "" {
		if _, ok := m.ToType().FieldByName(to); !ok && m.err == nil {
			m.err = fmt.Errorf("%s has no field %s", m.ToType().Name(), to)
		}
	}
	m.rules = append(m.rules, rule[S, T]{to: to, apply: apply})
	return m
}

// Define copies the source field from into the target field to, converting
// between compatible types
func (m *Mapping[S, T]) Define(from, to string) *Mapping[S, T] {
	if _, ok := m.FromType().FieldByName(from); !ok && m.err == nil {
		m.err = fmt.Errorf("%s has no field %s", m.FromType().Name(), from)
	}
	return m.addRule(to, func(src *S, dst reflect.Value, _ *T) error {
		value := reflect.ValueOf(src).Elem().FieldByName(from)
		return reflectutil.SetValue(dst.FieldByName(to), reflectutil.Interface(value))
	})
}

// MapField sets the target field to from the value computed by fn
func (m *Mapping[S, T]) MapField(to string, fn func(src *S) (interface{}, error)) *Mapping[S, T] {
	return m.addRule(to, func(src *S, dst reflect.Value, _ *T) error {
		value, err := fn(src)
		if err != nil {
			return err
		}
		return reflectutil.SetValue(dst.FieldByName(to), value)
	})
}

// MapListField sets the slice field to from the list computed by fn. A nil
// list leaves the field empty.
func (m *Mapping[S, T]) MapListField(to string, fn func(src *S) (interface{}, error)) *Mapping[S, T] {
	if field, ok := m.ToType().FieldByName(to); ok && field.Type.Kind() != reflect.Slice && m.err == nil {
		m.err = fmt.Errorf("%s.%s is not a list", m.ToType().Name(), to)
	}
	return m.addRule(to, func(src *S, dst reflect.Value, _ *T) error {
		list, err := fn(src)
		if err != nil {
			return err
		}
		field := dst.FieldByName(to)
		if list == nil {
			field.Set(reflect.MakeSlice(field.Type(), 0, 0))
			return nil
		}
		value := reflect.ValueOf(list)
		if value.Kind() != reflect.Slice {
			return fmt.Errorf("%s.%s expects a list, got %T", m.ToType().Name(), to, list)
		}
		items := reflect.MakeSlice(field.Type(), 0, value.Len())
		for i := 0; i < value.Len(); i++ {
			item := reflect.New(field.Type().Elem()).Elem()
			if err := reflectutil.SetValue(item, value.Index(i).Interface()); err != nil {
				return err
			}
			items = reflect.Append(items, item)
		}
		field.Set(items)
		return nil
	})
}

// AssignField sets the target field to to the value returned by fn, for
// constants and sub-objects that do not depend on the source
func (m *Mapping[S, T]) AssignField(to string, fn func() interface{}) *Mapping[S, T] {
	return m.addRule(to, func(_ *S, dst reflect.Value, _ *T) error {
		return reflectutil.SetValue(dst.FieldByName(to), fn())
	})
}

// Func runs fn with the source and the target built so far
func (m *Mapping[S, T]) Func(fn func(src *S, dst *T) error) *Mapping[S, T] {
	return m.addRule("", func(src *S, _ reflect.Value, target *T) error {
		return fn(src, target)
	})
}

func (m *Mapping[S, T]) targeted() map[string]bool {
	targets := map[string]bool{}
	for _, r := range m.rules {
		if r.to != "" {
			targets[r.to] = true
		}
	}
	return targets
}

func (m *Mapping[S, T]) copyMatching(src *S, dst reflect.Value, targets map[string]bool) {
	srcValue := reflect.ValueOf(src).Elem()
	srcType := srcValue.Type()
	for i := 0; i < srcType.NumField(); i++ {
		field := srcType.Field(i)
		if field.PkgPath != "" || field.Type == metadataType || targets[field.Name] {
			continue
		}
		target := dst.FieldByName(field.Name)
		if !target.IsValid() || !target.CanSet() {
			continue
		}
		// fields that cannot be converted are left for explicit rules
		_ = reflectutil.SetValue(target, reflectutil.Interface(srcValue.Field(i)))
	}
}

// ApplyOne maps a single source
func (m *Mapping[S, T]) ApplyOne(src *S) (*T, error) {
	if m.err != nil {
		return nil, m.err
	}
	if src == nil {
		return nil, fmt.Errorf("cannot map a nil %s", m.FromType().Name())
	}

	target := new(T)
	dst := reflect.ValueOf(target).Elem()
	if m.autoMap {
		m.copyMatching(src, dst, m.targeted())
	}

	for _, r := range m.rules {
		if err := r.apply(src, dst, target); err != nil {
			if r.to != "" {
				return nil, fmt.Errorf("mapping %s.%s: %w", m.ToType().Name(), r.to, err)
			}
			return nil, err
		}
	}

	if m.validate != nil {
		if err := m.validate.Struct(target); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// Apply maps every source. Records that fail are left out of the result and
// their errors are returned together.
func (m *Mapping[S, T]) Apply(sources []*S) ([]*T, error) {
	if m.err != nil {
		return nil, m.err
	}

	var result *multierror.Error
	targets := make([]*T, 0, len(sources))
	for i, src := range sources {
		target, err := m.ApplyOne(src)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		targets = append(targets, target)
	}

	m.logger.Debug("applied mapping",
		zap.String("from", m.FromType().Name()),
		zap.String("to", m.ToType().Name()),
		zap.Int("mapped", len(targets)),
		zap.Int("failed", len(sources)-len(targets)),
	)
	return targets, result.ErrorOrNil()
}
