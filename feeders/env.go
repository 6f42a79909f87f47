package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

// EnvFeeder sets fields tagged `env:"NAME"` from environment variables.
// Nested structs extend the variable name with their own tag, so with
// Prefix "MODKIT" the field HTTP.Addr tagged `env:"HTTP"` and `env:"ADDR"`
// reads MODKIT_HTTP_ADDR. Unset variables leave fields untouched.
type EnvFeeder struct {
	Prefix string

	lookup func(string) (string, bool)
}

// NewEnvFeeder creates an EnvFeeder reading variables under prefix.
func NewEnvFeeder(prefix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix, lookup: os.LookupEnv}
}

// Feed implements config.Feeder.
func (f EnvFeeder) Feed(structure any) error {
	lookup := f.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return populate(structure, f.Prefix, lookup)
}

func populate(structure any, prefix string, lookup func(string) (string, bool)) error {
	v := reflect.ValueOf(structure)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrInvalidStructure, structure)
	}
	return populateStruct(v.Elem(), strings.ToUpper(prefix), lookup)
}

func populateStruct(v reflect.Value, prefix string, lookup func(string) (string, bool)) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, ok := field.Tag.Lookup("env")
		if !ok || tag == "-" {
			continue
		}
		name := joinEnv(prefix, tag)
		fv := v.Field(i)

		switch {
		case field.Type.Kind() == reflect.Struct:
			if err := populateStruct(fv, name, lookup); err != nil {
				return err
			}
		case field.Type.Kind() == reflect.Pointer && field.Type.Elem().Kind() == reflect.Struct:
			if fv.IsNil() {
				fv.Set(reflect.New(field.Type.Elem()))
			}
			if err := populateStruct(fv.Elem(), name, lookup); err != nil {
				return err
			}
		default:
			raw, ok := lookup(name)
			if !ok {
				continue
			}
			if err := SetField(fv, raw); err != nil {
				return fmt.Errorf("env %s: %w", name, err)
			}
		}
	}
	return nil
}

// SetField converts raw to the field's type and assigns it. Slices are
// read as comma separated lists.
func SetField(field reflect.Value, raw string) error {
	if field.Kind() == reflect.Slice {
		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			elem, err := cast.FromType(p, field.Type().Elem())
			if err != nil {
				return fmt.Errorf("%w: %s", ErrUnsupportedType, field.Type())
			}
			out = reflect.Append(out, reflect.ValueOf(elem).Convert(field.Type().Elem()))
		}
		field.Set(out)
		return nil
	}

	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnsupportedType, field.Type(), err)
		}
		field.SetInt(int64(d))
		return nil
	}

	value, err := cast.FromType(raw, field.Type())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnsupportedType, field.Type(), err)
	}
	field.Set(reflect.ValueOf(value).Convert(field.Type()))
	return nil
}

var durationType = reflect.TypeFor[time.Duration]()

func joinEnv(prefix, name string) string {
	name = strings.ToUpper(name)
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}
