package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"studyquest/adapters/sqlx"
)

// Struct tags read by the environment loader:
//
//	env:"NAME"            variable bound to the field
//	envprefix:"PREFIX"    on a nested struct, binds each untagged field to
//	                      PREFIX_FIELD_NAME (DialTimeout -> PREFIX_DIAL_TIMEOUT)
//	oneof:"a|b|c"         rejects values outside the list at load time
//	check:"timezone"      rejects names time.LoadLocation cannot resolve
//
// Derived names listed in secretVars are skipped; LoadSecretsFromEnv owns them.

var (
	durationType = reflect.TypeOf(time.Duration(0))

	// enumValues validates named string types wherever they appear.
	enumValues = map[reflect.Type][]string{
		reflect.TypeOf(Environment("")): {
			string(EnvDevelopment), string(EnvTesting), string(EnvStaging), string(EnvProduction),
		},
		reflect.TypeOf(sqlx.Driver("")): {
			string(sqlx.DriverPostgres), string(sqlx.DriverMySQL), string(sqlx.DriverSQLite),
		},
	}

	secretVars = map[string]bool{
		SecretSQLDSN:        true,
		SecretRedisPassword: true,
	}
)

// loadFromEnv overlays environment variables on cfg. Every bad variable is
// reported, not just the first.
func loadFromEnv(cfg *Config) error {
	var errs []error
	walkEnv(reflect.ValueOf(cfg).Elem(), "", func(name string, field reflect.Value, sf reflect.StructField) {
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			return
		}
		if err := setFromEnv(field, sf, strings.TrimSpace(raw)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	})
	return errors.Join(errs...)
}

// walkEnv calls fn for every field bound to an environment variable.
func walkEnv(v reflect.Value, prefix string, fn func(string, reflect.Value, reflect.StructField)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		field := v.Field(i)

		name := sf.Tag.Get("env")
		if name == "" && prefix != "" {
			name = prefix + "_" + screamingSnake(sf.Name)
		}
		if field.Kind() == reflect.Struct {
			walkEnv(field, sf.Tag.Get("envprefix"), fn)
			continue
		}
		if name == "" || secretVars[name] {
			continue
		}
		fn(name, field, sf)
	}
}

func setFromEnv(field reflect.Value, sf reflect.StructField, raw string) error {
	switch field.Kind() {
	case reflect.String:
		if err := checkString(field.Type(), sf, raw); err != nil {
			return err
		}
		field.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration %q", raw)
			}
			if d < 0 {
				return fmt.Errorf("duration %q is negative", raw)
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		if n < 0 {
			return fmt.Errorf("%d is negative", n)
		}
		field.SetInt(n)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list type %s", field.Type())
		}
		field.Set(reflect.ValueOf(splitList(raw)).Convert(field.Type()))

	case reflect.Map:
		if field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported map type %s", field.Type())
		}
		m := reflect.MakeMap(field.Type())
		for _, pair := range splitList(raw) {
			k, v, ok := strings.Cut(pair, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return fmt.Errorf("invalid entry %q, want key=value", pair)
			}
			m.SetMapIndex(reflect.ValueOf(strings.TrimSpace(k)), reflect.ValueOf(strings.TrimSpace(v)))
		}
		field.Set(m)

	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// checkString applies the enum and timezone checks for a string field.
func checkString(t reflect.Type, sf reflect.StructField, raw string) error {
	allowed := enumValues[t]
	if tag := sf.Tag.Get("oneof"); tag != "" {
		allowed = strings.Split(tag, "|")
	}
	if allowed != nil && !slices.Contains(allowed, raw) {
		return fmt.Errorf("%q is not one of %s", raw, strings.Join(allowed, ", "))
	}
	if sf.Tag.Get("check") == "timezone" {
		if _, err := time.LoadLocation(raw); err != nil {
			return fmt.Errorf("unknown timezone %q", raw)
		}
	}
	return nil
}

// splitList splits a comma-separated value and drops empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// screamingSnake turns a Go field name into an env suffix:
// MaxOpenConns -> MAX_OPEN_CONNS, DB -> DB.
func screamingSnake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
