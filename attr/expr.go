package attr

// This file implements the built-in `.expr` attribute kind: a constant
// expression compiled and evaluated at parse time. The result folds into a
// primitive value, so downstream consumers never see the expression itself.
//
// The evaluation environment is lazily initialized once per process and
// cloned on every access so callers may mutate the returned map without
// affecting the shared cache.

import (
	"log/slog"
	"maps"
	"math"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
)

// Private singleton cache.
//
//nolint:gochecknoglobals
var (
	exprEnvOnce sync.Once
	exprEnv     map[string]any
)

// makeExprEnv returns a clone of the lazily-initialized, process-scoped
// environment containing built-in variables and functions.
func makeExprEnv() map[string]any {
	exprEnvOnce.Do(func() {
		exprEnv = map[string]any{
			// Numeric helpers.
			"abs":   math.Abs,
			"ceil":  math.Ceil,
			"floor": math.Floor,
			"round": math.Round,

			// Environment variable lookup.
			"env": os.Getenv,

			// Delimited-list manipulation via mung.
			"list": map[string]any{
				"prefix": listPrefix,
				"unique": listUnique,
			},
		}
	})

	return maps.Clone(exprEnv)
}

// listPrefix prepends items to a delimited list, deduplicating the result.
func listPrefix(delim, subject string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(delim),
		mung.WithPrefixItems(prefix...),
	).String()
}

// listUnique removes duplicate items from a delimited list, keeping first
// occurrences.
func listUnique(delim, subject string) string {
	seen := make(map[string]struct{})
	unique := make([]string, 0)

	for _, item := range strings.Split(subject, delim) {
		if _, ok := seen[item]; ok {
			continue
		}

		seen[item] = struct{}{}
		unique = append(unique, item)
	}

	return strings.Join(unique, delim)
}

// parseExpr compiles and evaluates a constant expression, folding the result
// into a primitive value.
func parseExpr(input string) (Value, error) {
	source := strings.TrimSpace(input)
	if source == "" {
		return Empty(), nil
	}

	env := makeExprEnv()

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return Value{}, ErrExprCompile.Wrap(err).
			With(slog.String("source", source))
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return Value{}, ErrExprEvaluate.Wrap(err).
			With(slog.String("source", source))
	}

	return foldExprResult(source, result)
}

// foldExprResult maps an expression result onto the primitive catalog.
func foldExprResult(source string, result any) (Value, error) {
	switch v := result.(type) {
	case nil:
		return Empty(), nil
	case bool:
		return NewBool(v), nil
	case int:
		return NewInt(int32(v)), nil
	case int64:
		return NewInt(int32(v)), nil
	case float64:
		return NewFloat(float32(v)), nil
	case string:
		return NewText(v), nil
	case []any:
		members := make([]string, 0, len(v))

		for _, m := range v {
			s, ok := m.(string)
			if !ok {
				return Value{}, ErrExprResult.With(
					slog.String("source", source),
					slog.String("type", resultTypeName(m)),
				)
			}

			members = append(members, s)
		}

		return NewComplex(members...), nil
	default:
		return Value{}, ErrExprResult.With(
			slog.String("source", source),
			slog.String("type", resultTypeName(result)),
		)
	}
}

func resultTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	return reflect.TypeOf(value).String()
}
