package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/brickify/pkg/config"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms settings source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: shell-policy -> shell_policy
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toInt extracts a whole number from a Sexp.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	return int(f), nil
}

// toBool extracts a boolean from a Sexp. A bare keyword at the end of an
// argument list (SexpNull) reads as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// joinKeywords concatenates keyword or string arguments, so that both
// (scan-axes "xz") and (scan-axes :x :z) read as "xz".
func joinKeywords(args []zygo.Sexp) (string, error) {
	var sb strings.Builder
	for _, a := range args {
		s, err := toKeywordString(a)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// boolSetting registers a one-argument builtin that sets a boolean field.
// With no argument the field is set to true.
func boolSetting(env *zygo.Zlisp, name string, field *bool) {
	env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		label := strings.ReplaceAll(name, "_", "-")
		switch len(args) {
		case 0:
			*field = true
		case 1:
			b, err := toBool(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
			}
			*field = b
		default:
			return zygo.SexpNull, fmt.Errorf("%s takes at most one argument, got %d", label, len(args))
		}
		return zygo.SexpNull, nil
	})
}

// intSetting registers a one-argument builtin that sets an integer field.
func intSetting(env *zygo.Zlisp, name string, field *int) {
	env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		label := strings.ReplaceAll(name, "_", "-")
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires exactly 1 argument, got %d", label, len(args))
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
		}
		*field = n
		return zygo.SexpNull, nil
	})
}

// keywordSetting registers a builtin that sets a string field from one or
// more keyword arguments.
func keywordSetting(env *zygo.Zlisp, name string, field *string) {
	env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		label := strings.ReplaceAll(name, "_", "-")
		if len(args) == 0 {
			return zygo.SexpNull, fmt.Errorf("%s requires an argument", label)
		}
		s, err := joinKeywords(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", label, err)
		}
		*field = s
		return zygo.SexpNull, nil
	})
}

// registerBuiltins installs the settings builtins into a zygomys
// environment. Every builtin writes into cfg and returns nil; validation
// happens once evaluation has finished.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, cfg *config.Config) {
	// (resolution 0.5) or (resolution 0.5 0.5 0.6)
	env.AddFunction("resolution", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 && len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("resolution requires 1 or 3 arguments, got %d", len(args))
		}
		var v [3]float64
		for i := range v {
			arg := args[0]
			if len(args) == 3 {
				arg = args[i]
			}
			f, err := toFloat64(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("resolution: %s: %w", "xyz"[i:i+1], err)
			}
			v[i] = f
		}
		cfg.Resolution = config.Vec3{X: v[0], Y: v[1], Z: v[2]}
		return zygo.SexpNull, nil
	})

	keywordSetting(env, "shell_policy", &cfg.ShellPolicy)
	keywordSetting(env, "scan_axes", &cfg.ScanAxes)
	keywordSetting(env, "skip_ahead", &cfg.SkipAhead)
	keywordSetting(env, "insideness_rays", &cfg.InsidenessRays)
	keywordSetting(env, "brick_type", &cfg.Merge.BrickType)

	boolSetting(env, "use_normals", &cfg.UseNormals)
	boolSetting(env, "double_check", &cfg.DoubleCheck)
	boolSetting(env, "verify_exposure", &cfg.VerifyExposure)
	boolSetting(env, "merge_across_materials", &cfg.Merge.AcrossMaterials)
	boolSetting(env, "studs", &cfg.Mesh.Studs)

	intSetting(env, "shell_thickness", &cfg.ShellThickness)
	intSetting(env, "shell_material_depth", &cfg.ShellMaterialDepth)

	env.AddFunction("merge_seed", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("merge-seed requires exactly 1 argument, got %d", len(args))
		}
		v, ok := args[0].(*zygo.SexpInt)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("merge-seed: expected integer, got %T (%s)", args[0], args[0].SexpString(nil))
		}
		cfg.Merge.Seed = v.Val
		return zygo.SexpNull, nil
	})

	// (max-width 8) or (max-width 8 6): 1D cap, then 2D cap.
	env.AddFunction("max_width", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 && len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("max-width requires 1 or 2 arguments, got %d", len(args))
		}
		w1, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("max-width: 1d: %w", err)
		}
		w2 := w1
		if len(args) == 2 {
			if w2, err = toInt(args[1]); err != nil {
				return zygo.SexpNull, fmt.Errorf("max-width: 2d: %w", err)
			}
		}
		cfg.Merge.MaxWidth1D, cfg.Merge.MaxWidth2D = w1, w2
		return zygo.SexpNull, nil
	})

	// (supports :columns :step 4 :thickness 1 :alternate-xy true)
	env.AddFunction("supports", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		s := cfg.Supports
		rest := args
		if len(rest) > 0 {
			// A leading style keyword is the style, not an option name.
			if kw, ok := isKW(rest[0]); ok && kw != "style" && kw != "step" &&
				kw != "thickness" && !strings.HasPrefix(kw, "alternate") {
				s.Style = kw
				rest = rest[1:]
			}
		}
		pa := parseArgs(rest)

		if len(pa.positional) > 1 {
			return zygo.SexpNull, fmt.Errorf("supports takes one style, got %d", len(pa.positional))
		}
		if len(pa.positional) == 1 {
			style, err := toKeywordString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("supports: style: %w", err)
			}
			s.Style = style
		}
		for key, v := range pa.kw {
			var err error
			switch key {
			case "style":
				s.Style, err = toKeywordString(v)
			case "step":
				s.Step, err = toInt(v)
			case "thickness":
				s.Thickness, err = toInt(v)
			case "alternate-xy", "alternate_xy":
				s.AlternateXY, err = toBool(v)
			default:
				err = fmt.Errorf("unknown option :%s", key)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("supports: %s: %w", key, err)
			}
		}
		cfg.Supports = s
		return zygo.SexpNull, nil
	})

	// (custom-brick 2 4) or (custom-brick 2 4 3) appends to the custom catalog.
	env.AddFunction("custom_brick", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 && len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("custom-brick requires 2 or 3 arguments, got %d", len(args))
		}
		var dims [3]int
		dims[2] = 1
		for i, a := range args {
			n, err := toInt(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("custom-brick: %s: %w", [3]string{"w", "d", "h"}[i], err)
			}
			dims[i] = n
		}
		cfg.Merge.CustomCatalog = append(cfg.Merge.CustomCatalog, config.Footprint{W: dims[0], D: dims[1], H: dims[2]})
		return zygo.SexpNull, nil
	})

	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("material requires exactly 1 argument, got %d", len(args))
		}
		m, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		cfg.Material = m
		return zygo.SexpNull, nil
	})

	// (mesh :cells 48 :studs true :hollow false)
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("mesh takes only keyword options")
		}
		m := cfg.Mesh
		for key, v := range pa.kw {
			var err error
			switch key {
			case "cells":
				m.Cells, err = toInt(v)
			case "studs":
				m.Studs, err = toBool(v)
			case "hollow":
				m.Hollow, err = toBool(v)
			default:
				err = fmt.Errorf("unknown option :%s", key)
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mesh: %s: %w", key, err)
			}
		}
		cfg.Mesh = m
		return zygo.SexpNull, nil
	})
}
