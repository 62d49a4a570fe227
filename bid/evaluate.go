package bid

import (
	"math"
	"reflect"
	"regexp"
)

// Evaluate evaluates a parsed Bid against the JSON-shaped binding
// environment env (typically a map[string]any). It returns (value, true)
// if the ON clause is truthy, or (nil, false) if not, per the
// Some(bid_value)/None contract.
func Evaluate(b *Bid, env any) (any, bool, error) {
	cond, err := evalExpr(b.OnCondition, env)
	if err != nil {
		return nil, false, err
	}
	if !Truthy(cond) {
		return nil, false, nil
	}
	val, err := evalExpr(b.BidValue, env)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func evalExpr(e Expr, env any) (any, error) {
	switch n := e.(type) {
	case *Variable:
		return resolveVariable(n.Path, env)
	case *StringLiteral:
		return n.Value, nil
	case *IntegerLiteral:
		return n.Value, nil
	case *FloatLiteral:
		return n.Value, nil
	case *BooleanLiteral:
		return n.Value, nil
	case *Binary:
		return evalBinary(n, env)
	case *Unary:
		return evalUnary(n, env)
	case *MemberAccess:
		return evalMemberAccess(n, env)
	default:
		return nil, &EvalError{Kind: InvalidOperation, Message: "unknown expression node"}
	}
}

func resolveVariable(path []string, env any) (any, error) {
	var current any = env
	for _, seg := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, &EvalError{Kind: VariableNotFound, Path: path}
		}
		val, present := obj[seg]
		if !present {
			return nil, &EvalError{Kind: VariableNotFound, Path: path}
		}
		current = val
	}
	return current, nil
}

func evalMemberAccess(n *MemberAccess, env any) (any, error) {
	obj, err := evalExpr(n.Object, env)
	if err != nil {
		return nil, err
	}
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, &EvalError{Kind: VariableNotFound, Path: []string{n.Property}}
	}
	val, present := m[n.Property]
	if !present {
		return nil, &EvalError{Kind: VariableNotFound, Path: []string{n.Property}}
	}
	return val, nil
}

// Truthy implements the engine's truthiness table.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return false
	}
}

func evalBinary(n *Binary, env any) (any, error) {
	// && and || are true short-circuits: the right operand is not
	// evaluated at all unless truthiness of the left requires it, so a
	// side-effecting or erroring right operand (e.g. ~= with a bad
	// pattern) is never reached when it wouldn't change the result.
	if n.Op == OpLogicalAnd {
		left, err := evalExpr(n.Left, env)
		if err != nil {
			return nil, err
		}
		if !Truthy(left) {
			return left, nil
		}
		return evalExpr(n.Right, env)
	}
	if n.Op == OpLogicalOr {
		left, err := evalExpr(n.Left, env)
		if err != nil {
			return nil, err
		}
		if Truthy(left) {
			return left, nil
		}
		return evalExpr(n.Right, env)
	}

	left, err := evalExpr(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := evalExpr(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpAdd:
		return addValues(left, right)
	case OpSubtract:
		return arithmetic(left, right, func(a, b float64) float64 { return a - b }, false)
	case OpMultiply:
		return arithmetic(left, right, func(a, b float64) float64 { return a * b }, false)
	case OpDivide:
		r, err := extractNumber(right)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return nil, &EvalError{Kind: DivisionByZero}
		}
		return arithmetic(left, right, func(a, b float64) float64 { return a / b }, false)
	case OpModulo:
		r, err := extractNumber(right)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return nil, &EvalError{Kind: DivisionByZero}
		}
		return arithmetic(left, right, math.Mod, true)
	case OpPower:
		return powValues(left, right)
	case OpEqual:
		return valuesEqual(left, right), nil
	case OpNotEqual:
		return !valuesEqual(left, right), nil
	case OpLessThan:
		return compareValues(left, right, func(c int) bool { return c < 0 })
	case OpLessThanOrEqual:
		return compareValues(left, right, func(c int) bool { return c <= 0 })
	case OpGreaterThan:
		return compareValues(left, right, func(c int) bool { return c > 0 })
	case OpGreaterThanOrEqual:
		return compareValues(left, right, func(c int) bool { return c >= 0 })
	case OpRegexMatch:
		return regexMatch(left, right)
	default:
		return nil, &EvalError{Kind: InvalidOperation, Message: "unknown binary operator"}
	}
}

func evalUnary(n *Unary, env any) (any, error) {
	operand, err := evalExpr(n.Operand, env)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpNegate:
		num, err := extractNumber(operand)
		if err != nil {
			return nil, err
		}
		result := -num
		if isInteger(operand) {
			return int64(result), nil
		}
		return result, nil
	case OpLogicalNot:
		return !Truthy(operand), nil
	case OpDereference:
		// Dereference stub: evaluates the operand unchanged.
		return operand, nil
	default:
		return nil, &EvalError{Kind: InvalidOperation, Message: "unknown unary operator"}
	}
}

func isInteger(v any) bool {
	_, ok := v.(int64)
	return ok
}

func extractNumber(v any) (float64, error) {
	switch n := v.(type) {
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, &EvalError{Kind: TypeMismatch, Message: "expected number, found " + typeName(v)}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

func addValues(left, right any) (any, error) {
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		return ls + rs, nil
	}
	return arithmetic(left, right, func(a, b float64) float64 { return a + b }, false)
}

// arithmetic applies op to the numeric forms of left/right. When
// preserveInt is true and both operands are int64 and the result has no
// fractional part, the result is returned as int64 rather than float64.
func arithmetic(left, right any, op func(a, b float64) float64, preserveInt bool) (any, error) {
	l, err := extractNumber(left)
	if err != nil {
		return nil, err
	}
	r, err := extractNumber(right)
	if err != nil {
		return nil, err
	}
	result := op(l, r)

	if preserveInt && isInteger(left) && isInteger(right) && result == math.Trunc(result) {
		return int64(result), nil
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return nil, &EvalError{Kind: InvalidOperation, Message: "non-finite arithmetic result"}
	}
	return result, nil
}

func powValues(left, right any) (any, error) {
	l, err := extractNumber(left)
	if err != nil {
		return nil, err
	}
	r, err := extractNumber(right)
	if err != nil {
		return nil, err
	}
	result := math.Pow(l, r)
	if !math.IsInf(result, 0) && !math.IsNaN(result) {
		return result, nil
	}
	return nil, &EvalError{Kind: InvalidOperation, Message: "power operation resulted in a non-finite value"}
}

func valuesEqual(left, right any) bool {
	return reflect.DeepEqual(normalizeForEquality(left), normalizeForEquality(right))
}

// normalizeForEquality recurses into arrays/objects so int64 vs float64
// distinctions are preserved at every level: == is deep JSON equality
// with no numeric-type coercion, so 1 and 1.0 compare unequal.
func normalizeForEquality(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeForEquality(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeForEquality(e)
		}
		return out
	default:
		return val
	}
}

func compareValues(left, right any, cmp func(int) bool) (any, error) {
	l, err := extractNumber(left)
	if err != nil {
		return nil, err
	}
	r, err := extractNumber(right)
	if err != nil {
		return nil, err
	}
	switch {
	case l < r:
		return cmp(-1), nil
	case l > r:
		return cmp(1), nil
	default:
		return cmp(0), nil
	}
}

func regexMatch(left, right any) (any, error) {
	haystack, ok := left.(string)
	if !ok {
		return nil, &EvalError{Kind: TypeMismatch, Message: "regex match left operand must be a string, found " + typeName(left)}
	}
	pattern, ok := right.(string)
	if !ok {
		return nil, &EvalError{Kind: TypeMismatch, Message: "regex match right operand must be a string, found " + typeName(right)}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &EvalError{Kind: RegexError, Pattern: pattern, Message: err.Error()}
	}
	return re.MatchString(haystack), nil
}
