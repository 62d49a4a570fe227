package schema

// ValidateSchema performs recursive well-formedness checking on a schema
// node: every node names a type from the closed set or a oneOf branch list,
// oneOf branches and properties/items schemas are themselves well-formed.
func ValidateSchema(s *Schema) error {
	if s == nil {
		return &ValidationError{Kind: InvalidSchemaError, Message: "schema is nil"}
	}

	if s.Type == "" && s.OneOf == nil {
		return &ValidationError{Kind: InvalidSchemaError, Message: "schema must declare a type or oneOf"}
	}
	if s.Type != "" && s.OneOf != nil {
		return &ValidationError{Kind: InvalidSchemaError, Message: "schema must not declare both type and oneOf"}
	}

	if s.OneOf != nil {
		if len(s.OneOf) == 0 {
			return &ValidationError{Kind: InvalidSchemaError, Message: "oneOf must not be empty"}
		}
		for _, branch := range s.OneOf {
			if err := ValidateSchema(branch); err != nil {
				return err
			}
		}
		return nil
	}

	if !s.Type.valid() {
		return &ValidationError{Kind: InvalidSchemaError, Message: "unknown schema type " + string(s.Type)}
	}

	switch s.Type {
	case TypeString:
		// enum is optional and untyped at this layer; nothing further to check.
	case TypeArray:
		switch items := s.Items.(type) {
		case nil:
		case *Schema:
			if err := ValidateSchema(items); err != nil {
				return err
			}
		case []*Schema:
			for _, item := range items {
				if err := ValidateSchema(item); err != nil {
					return err
				}
			}
		default:
			return &ValidationError{Kind: InvalidSchemaError, Message: "items must be a schema or an array of schemas"}
		}
	case TypeObject:
		for name, prop := range s.Properties {
			if err := ValidateSchema(prop); err != nil {
				return &ValidationError{Kind: ObjectPropertyError, Name: name, Cause: asValidationError(err)}
			}
		}
	}

	return nil
}

// ValidateValue checks value against schema, returning a *ValidationError
// describing the first failure found, or nil if value conforms.
func ValidateValue(value any, s *Schema) error {
	if s.OneOf != nil {
		for _, branch := range s.OneOf {
			if err := ValidateValue(value, branch); err == nil {
				return nil
			}
		}
		return &ValidationError{Kind: InvalidSchemaError, Message: "value does not match any oneOf branch"}
	}

	switch s.Type {
	case TypeNull:
		if value != nil {
			return mismatch(TypeNull, value)
		}
		return nil

	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return mismatch(TypeBoolean, value)
		}
		return nil

	case TypeInteger:
		if !isIntegral(value) {
			return mismatch(TypeInteger, value)
		}
		return nil

	case TypeNumber:
		switch value.(type) {
		case int64, float64:
			return nil
		default:
			return mismatch(TypeNumber, value)
		}

	case TypeString:
		str, ok := value.(string)
		if !ok {
			return mismatch(TypeString, value)
		}
		if len(s.Enum) > 0 {
			for _, allowed := range s.Enum {
				if allowedStr, ok := allowed.(string); ok && allowedStr == str {
					return nil
				}
			}
			return &ValidationError{Kind: EnumMismatch, Value: value, Allowed: s.Enum}
		}
		return nil

	case TypeArray:
		arr, ok := value.([]any)
		if !ok {
			return mismatch(TypeArray, value)
		}
		return validateArrayItems(arr, s.Items)

	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return mismatch(TypeObject, value)
		}
		return validateObject(obj, s)

	default:
		return &ValidationError{Kind: InvalidSchemaError, Message: "unknown schema type " + string(s.Type)}
	}
}

func validateArrayItems(arr []any, items any) error {
	switch it := items.(type) {
	case nil:
		return nil
	case *Schema:
		for i, elem := range arr {
			if err := ValidateValue(elem, it); err != nil {
				return &ValidationError{Kind: ArrayItemError, Index: i, Cause: asValidationError(err)}
			}
		}
		return nil
	case []*Schema:
		for i, elem := range arr {
			if i >= len(it) {
				break
			}
			if err := ValidateValue(elem, it[i]); err != nil {
				return &ValidationError{Kind: ArrayItemError, Index: i, Cause: asValidationError(err)}
			}
		}
		return nil
	default:
		return &ValidationError{Kind: InvalidSchemaError, Message: "items must be a schema or an array of schemas"}
	}
}

func validateObject(obj map[string]any, s *Schema) error {
	for _, name := range s.Required {
		if _, present := obj[name]; !present {
			return &ValidationError{Kind: MissingRequiredProperty, Name: name}
		}
	}
	for name, propSchema := range s.Properties {
		val, present := obj[name]
		if !present {
			continue
		}
		if err := ValidateValue(val, propSchema); err != nil {
			return &ValidationError{Kind: ObjectPropertyError, Name: name, Cause: asValidationError(err)}
		}
	}
	return nil
}

func isIntegral(value any) bool {
	switch v := value.(type) {
	case int64:
		return true
	case float64:
		return v == float64(int64(v))
	default:
		return false
	}
}

func mismatch(expected Type, actual any) *ValidationError {
	return &ValidationError{Kind: TypeMismatch, Expected: expected, Actual: actualType(actual)}
}

func actualType(v any) Type {
	switch v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case int64, float64:
		return TypeNumber
	case string:
		return TypeString
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return Type("unknown")
	}
}

func asValidationError(err error) *ValidationError {
	if ve, ok := err.(*ValidationError); ok {
		return ve
	}
	return &ValidationError{Kind: InvalidSchemaError, Message: err.Error()}
}
