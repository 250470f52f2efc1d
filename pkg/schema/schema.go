// Package schema derives per-category validation rules from the catalog and
// evaluates arbitrary submitted key/value data against them.
//
// Rules are a small tagged-variant set built at request time from
// CategoryField/Field/Option rows; each variant is evaluated uniformly in a
// single pass so a client sees every violation at once.
package schema

import (
	"fmt"

	"github.com/AliObeid01/dynamic-classified-api/domain"
)

// Kind is the primitive type a dynamic value must satisfy.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBoolean
)

// RuleKind tags the rule variants.
type RuleKind int

const (
	// RuleType constrains the value to a primitive Kind.
	RuleType RuleKind = iota
	// RuleOneOf constrains the value to the field's flat option values.
	RuleOneOf
	// RuleMinZero forbids negative numeric values (range filter fields).
	RuleMinZero
	// RuleMaxLength bounds string length (free-text filter fields).
	RuleMaxLength
)

// Rule is one constraint on a dynamic field. Only the members relevant to
// its Kind are set.
type Rule struct {
	Kind    RuleKind
	Type    Kind
	Choices []string
	MaxLen  int
}

// FieldRule is the compiled rule set for one attribute.
type FieldRule struct {
	Attribute string
	// Name is the human display name used in error messages
	// ("Mileage" rather than "fields.mileage").
	Name     string
	Required bool
	Rules    []Rule
}

// Schema maps field attributes to their compiled rules for one category.
// A category with no linked fields yields an empty, always-passing schema.
type Schema struct {
	fields map[string]FieldRule
	order  []string
}

// Build compiles the rule set for a category from its loaded field details.
//
// Choice rules compare against the field's top-level option values only;
// nested child options are not auto-included, mirroring the flat check the
// posting flow has always used. A choice field with zero stored options gets
// no choice rule at all and is silently permissive.
func Build(details []domain.CategoryFieldDetail) Schema {
	s := Schema{fields: make(map[string]FieldRule, len(details))}

	for _, d := range details {
		fr := FieldRule{
			Attribute: d.Field.Attribute,
			Name:      d.Field.Name,
			Required:  d.CategoryField.IsMandatory,
		}

		kind := kindOf(d.Field.ValueType)
		fr.Rules = append(fr.Rules, Rule{Kind: RuleType, Type: kind})

		if d.Field.IsChoice() {
			if choices := topLevelValues(d.Options); len(choices) > 0 {
				fr.Rules = append(fr.Rules, Rule{Kind: RuleOneOf, Choices: choices})
			}
		}

		switch d.Field.FilterType {
		case domain.FilterTypeRange:
			if kind == KindInteger || kind == KindNumber {
				fr.Rules = append(fr.Rules, Rule{Kind: RuleMinZero})
			}
		case domain.FilterTypeText:
			fr.Rules = append(fr.Rules, Rule{Kind: RuleMaxLength, MaxLen: maxTextLength})
		}

		if _, ok := s.fields[fr.Attribute]; !ok {
			s.order = append(s.order, fr.Attribute)
		}
		s.fields[fr.Attribute] = fr
	}

	return s
}

const maxTextLength = 500

// Len reports how many attributes the schema constrains.
func (s Schema) Len() int {
	return len(s.fields)
}

// DisplayName returns the human name used in messages for an attribute, or
// the attribute itself when unknown.
func (s Schema) DisplayName(attribute string) string {
	if fr, ok := s.fields[attribute]; ok {
		return fr.Name
	}
	return attribute
}

func kindOf(valueType string) Kind {
	switch valueType {
	case domain.ValueTypeInteger:
		return KindInteger
	case domain.ValueTypeNumber, domain.ValueTypeDecimal, domain.ValueTypeFloat:
		return KindNumber
	case domain.ValueTypeBoolean:
		return KindBoolean
	default:
		return KindString
	}
}

func topLevelValues(options []domain.FieldOption) []string {
	values := make([]string, 0, len(options))
	for _, o := range options {
		if o.ParentID == nil {
			values = append(values, o.Value)
		}
	}
	return values
}

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "string"
	}
}

func (k Kind) message(name string) string {
	switch k {
	case KindInteger:
		return fmt.Sprintf("The %s field must be an integer.", name)
	case KindNumber:
		return fmt.Sprintf("The %s field must be a number.", name)
	case KindBoolean:
		return fmt.Sprintf("The %s field must be true or false.", name)
	default:
		return fmt.Sprintf("The %s field must be a string.", name)
	}
}
