package types

// CapKind enumerates the capability kinds the language knows about.
// Each kind has exactly one effect tag and one capability leaf type,
// sharing a name.
type CapKind int

const (
	CapFs CapKind = iota
	CapNet
	CapTime
	CapRand
	CapModel
)

func (k CapKind) String() string {
	switch k {
	case CapFs:
		return "Fs"
	case CapNet:
		return "Net"
	case CapTime:
		return "Time"
	case CapRand:
		return "Rand"
	case CapModel:
		return "Model"
	default:
		return "?"
	}
}

// Effect returns the effect tag authorised by this capability kind.
func (k CapKind) Effect() string { return k.String() }

// CapKinds lists every capability kind in tag order.
var CapKinds = []CapKind{CapFs, CapNet, CapTime, CapRand, CapModel}

// CapKindNamed resolves a capability type or effect-tag name.
func CapKindNamed(name string) (CapKind, bool) {
	for _, k := range CapKinds {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// KnownEffect reports whether tag names a recognised effect.
func KnownEffect(tag string) bool {
	_, ok := CapKindNamed(tag)
	return ok
}

// CapForEffect returns the capability kind whose authority the effect
// tag requires.
func CapForEffect(tag string) (CapKind, bool) {
	return CapKindNamed(tag)
}

var (
	TyUnit   = &Const{Name: "Unit"}
	TyBool   = &Const{Name: "Bool"}
	TyInt    = &Const{Name: "Int"}
	TyFloat  = &Const{Name: "Float"}
	TyString = &Const{Name: "String"}
)

// Numeric reports whether t is a type arithmetic operators accept.
func Numeric(t Ty) bool {
	c, ok := t.(*Const)
	return ok && (c.Name == "Int" || c.Name == "Float")
}

// builtinConsts are the ground type names reserved by the language.
var builtinConsts = []string{"Unit", "Bool", "Int", "Float", "String", "Never", "List"}

// ReservedTypeName reports whether name may not be used for a
// user-declared type: builtin ground types, the list type, and every
// capability type name are reserved. The capability names are reserved
// so a user type can never masquerade as an authority token.
func ReservedTypeName(name string) bool {
	for _, b := range builtinConsts {
		if name == b {
			return true
		}
	}
	_, isCap := CapKindNamed(name)
	return isCap
}
