package tp

import (
	"strconv"

	"tlog.app/go/errors"
)

type (
	// Type is a closed set of static types.
	// Types are comparable values, so two types are the same type iff they are ==.
	Type interface {
		Size() int
		String() string
	}

	// Any is a boxed value of unknown static type.
	Any struct{}

	Bool struct{}

	Int struct {
		Bits   int16
		Signed bool
	}

	// Callable is the capability type every procedure is invoked through.
	Callable struct{}

	// ArgList is an already built argument array.
	ArgList struct{}
)

var Int64 = Int{Bits: 64, Signed: true}

func Parse(name string) (Type, error) {
	switch name {
	case "", "any":
		return Any{}, nil
	case "bool":
		return Bool{}, nil
	case "int":
		return Int64, nil
	case "callable":
		return Callable{}, nil
	case "args":
		return ArgList{}, nil
	default:
		return nil, errors.New("unknown type: %q", name)
	}
}

func IsCallable(t Type) bool {
	return t == Callable{}
}

func (Any) Size() int      { return 8 }
func (Bool) Size() int     { return 1 }
func (Callable) Size() int { return 8 }
func (ArgList) Size() int  { return 8 }

func (x Int) Size() int {
	return int(x.Bits) / 8
}

func (Any) String() string      { return "any" }
func (Bool) String() string     { return "bool" }
func (Callable) String() string { return "callable" }
func (ArgList) String() string  { return "args" }

func (x Int) String() string {
	if x == Int64 {
		return "int"
	}

	if x.Signed {
		return "int" + strconv.Itoa(int(x.Bits))
	}

	return "uint" + strconv.Itoa(int(x.Bits))
}
