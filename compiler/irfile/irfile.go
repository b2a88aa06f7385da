package irfile

import (
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"

	"github.com/slowlang/tailopt/compiler/ir"
)

type (
	File struct {
		ABI  string `yaml:"abi"`
		Name string `yaml:"name,omitempty"`
		Root *Node  `yaml:"root"`
	}

	// Node is one tree node. Exactly one of the kind keys is set:
	// proc, cond, not, call, return, ref, assign, seq, labeled, continue,
	// procref, const, binop, convert, field.
	Node struct {
		Proc   string    `yaml:"proc,omitempty"`
		Params []VarDecl `yaml:"params,omitempty"`
		Locals []VarDecl `yaml:"locals,omitempty"`
		Body   *Node     `yaml:"body,omitempty"`

		Cond *Node `yaml:"cond,omitempty"`
		Then *Node `yaml:"then,omitempty"`
		Else *Node `yaml:"else,omitempty"`

		Not *Node `yaml:"not,omitempty"`

		Call string  `yaml:"call,omitempty"`
		Recv *Node   `yaml:"recv,omitempty"`
		Args []*Node `yaml:"args,omitempty"`
		Tail bool    `yaml:"tail,omitempty"`

		Return *Node `yaml:"return,omitempty"`

		Ref string `yaml:"ref,omitempty"`

		Assign string `yaml:"assign,omitempty"`
		Define string `yaml:"define,omitempty"`
		Value  *Node  `yaml:"value,omitempty"`

		Seq []*Node `yaml:"seq,omitempty"`

		Labeled  *Node `yaml:"labeled,omitempty"`
		Continue bool  `yaml:"continue,omitempty"`

		ProcRef *Node `yaml:"procref,omitempty"`

		Const any `yaml:"const,omitempty"`

		BinOp string `yaml:"binop,omitempty"`
		L     *Node  `yaml:"l,omitempty"`
		R     *Node  `yaml:"r,omitempty"`

		Convert *Node  `yaml:"convert,omitempty"`
		Type    string `yaml:"type,omitempty"`

		Field string `yaml:"field,omitempty"`
		Of    *Node  `yaml:"of,omitempty"`
	}

	VarDecl struct {
		Name       string `yaml:"name"`
		Type       string `yaml:"type,omitempty"`
		Lifted     bool   `yaml:"lifted,omitempty"`
		Reassigned bool   `yaml:"reassigned,omitempty"`
	}

	ABIError struct {
		Version    string
		Constraint string
	}
)

const (
	// ABI is the shape of the capability type and its create and invoke methods.
	ABI = "1.0.0"

	// Compatible is the range of front end ABIs this optimizer accepts.
	Compatible = "^1.0"
)

func ReadFile(name string) (*ir.Unit, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	u, err := Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "%v", name)
	}

	if u.Name == "" {
		u.Name = name
	}

	return u, nil
}

func Decode(data []byte) (*ir.Unit, error) {
	var f File

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal")
	}

	err = CheckABI(f.ABI)
	if err != nil {
		return nil, err
	}

	if f.Root == nil {
		return nil, errors.New("no root")
	}

	d := &decoder{
		u: ir.NewUnit(f.Name),
	}

	d.u.Root, err = d.node(f.Root)
	if err != nil {
		return nil, errors.Wrap(err, "root")
	}

	return d.u, nil
}

func Encode(u *ir.Unit) ([]byte, error) {
	e := &encoder{u: u}

	root, err := e.node(u.Root)
	if err != nil {
		return nil, errors.Wrap(err, "root")
	}

	f := File{
		ABI:  ABI,
		Name: u.Name,
		Root: root,
	}

	return yaml.Marshal(&f)
}

// CheckABI fails if the unit was produced for an incompatible ABI.
// Empty version means the current one.
func CheckABI(version string) error {
	if version == "" {
		return nil
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrap(err, "abi version")
	}

	c, err := semver.NewConstraint(Compatible)
	if err != nil {
		return errors.Wrap(err, "abi constraint")
	}

	if !c.Check(v) {
		return ABIError{Version: version, Constraint: Compatible}
	}

	return nil
}

func (e ABIError) Error() string {
	return "abi " + e.Version + " does not satisfy " + e.Constraint
}
