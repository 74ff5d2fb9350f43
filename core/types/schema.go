package types

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrMalformedParameters is returned when a parameter blob does not match the
// schema of its opcode exactly.
var ErrMalformedParameters = errors.New("malformed parameters")

// Field describes one ABI field of a schema.
type Field = abi.ArgumentMarshaling

// Schema is the ABI layout of one parameter blob.
//
// Decoding is strict: the blob must unpack and re-pack to the very same bytes,
// so trailing garbage, dirty padding and truncated tails are all rejected.
// Integers wider than their declared size are rejected as well.
type Schema struct {
	name string
	args abi.Arguments
}

// MustNewSchema builds a schema from static field descriptions. It panics on
// an invalid type string; schemas are package-level tables.
func MustNewSchema(name string, fields ...Field) Schema {
	args := make(abi.Arguments, len(fields))
	for i, f := range fields {
		typ, err := abi.NewType(f.Type, f.InternalType, f.Components)
		if err != nil {
			panic(fmt.Sprintf("schema %s: field %s: %v", name, f.Name, err))
		}
		args[i] = abi.Argument{Name: f.Name, Type: typ}
	}
	return Schema{name: name, args: args}
}

// Name returns the schema name used in error messages.
func (s Schema) Name() string { return s.name }

// Arguments exposes the underlying ABI arguments.
func (s Schema) Arguments() abi.Arguments { return s.args }

// Unpack decodes blob into generic ABI values.
func (s Schema) Unpack(blob []byte) ([]interface{}, error) {
	values, err := s.args.Unpack(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedParameters, s.name, err)
	}
	for i, arg := range s.args {
		if err := checkRange(arg.Type, reflect.ValueOf(values[i])); err != nil {
			return nil, fmt.Errorf("%w: %s: field %s: %v", ErrMalformedParameters, s.name, arg.Name, err)
		}
	}
	canonical, err := s.args.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedParameters, s.name, err)
	}
	if !bytes.Equal(canonical, blob) {
		return nil, fmt.Errorf("%w: %s: non-canonical encoding (have %d bytes, canonical %d)", ErrMalformedParameters, s.name, len(blob), len(canonical))
	}
	return values, nil
}

// checkRange rejects big integers that overflow their ABI type. The ABI
// decoder only bounds the sizes it maps onto native Go integers.
func checkRange(t abi.Type, v reflect.Value) error {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		n, ok := v.Interface().(*big.Int)
		if !ok {
			return nil
		}
		if t.T == abi.UintTy {
			if n.Sign() < 0 || n.BitLen() > t.Size {
				return fmt.Errorf("value %v overflows uint%d", n, t.Size)
			}
			return nil
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return fmt.Errorf("value %v overflows int%d", n, t.Size)
		}
	case abi.TupleTy:
		for i, elem := range t.TupleElems {
			if err := checkRange(*elem, v.Field(i)); err != nil {
				return err
			}
		}
	case abi.SliceTy, abi.ArrayTy:
		for i := 0; i < v.Len(); i++ {
			if err := checkRange(*t.Elem, v.Index(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode unpacks blob into out, a pointer to a struct whose fields follow the
// schema order and are named after the ABI fields.
func (s Schema) Decode(blob []byte, out interface{}) error {
	values, err := s.Unpack(blob)
	if err != nil {
		return err
	}
	if err := s.args.Copy(out, values); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedParameters, s.name, err)
	}
	return nil
}

// Encode packs the fields of in, a struct (or pointer to one) laid out in
// schema order.
func (s Schema) Encode(in interface{}) (blob []byte, err error) {
	// The ABI packer panics on nil *big.Int fields.
	defer func() {
		if r := recover(); r != nil {
			blob, err = nil, fmt.Errorf("schema %s: %v", s.name, r)
		}
	}()
	rv := reflect.Indirect(reflect.ValueOf(in))
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema %s: cannot encode %T", s.name, in)
	}
	if rv.NumField() != len(s.args) {
		return nil, fmt.Errorf("schema %s: %T has %d fields, want %d", s.name, in, rv.NumField(), len(s.args))
	}
	values := make([]interface{}, len(s.args))
	for i := range values {
		values[i] = rv.Field(i).Interface()
	}
	blob, err = s.args.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.name, err)
	}
	return blob, nil
}

// PlanSchema is the (bytes, bytes[]) layout shared by nested plans and action
// lists.
var PlanSchema = MustNewSchema("plan",
	Field{Name: "commands", Type: "bytes"},
	Field{Name: "inputs", Type: "bytes[]"},
)

type encodedPlan struct {
	Commands []byte
	Inputs   [][]byte
}

// DecodePlan splits a (bytes, bytes[]) blob into its opcode string and
// parameter blobs.
func DecodePlan(blob []byte) ([]byte, [][]byte, error) {
	var p encodedPlan
	if err := PlanSchema.Decode(blob, &p); err != nil {
		return nil, nil, err
	}
	return p.Commands, p.Inputs, nil
}

// EncodePlan is the inverse of DecodePlan.
func EncodePlan(commands []byte, inputs [][]byte) ([]byte, error) {
	if commands == nil {
		commands = []byte{}
	}
	if inputs == nil {
		inputs = [][]byte{}
	}
	return PlanSchema.Encode(encodedPlan{Commands: commands, Inputs: inputs})
}
