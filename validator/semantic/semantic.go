// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package semantic wires this module's descriptor-driven core into
// buf.build/go/protovalidate's CEL constraint evaluator. It is a
// deliberately separate, opt-in extension: validating CEL expressions
// needs a fully decoded protoreflect object graph, which is exactly the
// materialization the in-place core avoids, so the core never imports
// this package.
package semantic

import (
	"fmt"
	"math"

	"buf.build/go/protovalidate"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/protobluff/protobluff/codec"
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/internal/zigzag"
)

// Validate decodes data (the wire bytes of one message governed by desc)
// into a dynamicpb.Message and runs protovalidate's CEL constraints
// against it. desc and every message/enum it transitively references is
// translated into a descriptorpb.FileDescriptorProto once per call; a
// caller validating the same desc repeatedly should cache that cost
// itself if it matters (this package does not memoize it).
func Validate(desc *descriptor.Descriptor, data []byte) error {
	msgDesc, err := buildMessageDescriptor(desc)
	if err != nil {
		return err
	}

	dyn := dynamicpb.NewMessage(msgDesc)
	if err := populate(msgDesc, codec.New(desc, data), dyn); err != nil {
		return fmt.Errorf("decoding for semantic validation: %w", err)
	}

	return protovalidate.Validate(dyn)
}

// populate decodes every field occurrence dec reports into dyn, recursing
// into nested messages via their own freshly-built dynamicpb.Message.
func populate(msgDesc protoreflect.MessageDescriptor, dec *codec.Decoder, dyn *dynamicpb.Message) error {
	return dec.Decode(func(fdesc *descriptor.FieldDescriptor, v codec.Value) error {
		if fdesc == nil {
			return nil // unknown field: nothing to validate it against
		}
		fd := msgDesc.Fields().ByNumber(protoreflect.FieldNumber(fdesc.Tag))
		if fd == nil {
			return nil
		}

		val, err := toProtoValue(fd, fdesc, v)
		if err != nil {
			return err
		}

		if fd.IsList() {
			dyn.Mutable(fd).List().Append(val)
			return nil
		}
		dyn.Set(fd, val)
		return nil
	})
}

// toProtoValue converts one decoded field occurrence into a
// protoreflect.Value of the kind fd declares, recursing through populate
// for a nested message.
func toProtoValue(fd protoreflect.FieldDescriptor, fdesc *descriptor.FieldDescriptor, v codec.Value) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(v.Raw != 0), nil
	case protoreflect.Int32Kind:
		return protoreflect.ValueOfInt32(int32(v.Raw)), nil
	case protoreflect.Sint32Kind:
		return protoreflect.ValueOfInt32(zigzag.Decode64[int32](v.Raw)), nil
	case protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(int32(v.Raw)), nil
	case protoreflect.Int64Kind:
		return protoreflect.ValueOfInt64(int64(v.Raw)), nil
	case protoreflect.Sint64Kind:
		return protoreflect.ValueOfInt64(zigzag.Decode64[int64](v.Raw)), nil
	case protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(int64(v.Raw)), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(uint32(v.Raw)), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return protoreflect.ValueOfUint64(v.Raw), nil
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(math.Float32frombits(uint32(v.Raw))), nil
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(math.Float64frombits(v.Raw)), nil
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(string(v.Bytes)), nil
	case protoreflect.BytesKind:
		return protoreflect.ValueOfBytes(append([]byte(nil), v.Bytes...)), nil
	case protoreflect.EnumKind:
		return protoreflect.ValueOfEnum(protoreflect.EnumNumber(int32(v.Raw))), nil
	case protoreflect.MessageKind, protoreflect.GroupKind:
		sub := dynamicpb.NewMessage(fd.Message())
		if err := populate(fd.Message(), v.Sub, sub); err != nil {
			return protoreflect.Value{}, err
		}
		return protoreflect.ValueOfMessage(sub), nil
	default:
		return protoreflect.Value{}, fmt.Errorf("field %s: unsupported protoreflect kind %v", fdesc.Name, fd.Kind())
	}
}
