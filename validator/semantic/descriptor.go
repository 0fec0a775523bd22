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

package semantic

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/wire"
)

const filePath = "protobluff/dynamic.proto"
const packageName = "protobluff.dynamic"

// translator flattens a descriptor.Descriptor tree (every message/enum it
// transitively references) into one descriptorpb.FileDescriptorProto, the
// form google.golang.org/protobuf's reflection machinery (and so
// protovalidate) understands. It assumes, as generated code does, that
// every Descriptor/EnumDescriptor reachable from the root has a name
// unique within the tree.
type translator struct {
	messages map[*descriptor.Descriptor]string
	enums    map[*descriptor.EnumDescriptor]string
	file     *descriptorpb.FileDescriptorProto
}

// toFileDescriptorProto builds a FileDescriptorProto containing root and
// every message/enum it references, directly or through nested fields.
func toFileDescriptorProto(root *descriptor.Descriptor) *descriptorpb.FileDescriptorProto {
	tr := &translator{
		messages: make(map[*descriptor.Descriptor]string),
		enums:    make(map[*descriptor.EnumDescriptor]string),
		file: &descriptorpb.FileDescriptorProto{
			Name:    proto.String(filePath),
			Package: proto.String(packageName),
			Syntax:  proto.String("proto2"),
		},
	}
	tr.collect(root)
	return tr.file
}

func (tr *translator) collect(d *descriptor.Descriptor) string {
	if name, ok := tr.messages[d]; ok {
		return name
	}
	name := d.Name
	tr.messages[d] = name

	msg := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, o := range d.Oneofs {
		_ = i
		msg.OneofDecl = append(msg.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(o.Name)})
	}

	for _, f := range d.Fields {
		fp := &descriptorpb.FieldDescriptorProto{
			Name:     proto.String(f.Name),
			Number:   proto.Int32(int32(f.Tag)),
			Label:    protoLabel(f.Label).Enum(),
			Type:     protoType(f.Type).Enum(),
			JsonName: proto.String(f.Name),
		}
		if f.Type == wire.Message && f.Message != nil {
			fp.TypeName = proto.String("." + packageName + "." + tr.collect(f.Message))
		}
		if f.Type == wire.Enum && f.Enum != nil {
			fp.TypeName = proto.String("." + packageName + "." + tr.collectEnum(f.Enum))
		}
		if f.Label == descriptor.Repeated && f.Packed {
			fp.Options = &descriptorpb.FieldOptions{Packed: proto.Bool(true)}
		}
		if f.Oneof != nil {
			idx := oneofIndex(d, f.Oneof)
			if idx >= 0 {
				fp.OneofIndex = proto.Int32(int32(idx))
			}
		}
		msg.Field = append(msg.Field, fp)
	}

	tr.file.MessageType = append(tr.file.MessageType, msg)
	return name
}

func (tr *translator) collectEnum(e *descriptor.EnumDescriptor) string {
	if name, ok := tr.enums[e]; ok {
		return name
	}
	name := e.Name
	tr.enums[e] = name

	ep := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for _, v := range e.Values {
		ep.Value = append(ep.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v.Name),
			Number: proto.Int32(v.Number),
		})
	}
	tr.file.EnumType = append(tr.file.EnumType, ep)
	return name
}

func oneofIndex(d *descriptor.Descriptor, o *descriptor.OneofDescriptor) int {
	for i, candidate := range d.Oneofs {
		if candidate == o {
			return i
		}
	}
	return -1
}

func protoLabel(l descriptor.Label) descriptorpb.FieldDescriptorProto_Label {
	switch l {
	case descriptor.Required:
		return descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	case descriptor.Repeated:
		return descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	default:
		return descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	}
}

func protoType(t wire.ProtoType) descriptorpb.FieldDescriptorProto_Type {
	switch t {
	case wire.Int32:
		return descriptorpb.FieldDescriptorProto_TYPE_INT32
	case wire.Int64:
		return descriptorpb.FieldDescriptorProto_TYPE_INT64
	case wire.UInt32:
		return descriptorpb.FieldDescriptorProto_TYPE_UINT32
	case wire.UInt64:
		return descriptorpb.FieldDescriptorProto_TYPE_UINT64
	case wire.SInt32:
		return descriptorpb.FieldDescriptorProto_TYPE_SINT32
	case wire.SInt64:
		return descriptorpb.FieldDescriptorProto_TYPE_SINT64
	case wire.Fixed32Type:
		return descriptorpb.FieldDescriptorProto_TYPE_FIXED32
	case wire.Fixed64Type:
		return descriptorpb.FieldDescriptorProto_TYPE_FIXED64
	case wire.SFixed32:
		return descriptorpb.FieldDescriptorProto_TYPE_SFIXED32
	case wire.SFixed64:
		return descriptorpb.FieldDescriptorProto_TYPE_SFIXED64
	case wire.Bool:
		return descriptorpb.FieldDescriptorProto_TYPE_BOOL
	case wire.Enum:
		return descriptorpb.FieldDescriptorProto_TYPE_ENUM
	case wire.Float:
		return descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	case wire.Double:
		return descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	case wire.String:
		return descriptorpb.FieldDescriptorProto_TYPE_STRING
	case wire.Bytes:
		return descriptorpb.FieldDescriptorProto_TYPE_BYTES
	case wire.Message:
		return descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	default:
		return descriptorpb.FieldDescriptorProto_TYPE_BYTES
	}
}

// buildMessageDescriptor translates root (and everything it references)
// into a protoreflect.MessageDescriptor usable with dynamicpb.
func buildMessageDescriptor(root *descriptor.Descriptor) (protoreflect.MessageDescriptor, error) {
	fd := toFileDescriptorProto(root)
	file, err := protodesc.NewFile(fd, nil)
	if err != nil {
		return nil, fmt.Errorf("translating descriptor to protoreflect: %w", err)
	}

	msg := file.Messages().ByName(protoreflect.Name(root.Name))
	if msg == nil {
		return nil, fmt.Errorf("translated file has no message named %q", root.Name)
	}
	return msg, nil
}
