// Package std_msgs provides a small set of message types for use by
// the example nodes, standing in for the generated message packages a
// real deployment would build from .msg definitions.
package std_msgs

import (
	"bytes"
	"encoding/binary"

	"github.com/edwinhayes/rclgo/ros"
)

type stringType struct{}

func (stringType) Text() string          { return "string data" }
func (stringType) MD5Sum() string        { return "992ce8a1687cec8c8bd883ec73ca41d1" }
func (stringType) Name() string          { return "std_msgs/String" }
func (stringType) NewMessage() ros.Message { return new(String) }

// TypeOfString returns the MessageType for String.
func TypeOfString() ros.MessageType { return stringType{} }

// String mirrors std_msgs/String: a single free-form text field.
type String struct {
	Data string
}

func (s *String) Type() ros.MessageType { return TypeOfString() }

func (s *String) Serialize(buf *bytes.Buffer) error {
	data := []byte(s.Data)
	if err := binary.Write(buf, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := buf.Write(data)
	return err
}

func (s *String) Deserialize(buf *bytes.Reader) error {
	var size uint32
	if err := binary.Read(buf, binary.BigEndian, &size); err != nil {
		return err
	}
	data := make([]byte, size)
	if _, err := buf.Read(data); err != nil {
		return err
	}
	s.Data = string(data)
	return nil
}
