package ros

import (
	"bytes"
	"encoding/binary"
)

// testIntType/testInt are the fixture message used across this
// package's tests: a single int32 payload, serialized as 4 big-endian
// bytes, just enough to exercise Publish/Subscribe without pulling in
// generated message code.
type testIntType struct{}

func (testIntType) Text() string       { return "int32 value" }
func (testIntType) MD5Sum() string     { return "test-int-md5" }
func (testIntType) Name() string       { return "test_msgs/Int" }
func (testIntType) NewMessage() Message { return &testInt{} }

var testInt32Type MessageType = testIntType{}

type testInt struct {
	Value int32
}

func (m *testInt) Type() MessageType { return testInt32Type }

func (m *testInt) Serialize(buf *bytes.Buffer) error {
	return binary.Write(buf, binary.BigEndian, m.Value)
}

func (m *testInt) Deserialize(buf *bytes.Reader) error {
	return binary.Read(buf, binary.BigEndian, &m.Value)
}

// testAddType/testAddRequest/testAddResponse/testAddService are the
// fixture service used by service/client tests: add two int32s.
type testAddType struct{}

func (testAddType) MD5Sum() string             { return "test-add-md5" }
func (testAddType) Name() string               { return "test_srvs/Add" }
func (testAddType) RequestType() MessageType   { return testInt32Type }
func (testAddType) ResponseType() MessageType  { return testInt32Type }
func (testAddType) NewService() Service        { return &testAddService{} }

var testAddSrv ServiceType = testAddType{}

type testAddService struct {
	Req *testInt
	Res *testInt
}

func (s *testAddService) ReqMessage() Message {
	if s.Req == nil {
		s.Req = &testInt{}
	}
	return s.Req
}

func (s *testAddService) ResMessage() Message {
	if s.Res == nil {
		s.Res = &testInt{}
	}
	return s.Res
}
