package ros

import (
	"bytes"
	"encoding/binary"
)

// Publisher sends messages on a topic. When its node has intra-process
// routing enabled, Publish additionally stores the message with the
// IntraProcessManager and writes a tiny {publisher_id, sequence}
// record to the topic's "__intra" companion handle, instead of
// serializing the payload a second time.
type Publisher struct {
	node    *defaultNode
	topic   string
	msgType MessageType
	handle  PublisherHandle
	logger  Logger

	intraHandle PublisherHandle
	intraID     uint64
	ipm         *IntraProcessManager
}

func (p *Publisher) Topic() string { return p.topic }

// Publish serializes msg onto the RMW handle and, if intra-process
// routing is enabled, additionally fans it out through the
// IntraProcessManager.
func (p *Publisher) Publish(msg Message) error {
	if msg == nil {
		return ErrNullMessage
	}
	if p.ipm != nil {
		if msg.Type().Name() != p.msgType.Name() {
			return &TypeMismatchError{Want: p.msgType.Name(), Got: msg.Type().Name()}
		}
		seq, err := p.ipm.storeIntraProcessMessage(p.intraID, msg)
		if err != nil {
			return err
		}
		if err := p.intraHandle.Send(encodeIntraRecord(p.intraID, seq)); err != nil {
			p.logger.Warnf("failed to publish intra-process record for %s: %v", p.topic, err)
		}
	}

	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return err
	}
	return p.handle.Send(buf.Bytes())
}

func (p *Publisher) GID() string { return p.handle.GID() }

func (p *Publisher) shutdown() {
	p.handle.Close()
	if p.intraHandle != nil {
		p.intraHandle.Close()
	}
	if p.ipm != nil {
		p.ipm.removePublisher(p.intraID)
	}
}

// Shutdown closes the publisher's transport handles.
func (p *Publisher) Shutdown() { p.shutdown() }

// encodeIntraRecord/decodeIntraRecord implement the fixed two-field
// {publisher_id, sequence} wire record carried on a "__intra"
// companion topic.
func encodeIntraRecord(publisherID, sequence uint64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], publisherID)
	binary.BigEndian.PutUint64(buf[8:16], sequence)
	return buf
}

func decodeIntraRecord(payload []byte) (publisherID, sequence uint64, ok bool) {
	if len(payload) != 16 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(payload[0:8]), binary.BigEndian.Uint64(payload[8:16]), true
}
