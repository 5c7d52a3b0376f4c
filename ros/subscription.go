package ros

import "bytes"

// Subscription receives messages on a topic and invokes callback on
// whichever goroutine the owning Executor dispatches it from. When
// its node has intra-process routing enabled, it also listens on the
// topic's "__intra" companion handle for same-process delivery
// records and filters out cross-process duplicates via
// matches_any_publishers.
type Subscription struct {
	node     *defaultNode
	topic    string
	msgType  MessageType
	handle   SubscriptionHandle
	callback func(Message)
	group    *CallbackGroup
	logger   Logger

	intraHandle SubscriptionHandle
	intraID     uint64
	ipm         *IntraProcessManager
}

func (s *Subscription) Topic() string { return s.topic }

// isReady reports whether either the inter-process handle or, if
// present, the intra-process companion handle has a sample waiting.
func (s *Subscription) isReady() bool {
	if s.intraHandle != nil && s.intraHandle.isReady() {
		return true
	}
	return s.handle.isReady()
}

// waitHandles returns every SubscriptionHandle the Executor must
// include in a wait-set for this entity to ever become ready.
func (s *Subscription) waitHandles() []SubscriptionHandle {
	if s.intraHandle != nil {
		return []SubscriptionHandle{s.handle, s.intraHandle}
	}
	return []SubscriptionHandle{s.handle}
}

// execute takes exactly one sample (preferring the intra-process path
// when both are ready, since it is cheaper and the matching
// cross-process sample is about to be dropped anyway) and invokes the
// callback.
func (s *Subscription) execute() {
	if s.intraHandle != nil && s.intraHandle.isReady() {
		payload, _, ok := s.intraHandle.Take()
		if !ok {
			return
		}
		publisherID, sequence, ok := decodeIntraRecord(payload)
		if !ok {
			s.logger.Warnf("malformed intra-process record on %s", s.topic)
			return
		}
		msg, ok, err := s.ipm.takeIntraProcessMessage(publisherID, s.intraID, sequence)
		if err != nil {
			s.logger.Debugf("intra-process take failed on %s: %v", s.topic, err)
			return
		}
		if ok && s.callback != nil {
			s.callback(msg)
		}
		return
	}

	payload, senderGID, ok := s.handle.Take()
	if !ok {
		return
	}
	if s.ipm != nil {
		matches, err := s.ipm.matchesAnyPublishers(senderGID)
		if err != nil {
			s.logger.Debugf("intra-process dedup check failed on %s: %v", s.topic, err)
		} else if matches {
			// Already delivered (or about to be) through the intra-process
			// path; drop the cross-process duplicate.
			return
		}
	}
	msg := s.msgType.NewMessage()
	if err := msg.Deserialize(bytes.NewReader(payload)); err != nil {
		s.logger.Errorf("failed to deserialize message on %s: %v", s.topic, err)
		return
	}
	if s.callback != nil {
		s.callback(msg)
	}
}

func (s *Subscription) shutdown() {
	s.handle.Close()
	if s.intraHandle != nil {
		s.intraHandle.Close()
	}
	if s.ipm != nil {
		s.ipm.removeSubscription(s.intraID)
	}
}

// Shutdown closes the subscription's transport handles.
func (s *Subscription) Shutdown() { s.shutdown() }
