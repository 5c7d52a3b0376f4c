package ros

import "bytes"

// ServiceServer is a service-server entity: it waits for requests on
// its RMW handle and invokes handler synchronously on the Executor's
// dispatching thread, under the same group discipline as a
// Subscription callback.
type ServiceServer struct {
	node    *defaultNode
	name    string
	srvType ServiceType
	handle  ServiceHandle
	handler func(Service) Service
	group   *CallbackGroup
	logger  Logger
}

func (s *ServiceServer) Name() string { return s.name }

func (s *ServiceServer) isReady() bool { return s.handle.isReady() }

// execute takes the oldest pending request, runs the user handler, and
// sends the response back through the same handle.
func (s *ServiceServer) execute() {
	payload, requestID, ok := s.handle.TakeRequest()
	if !ok {
		return
	}
	req := s.srvType.NewService()
	if err := req.ReqMessage().Deserialize(bytes.NewReader(payload)); err != nil {
		s.logger.Errorf("failed to deserialize request on %s: %v", s.name, err)
		return
	}
	if s.handler == nil {
		return
	}
	resp := s.handler(req)
	if resp == nil {
		return
	}
	var buf bytes.Buffer
	if err := resp.ResMessage().Serialize(&buf); err != nil {
		s.logger.Errorf("failed to serialize response on %s: %v", s.name, err)
		return
	}
	if err := s.handle.SendResponse(requestID, buf.Bytes()); err != nil {
		s.logger.Warnf("failed to send response on %s: %v", s.name, err)
	}
}

// Shutdown closes the service's transport handle.
func (s *ServiceServer) Shutdown() { s.handle.Close() }
